package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/menprac-cloud/menPrac-backend/store"
)

func TestListPrograms(t *testing.T) {
	env := newTestEnv(t)
	env.store.programsByClin = func(ctx context.Context, clinicianID int64) ([]store.Program, error) {
		assert.Equal(t, int64(7), clinicianID)
		return []store.Program{{ID: 1, LearnerID: 3, Title: "Manding", TargetType: "Skill", IsActive: true, LearnerName: "Leo M"}}, nil
	}

	rec := env.do(t, http.MethodGet, "/api/programs", nil, 7)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"learner_name":"Leo M"`)
}

func TestCreateProgramForeignLearner(t *testing.T) {
	env := newTestEnv(t)
	env.store.learnerOwnedBy = func(ctx context.Context, learnerID, clinicianID int64) (string, error) {
		return "", store.ErrNotFound
	}

	rec := env.do(t, http.MethodPost, "/api/programs", map[string]any{
		"learnerId":  3,
		"title":      "Manding",
		"targetType": "Skill",
	}, 7)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateProgramAttachesLearnerName(t *testing.T) {
	env := newTestEnv(t)
	env.store.learnerOwnedBy = func(ctx context.Context, learnerID, clinicianID int64) (string, error) {
		return "Leo M", nil
	}
	env.store.createProgram = func(ctx context.Context, learnerID int64, title, targetType string) (*store.Program, error) {
		return &store.Program{ID: 5, LearnerID: learnerID, Title: title, TargetType: targetType, IsActive: true}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/programs", map[string]any{
		"learnerId":  3,
		"title":      "Manding",
		"targetType": "Skill",
	}, 7)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Leo M", decodeBody(t, rec)["learner_name"])
}
