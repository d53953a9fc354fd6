package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menprac-cloud/menPrac-backend/store"
)

func TestCreateLearner(t *testing.T) {
	env := newTestEnv(t)
	env.store.createLearner = func(ctx context.Context, clinicianID int64, firstName, lastName string, dob time.Time) (*store.Learner, error) {
		assert.Equal(t, int64(7), clinicianID)
		assert.Equal(t, 2019, dob.Year())
		return &store.Learner{ID: 3, FirstName: firstName, LastName: lastName, DOB: dob, Status: "Active"}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/learners", map[string]string{
		"firstName": "Leo",
		"lastName":  "M",
		"dob":       "2019-04-12",
	}, 7)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateLearnerRejectsBadDOB(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/learners", map[string]string{
		"firstName": "Leo",
		"lastName":  "M",
		"dob":       "12/04/2019",
	}, 7)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLearnerProfileNotOwnedIs404(t *testing.T) {
	env := newTestEnv(t)
	env.store.learnerOwnedBy = func(ctx context.Context, learnerID, clinicianID int64) (string, error) {
		return "", store.ErrNotFound
	}

	rec := env.do(t, http.MethodGet, "/api/learners/3", nil, 7)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLearnerProfileAggregates(t *testing.T) {
	env := newTestEnv(t)
	env.store.learnerOwnedBy = func(ctx context.Context, learnerID, clinicianID int64) (string, error) {
		return "Leo M", nil
	}
	env.store.learnerByID = func(ctx context.Context, learnerID int64) (*store.Learner, error) {
		return &store.Learner{ID: learnerID, FirstName: "Leo", LastName: "M", Status: "Active"}, nil
	}
	env.store.sessionNotes = func(ctx context.Context, learnerID int64) ([]store.SessionNote, error) {
		return []store.SessionNote{{ID: 1, Date: "Feb 22, 2026 - 02:15PM", Note: "The client did well."}}, nil
	}
	env.store.trialTotals = func(ctx context.Context, learnerID int64) ([]store.TrialTotal, error) {
		return []store.TrialTotal{
			{Date: "Feb 21", Program: "Manding", Total: 12},
			{Date: "Feb 21", Program: "Tantrum", Total: 2},
			{Date: "Feb 22", Program: "Manding", Total: 15},
		}, nil
	}

	rec := env.do(t, http.MethodGet, "/api/learners/3", nil, 7)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	graph, ok := body["graphData"].([]any)
	require.True(t, ok)
	require.Len(t, graph, 2)

	first := graph[0].(map[string]any)
	assert.Equal(t, "Feb 21", first["date"])
	assert.Equal(t, float64(12), first["Manding"])
	assert.Equal(t, float64(2), first["Tantrum"])
}

func TestBuildGraphDataPivot(t *testing.T) {
	points := buildGraphData([]store.TrialTotal{
		{Date: "Mar 01", Program: "Matching", Total: 8},
		{Date: "Mar 02", Program: "Matching", Total: 10},
		{Date: "Mar 02", Program: "Manding", Total: 4},
	})

	require.Len(t, points, 2)
	assert.Equal(t, "Mar 01", points[0]["date"])
	assert.Equal(t, float64(8), points[0]["Matching"])
	assert.Equal(t, float64(10), points[1]["Matching"])
	assert.Equal(t, float64(4), points[1]["Manding"])
}

func TestBuildGraphDataEmpty(t *testing.T) {
	// An empty series must serialize as [] for the charting frontend.
	assert.NotNil(t, buildGraphData(nil))
	assert.Empty(t, buildGraphData(nil))
}
