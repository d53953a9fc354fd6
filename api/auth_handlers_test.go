package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menprac-cloud/menPrac-backend/auth"
	"github.com/menprac-cloud/menPrac-backend/store"
)

func TestRegisterSuccessSetsCookie(t *testing.T) {
	env := newTestEnv(t)
	env.store.createUser = func(ctx context.Context, clinicName, email, passwordHash, role string) (*store.User, error) {
		assert.Equal(t, "Bright Steps ABA", clinicName)
		assert.Equal(t, "owner@brightsteps.com", email)
		assert.True(t, auth.VerifyPassword("a-strong-password", passwordHash))
		return &store.User{ID: 1, ClinicName: clinicName, Email: email, Role: role}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"clinicName": "Bright Steps ABA",
		"email":      "owner@brightsteps.com",
		"password":   "a-strong-password",
	}, 0)

	assert.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "aura_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestRegisterRejectsInvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "a-strong-password",
	}, 0)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "owner@brightsteps.com",
		"password": "short",
	}, 0)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.store.createUser = func(ctx context.Context, clinicName, email, passwordHash, role string) (*store.User, error) {
		return nil, store.ErrDuplicateEmail
	}

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "owner@brightsteps.com",
		"password": "a-strong-password",
	}, 0)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "already exists")
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	hash, err := auth.HashPassword("a-strong-password")
	require.NoError(t, err)
	env.store.userByEmail = func(ctx context.Context, email string) (*store.User, error) {
		return &store.User{ID: 7, Email: email, PasswordHash: hash, Role: "bcba"}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "owner@brightsteps.com",
		"password": "a-strong-password",
	}, 0)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestLoginBadCredentialsAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	hash, err := auth.HashPassword("a-strong-password")
	require.NoError(t, err)

	// Unknown email.
	env.store.userByEmail = func(ctx context.Context, email string) (*store.User, error) {
		return nil, store.ErrNotFound
	}
	unknownEmail := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@brightsteps.com", "password": "a-strong-password",
	}, 0)

	// Known email, wrong password.
	env.store.userByEmail = func(ctx context.Context, email string) (*store.User, error) {
		return &store.User{ID: 7, Email: email, PasswordHash: hash}, nil
	}
	wrongPassword := env.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "owner@brightsteps.com", "password": "wrong-password",
	}, 0)

	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, decodeBody(t, unknownEmail)["error"], decodeBody(t, wrongPassword)["error"])
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, 7)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLogoutRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/logout", nil, 0)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
