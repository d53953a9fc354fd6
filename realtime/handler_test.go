package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menprac-cloud/menPrac-backend/auth"
	"github.com/menprac-cloud/menPrac-backend/config"
)

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Server: config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-tests",
			CookieName:      "aura_token",
			TokenTTL:        3600,
			TokenQueryParam: "token",
		},
		WebSocket: *testWSConfig(),
	}
}

func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	cfg := testAppConfig()
	reg := NewRegistry(nil, "server-1")
	tokens := auth.NewTokenManager(&cfg.Auth, nil)
	h := NewHandler(reg, NewDispatcher(reg, nil, "events", "server-1"), tokens, cfg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	h.HandleWebSocket(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleWebSocketRejectsInvalidToken(t *testing.T) {
	cfg := testAppConfig()
	reg := NewRegistry(nil, "server-1")
	tokens := auth.NewTokenManager(&cfg.Auth, nil)
	h := NewHandler(reg, NewDispatcher(reg, nil, "events", "server-1"), tokens, cfg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil)
	h.HandleWebSocket(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenFromRequestPrefersCookie(t *testing.T) {
	cfg := testAppConfig()
	h := &Handler{authCfg: &cfg.Auth}

	req := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	req.AddCookie(&http.Cookie{Name: "aura_token", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", h.tokenFromRequest(req))

	bare := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", h.tokenFromRequest(bare))
}

func TestHandleRegisterRefusesOtherUser(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	h := &Handler{registry: reg}

	client, conn := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))

	h.handleRegister(client, json.RawMessage(`99`))

	// No room joined, and the sender was told why.
	assert.Empty(t, reg.MembersOf(RoomForUser(99)))
	assert.Empty(t, reg.MembersOf(RoomForUser(42)))
	events := conn.received()
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Name)
}

func TestHandleRegisterOwnUserJoins(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	h := &Handler{registry: reg}

	client, conn := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))

	h.handleRegister(client, json.RawMessage(`42`))
	h.handleRegister(client, json.RawMessage(`"42"`)) // string form, idempotent re-join

	assert.Len(t, reg.MembersOf(RoomForUser(42)), 1)
	assert.Empty(t, conn.received())
}

func TestParseUserID(t *testing.T) {
	id, err := parseUserID(json.RawMessage(`42`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = parseUserID(json.RawMessage(`"77"`))
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	_, err = parseUserID(json.RawMessage(`"not a number"`))
	assert.Error(t, err)

	_, err = parseUserID(json.RawMessage(`{"user": 1}`))
	assert.Error(t, err)
}
