package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"israel4u/backend/internal/chathub"
	"israel4u/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// watchRegistrations fails the test if anything reaches the hub's
// register channel before the test ends.
func watchRegistrations(t *testing.T, hub *chathub.ManagerService) {
	t.Helper()

	registered := make(chan chathub.Client, 1)
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	go func() {
		select {
		case client := <-hub.RegisterCh:
			registered <- client
		case <-done:
		}
	}()

	t.Cleanup(func() {
		select {
		case client := <-registered:
			t.Errorf("connection %s registered on a rejected handshake", client.GetID())
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestServeWebSocket_MissingToken(t *testing.T) {
	env := newTestEnv(t)
	watchRegistrations(t, env.hub)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeWebSocket_GarbageToken(t *testing.T) {
	env := newTestEnv(t)
	watchRegistrations(t, env.hub)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeWebSocket_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	watchRegistrations(t, env.hub)

	token, err := env.auth.GenerateToken("ghost")
	require.NoError(t, err)
	env.users.On("UserByID", "ghost").Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeWebSocket_BearerHeaderFallback(t *testing.T) {
	env := newTestEnv(t)
	watchRegistrations(t, env.hub)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServeWebSocket_NonUpgradeRequest(t *testing.T) {
	env := newTestEnv(t)
	watchRegistrations(t, env.hub)

	token, err := env.auth.GenerateToken("user_a")
	require.NoError(t, err)
	env.users.On("UserByID", "user_a").Return(&models.User{ID: "user_a", FullName: "Alice"}, nil)

	// A plain GET without the websocket handshake headers fails the
	// upgrade; the upgrader writes the error response itself.
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "Failed to upgrade")
}
