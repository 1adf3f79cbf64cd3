package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/handlers"
	"github.com/iudanet/gophblog/internal/server/jwt"
	"github.com/iudanet/gophblog/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJWT(t *testing.T, accessTTL time.Duration) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewService(jwt.Config{
		AccessSecret:    []byte("access-secret"),
		RefreshSecret:   []byte("refresh-secret"),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

var testPayload = models.TokenPayload{Sub: "user123", Role: models.RoleUser, SessionID: "session123"}

// payloadHandler проверяет payload в контексте
func payloadHandler(t *testing.T, want models.TokenPayload) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := handlers.GetPayload(r.Context())
		require.True(t, ok, "payload should be in context")
		assert.Equal(t, want, *payload)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	tokens := newTestJWT(t, time.Minute)
	token, _, err := tokens.GenerateAccessToken(testPayload)
	require.NoError(t, err)

	handler := AuthMiddleware(setupTestLogger(), tokens)(payloadHandler(t, testPayload))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tokens := newTestJWT(t, time.Minute)

	refresh, _, err := tokens.GenerateRefreshToken(testPayload)
	require.NoError(t, err)

	otherSecret, err := jwt.NewService(jwt.Config{
		AccessSecret:    []byte("other-access"),
		RefreshSecret:   []byte("other-refresh"),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	require.NoError(t, err)
	foreign, _, err := otherSecret.GenerateAccessToken(testPayload)
	require.NoError(t, err)

	expiredService := newTestJWT(t, time.Nanosecond)
	expired, _, err := expiredService.GenerateAccessToken(testPayload)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	tests := []struct {
		name      string
		header    string
		wantError string
	}{
		{name: "missing header", header: "", wantError: "unauthorized: missing token"},
		{name: "wrong scheme", header: "Basic abc", wantError: "unauthorized: missing token"},
		{name: "garbage token", header: "Bearer not.a.jwt", wantError: "unauthorized: invalid token"},
		{name: "refresh token as access", header: "Bearer " + refresh, wantError: "unauthorized: invalid token"},
		{name: "wrong secret", header: "Bearer " + foreign, wantError: "unauthorized: invalid token"},
		{name: "expired", header: "Bearer " + expired, wantError: "unauthorized: invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := AuthMiddleware(setupTestLogger(), tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantError, resp.Error)
		})
	}
}

func TestRequireRole(t *testing.T) {
	admin := models.TokenPayload{Sub: "admin1", Role: models.RoleAdmin, SessionID: "s1"}

	tests := []struct {
		name       string
		payload    *models.TokenPayload
		wantStatus int
	}{
		{name: "admin allowed", payload: &admin, wantStatus: http.StatusOK},
		{name: "user forbidden", payload: &testPayload, wantStatus: http.StatusForbidden},
		{name: "unauthenticated", payload: nil, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(setupTestLogger(), models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/sessions/purge", nil)
			if tt.payload != nil {
				req = req.WithContext(handlers.WithPayload(req.Context(), tt.payload))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
