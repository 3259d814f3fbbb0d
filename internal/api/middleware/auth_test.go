package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/config"
	"github.com/physlab/physlab-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(t *testing.T) auth.JWTService {
	t.Helper()

	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "this-is-a-test-secret-of-32-chars!!",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 10080,
	})
	require.NoError(t, err)
	return svc
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	jwtService := newTestJWTService(t)
	userID := uuid.New()

	var capturedUserID uuid.UUID
	var handlerCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserID, _ = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})

	middleware := NewAuthMiddleware(jwtService).Authenticate(next)

	serve := func(authHeader string) *httptest.ResponseRecorder {
		handlerCalled = false
		capturedUserID = uuid.Nil

		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		middleware.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := jwtService.GenerateToken(context.Background(), userID)
		require.NoError(t, err)

		rec := serve("Bearer " + token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, handlerCalled)
		assert.Equal(t, userID, capturedUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := serve("")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, handlerCalled)
		assert.Contains(t, rec.Body.String(), "Authorization header required")
	})

	t.Run("malformed header", func(t *testing.T) {
		rec := serve("Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid authorization format")
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := serve("Bearer not.a.token")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid token")
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		refresh, err := jwtService.GenerateRefreshToken(context.Background(), userID)
		require.NoError(t, err)

		rec := serve("Bearer " + refresh)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, handlerCalled)
	})
}
