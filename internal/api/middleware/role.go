package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/redact"
	"github.com/physlab/physlab-api/internal/store"
)

// RoleMiddleware gates routes on the authenticated user's role. It must run
// after Authenticate, which places the user ID in the context.
type RoleMiddleware struct {
	userStore store.UserStore
}

// NewRoleMiddleware creates a new RoleMiddleware with the given dependencies.
func NewRoleMiddleware(userStore store.UserStore) *RoleMiddleware {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	return &RoleMiddleware{
		userStore: userStore,
	}
}

// RequireRole rejects requests whose authenticated user does not hold the
// given role. The loaded role is placed in the context for handlers.
func (m *RoleMiddleware) RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
			if !ok || userID == uuid.Nil {
				shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
				return
			}

			user, err := m.userStore.GetByID(r.Context(), userID)
			if err != nil {
				slog.Error("failed to load user for role check",
					"error", redact.Error(err),
					"user_id", userID)
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authorization error")
				return
			}

			if user.Role != role {
				shared.RespondWithError(w, r, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), shared.UserRoleContextKey, user.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
