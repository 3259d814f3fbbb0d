package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/api/shared"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/store"
	"github.com/stretchr/testify/assert"
)

// fakeUserStore serves a fixed set of users for role checks.
type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*fakeUserStore)(nil)

func (f *fakeUserStore) Create(context.Context, *domain.User) error { panic("not implemented") }

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByEmail(context.Context, string) (*domain.User, error) {
	panic("not implemented")
}

func (f *fakeUserStore) Update(context.Context, *domain.User) error { panic("not implemented") }

func (f *fakeUserStore) RecordLogin(context.Context, uuid.UUID, time.Time) error {
	panic("not implemented")
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
	student := &domain.User{ID: uuid.New(), Role: domain.RoleStudent}
	users := &fakeUserStore{users: map[uuid.UUID]*domain.User{
		admin.ID:   admin,
		student.ID: student,
	}}

	var handlerCalled bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})
	middleware := NewRoleMiddleware(users).RequireRole(domain.RoleAdmin)(next)

	serve := func(userID uuid.UUID) *httptest.ResponseRecorder {
		handlerCalled = false

		req := httptest.NewRequest(http.MethodPost, "/api/achievements/award", nil)
		if userID != uuid.Nil {
			ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
			req = req.WithContext(ctx)
		}
		rec := httptest.NewRecorder()
		middleware.ServeHTTP(rec, req)
		return rec
	}

	t.Run("admin passes", func(t *testing.T) {
		rec := serve(admin.ID)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, handlerCalled)
	})

	t.Run("student is forbidden", func(t *testing.T) {
		rec := serve(student.ID)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, handlerCalled)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		rec := serve(uuid.Nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, handlerCalled)
	})

	t.Run("unknown user fails closed", func(t *testing.T) {
		rec := serve(uuid.New())

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, handlerCalled)
	})
}
