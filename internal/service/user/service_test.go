package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserStore keeps users in memory keyed by ID.
type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*fakeUserStore)(nil)

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) RecordLogin(_ context.Context, id uuid.UUID, _ time.Time) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrUserNotFound
	}
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func seedUser(t *testing.T, users *fakeUserStore) *domain.User {
	t.Helper()

	user, err := domain.NewUser("Ada Lovelace", "ada@example.com", "password123")
	require.NoError(t, err)
	user.HashedPassword = "hashed:password123"
	user.Password = ""
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestGet(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users)
	svc := NewService(users, fakeHasher{}, nil)

	t.Run("existing user", func(t *testing.T) {
		t.Parallel()

		user, err := svc.Get(context.Background(), seeded.ID)

		require.NoError(t, err)
		assert.Equal(t, seeded.Email, user.Email)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Get(context.Background(), uuid.New())

		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	strPtr := func(s string) *string { return &s }

	t.Run("partial update leaves other fields unchanged", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		seeded := seedUser(t, users)
		svc := NewService(users, fakeHasher{}, nil)

		updated, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{
			Name: strPtr("Ada King"),
		})

		require.NoError(t, err)
		assert.Equal(t, "Ada King", updated.Name)
		assert.Equal(t, "ada@example.com", updated.Email)
		assert.Equal(t, seeded.HashedPassword, updated.HashedPassword)
	})

	t.Run("password change is validated and hashed", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		seeded := seedUser(t, users)
		svc := NewService(users, fakeHasher{}, nil)

		updated, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{
			Password: strPtr("new-password-456"),
		})

		require.NoError(t, err)
		assert.Equal(t, "hashed:new-password-456", updated.HashedPassword)
		assert.Empty(t, updated.Password)
	})

	t.Run("short password is rejected before storage", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		seeded := seedUser(t, users)
		svc := NewService(users, fakeHasher{}, nil)

		_, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{
			Password: strPtr("short"),
		})

		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
		assert.Equal(t, seeded.HashedPassword, users.users[seeded.ID].HashedPassword)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		seeded := seedUser(t, users)
		svc := NewService(users, fakeHasher{}, nil)

		_, err := svc.UpdateProfile(context.Background(), seeded.ID, ProfileUpdate{
			Email:    strPtr("not-an-email"),
			Password: strPtr("password123"),
		})

		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()

		svc := NewService(newFakeUserStore(), fakeHasher{}, nil)

		_, err := svc.UpdateProfile(context.Background(), uuid.New(), ProfileUpdate{
			Name: strPtr("Nobody"),
		})

		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
