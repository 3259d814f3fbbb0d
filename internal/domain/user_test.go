package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("creates active student", func(t *testing.T) {
		t.Parallel()

		user, err := NewUser("Ada Lovelace", "ada@example.com", "password123")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "Ada Lovelace", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, RoleStudent, user.Role)
		assert.True(t, user.IsActive)
		assert.Zero(t, user.LoginCount)
		assert.Nil(t, user.LastLogin)
	})

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "empty name",
			userName: "",
			email:    "ada@example.com",
			password: "password123",
			wantErr:  ErrEmptyName,
		},
		{
			name:     "empty email",
			userName: "Ada",
			email:    "",
			password: "password123",
			wantErr:  ErrEmptyEmail,
		},
		{
			name:     "email without at sign",
			userName: "Ada",
			email:    "ada.example.com",
			password: "password123",
			wantErr:  ErrInvalidEmail,
		},
		{
			name:     "password too short",
			userName: "Ada",
			email:    "ada@example.com",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "password too long",
			userName: "Ada",
			email:    "ada@example.com",
			password: strings.Repeat("x", 73),
			wantErr:  ErrPasswordTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewUser(tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserValidate(t *testing.T) {
	t.Parallel()

	t.Run("stored user needs only a hash", func(t *testing.T) {
		t.Parallel()

		user := &User{
			ID:             uuid.New(),
			Name:           "Ada",
			Email:          "ada@example.com",
			HashedPassword: "$2a$10$notarealhashbutlongenough",
			Role:           RoleStudent,
		}

		assert.NoError(t, user.Validate())
	})

	t.Run("rejects missing password and hash", func(t *testing.T) {
		t.Parallel()

		user := &User{
			ID:    uuid.New(),
			Name:  "Ada",
			Email: "ada@example.com",
			Role:  RoleStudent,
		}

		assert.ErrorIs(t, user.Validate(), ErrEmptyPassword)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		t.Parallel()

		user := &User{
			ID:             uuid.New(),
			Name:           "Ada",
			Email:          "ada@example.com",
			HashedPassword: "hash",
			Role:           "superuser",
		}

		assert.ErrorIs(t, user.Validate(), ErrInvalidRole)
	})
}
