package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. The user's password must already
	// be hashed. Returns ErrEmailExists if the email is already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update saves changes to an existing user's profile fields.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// RecordLogin stamps the user's last login time and increments their
	// login count. Returns ErrUserNotFound if the user does not exist.
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
