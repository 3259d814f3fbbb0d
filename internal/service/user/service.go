// Package user implements profile retrieval and updates.
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/service/auth"
	"github.com/physlab/physlab-api/internal/store"
)

// Service serves user profile reads and writes.
type Service struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	logger    *slog.Logger
}

// NewService creates a user profile service.
// If logger is nil, a default logger will be used.
func NewService(userStore store.UserStore, hasher auth.PasswordHasher, logger *slog.Logger) *Service {
	if userStore == nil {
		panic("userStore cannot be nil")
	}
	if hasher == nil {
		panic("hasher cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		userStore: userStore,
		hasher:    hasher,
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

// Get retrieves a user's profile.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userStore.GetByID(ctx, id)
}

// ProfileUpdate carries the editable profile fields. Nil pointers leave the
// corresponding field unchanged.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// UpdateProfile applies a partial update to the user's profile. A new
// password is validated through the domain rules and hashed before storage.
func (s *Service) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	update ProfileUpdate,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Password != nil {
		user.Password = *update.Password
		if err := user.Validate(); err != nil {
			return nil, err
		}
		hashed, err := s.hasher.Hash(*update.Password)
		if err != nil {
			log.Error("failed to hash password", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.HashedPassword = hashed
		user.Password = ""
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info("profile updated", slog.String("user_id", id.String()))
	return user, nil
}
