package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
)

// AchievementStore defines the interface for achievement persistence.
//
// The backing storage must enforce a uniqueness constraint on
// (userID, type): two concurrent session completions for the same user can
// race to award the same rule, and the at-most-once guarantee lives below
// the application layer.
type AchievementStore interface {
	// Insert persists an unlock record. If the user already holds an
	// achievement of the same type, the insert is a no-op: Insert returns
	// created=false and a nil error. This maps a unique-constraint violation
	// to "already awarded", never to an error for the caller.
	Insert(ctx context.Context, achievement *domain.Achievement) (created bool, err error)

	// ListByUser returns the user's unlocked achievements, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Achievement, error)

	// ListTypes returns the set of achievement types the user has unlocked.
	ListTypes(ctx context.Context, userID uuid.UUID) (map[domain.AchievementType]bool, error)

	// ListAll returns every unlock record across all users, for leaderboard
	// ranking.
	ListAll(ctx context.Context) ([]*domain.Achievement, error)
}
