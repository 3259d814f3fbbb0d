package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
)

// ProgressFilter narrows and bounds progress listings.
// A zero Limit means no limit; callers listing for display should cap it.
type ProgressFilter struct {
	SimulationID domain.SimulationID // empty means all simulations
	Limit        int
}

// ProgressStore defines the interface for progress entry persistence.
// Entries are immutable once saved; the only mutation is deletion by owner.
type ProgressStore interface {
	// Create persists a new progress entry. The entry must be valid according
	// to domain validation rules. Returns ErrUserNotFound if the owning user
	// does not exist.
	Create(ctx context.Context, progress *domain.Progress) error

	// ListByUser returns the user's progress entries, most recently completed
	// first, optionally filtered by simulation and bounded by Limit.
	ListByUser(ctx context.Context, userID uuid.UUID, filter ProgressFilter) ([]*domain.Progress, error)

	// Delete removes a progress entry, scoped to its owner.
	// Returns ErrProgressNotFound if it does not exist or is not owned by userID.
	Delete(ctx context.Context, progressID, userID uuid.UUID) error
}
