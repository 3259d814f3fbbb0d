package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
)

// LabReportStore defines the interface for lab report persistence.
type LabReportStore interface {
	// Create saves a new lab report.
	Create(ctx context.Context, report *domain.LabReport) error

	// GetByID retrieves a report by ID, scoped to its owner.
	// Returns ErrReportNotFound if it does not exist or is not owned by userID.
	GetByID(ctx context.Context, reportID, userID uuid.UUID) (*domain.LabReport, error)

	// ListByUser returns the user's reports, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LabReport, error)

	// Update saves changes to an existing report.
	// Returns ErrReportNotFound if it does not exist or is not owned by the
	// report's user.
	Update(ctx context.Context, report *domain.LabReport) error
}
