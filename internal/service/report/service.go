// Package report implements the lab report workflow: drafting a report from
// an ended session, listing, retrieval and edits through the review statuses.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/generation"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// ErrSessionStillActive is returned when a draft is requested for a session
// that has not ended yet.
var ErrSessionStillActive = errors.New("session is still active")

// Service orchestrates lab report creation and edits.
type Service struct {
	reportStore  store.LabReportStore
	sessionStore store.SessionStore
	generator    generation.Generator
	logger       *slog.Logger
}

// NewService creates a lab report service.
// If logger is nil, a default logger will be used.
func NewService(
	reportStore store.LabReportStore,
	sessionStore store.SessionStore,
	generator generation.Generator,
	logger *slog.Logger,
) *Service {
	if reportStore == nil {
		panic("reportStore cannot be nil")
	}
	if sessionStore == nil {
		panic("sessionStore cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		reportStore:  reportStore,
		sessionStore: sessionStore,
		generator:    generator,
		logger:       logger.With(slog.String("component", "report_service")),
	}
}

// CreateFromSession drafts a report from one of the user's ended sessions and
// persists it with draft status. The session's final parameters and results
// become the report's first experiment entry.
func (s *Service) CreateFromSession(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	title string,
) (*domain.LabReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.sessionStore.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsActive() {
		return nil, ErrSessionStillActive
	}

	sim, err := domain.CatalogLookup(session.SimulationID)
	if err != nil {
		return nil, err
	}

	draft, err := s.generator.GenerateDraft(ctx, generation.DraftRequest{
		Session:    session,
		Simulation: *sim,
		Title:      title,
	})
	if err != nil {
		// Fall back to the deterministic template when the backend fails;
		// report creation should not depend on LLM availability.
		log.Warn("draft generation failed, falling back to template",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		draft, err = generation.NewTemplateGenerator().GenerateDraft(ctx, generation.DraftRequest{
			Session:    session,
			Simulation: *sim,
			Title:      title,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate draft: %w", err)
		}
	}

	report, err := domain.NewLabReport(userID, session.SimulationID, draft.Title, draft.Objective)
	if err != nil {
		return nil, err
	}
	report.Hypothesis = draft.Hypothesis
	report.Methodology = draft.Methodology
	report.Conclusion = draft.Conclusion
	report.Experiments = []domain.Experiment{sessionExperiment(session, sim)}

	if err := s.reportStore.Create(ctx, report); err != nil {
		return nil, err
	}

	log.Info("lab report drafted",
		slog.String("report_id", report.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID.String()))
	return report, nil
}

// Get retrieves a report by ID, scoped to its owner.
func (s *Service) Get(ctx context.Context, reportID, userID uuid.UUID) (*domain.LabReport, error) {
	return s.reportStore.GetByID(ctx, reportID, userID)
}

// List returns the user's reports, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*domain.LabReport, error) {
	return s.reportStore.ListByUser(ctx, userID)
}

// Update applies edits to an existing report owned by the user.
func (s *Service) Update(ctx context.Context, report *domain.LabReport) (*domain.LabReport, error) {
	if err := s.reportStore.Update(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// sessionExperiment summarizes an ended session as an experiment entry.
func sessionExperiment(session *domain.Session, sim *domain.Simulation) domain.Experiment {
	timestamp := session.StartTime
	if session.EndTime != nil {
		timestamp = *session.EndTime
	}
	return domain.Experiment{
		Name:       fmt.Sprintf("%s run", sim.Name),
		Parameters: session.FinalParameters,
		Results:    session.FinalResults,
		Observations: fmt.Sprintf("%d interactions over %d seconds",
			session.InteractionCount, session.TotalDuration),
		Timestamp: timestamp,
	}
}
