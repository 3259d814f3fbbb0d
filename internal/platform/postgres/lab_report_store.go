package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// PostgresLabReportStore implements the store.LabReportStore interface
// using a PostgreSQL database as the storage backend.
type PostgresLabReportStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLabReportStore creates a new PostgreSQL implementation of the
// LabReportStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresLabReportStore(db store.DBTX, logger *slog.Logger) *PostgresLabReportStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLabReportStore{
		db:     db,
		logger: logger.With(slog.String("component", "lab_report_store")),
	}
}

// Ensure PostgresLabReportStore implements store.LabReportStore interface
var _ store.LabReportStore = (*PostgresLabReportStore)(nil)

const labReportColumns = `
	id, user_id, simulation_id, title, objective, hypothesis, methodology,
	experiments, conclusion, status, created_at, updated_at`

// Create implements store.LabReportStore.Create
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key
// violation).
func (s *PostgresLabReportStore) Create(ctx context.Context, report *domain.LabReport) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := report.Validate(); err != nil {
		log.Warn("lab report validation failed during create",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()))
		return err
	}

	experimentsJSON, err := marshalExperiments(report.Experiments)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO lab_reports (id, user_id, simulation_id, title, objective,
			hypothesis, methodology, experiments, conclusion, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		report.ID,
		report.UserID,
		report.SimulationID,
		report.Title,
		report.Objective,
		report.Hypothesis,
		report.Methodology,
		experimentsJSON,
		report.Conclusion,
		report.Status,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create lab report",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()),
			slog.String("user_id", report.UserID.String()))
		return MapError(err)
	}

	log.Info("lab report created",
		slog.String("report_id", report.ID.String()),
		slog.String("user_id", report.UserID.String()),
		slog.String("simulation_id", string(report.SimulationID)))
	return nil
}

// GetByID implements store.LabReportStore.GetByID
// Returns store.ErrReportNotFound if the report does not exist or is owned by
// a different user.
func (s *PostgresLabReportStore) GetByID(
	ctx context.Context,
	reportID, userID uuid.UUID,
) (*domain.LabReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + labReportColumns + ` FROM lab_reports WHERE id = $1 AND user_id = $2`

	report, err := scanLabReport(s.db.QueryRowContext(ctx, query, reportID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReportNotFound
		}
		log.Error("failed to get lab report",
			slog.String("error", err.Error()),
			slog.String("report_id", reportID.String()))
		return nil, MapError(err)
	}

	return report, nil
}

// ListByUser implements store.LabReportStore.ListByUser
// Returns the user's reports, newest first.
func (s *PostgresLabReportStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LabReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + labReportColumns + `
		FROM lab_reports
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list lab reports",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	reports := []*domain.LabReport{}
	for rows.Next() {
		report, err := scanLabReport(rows)
		if err != nil {
			return nil, MapError(err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return reports, nil
}

// Update implements store.LabReportStore.Update
// The WHERE clause is scoped to the report's owner, so updating another
// user's report surfaces as store.ErrReportNotFound.
func (s *PostgresLabReportStore) Update(ctx context.Context, report *domain.LabReport) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := report.Validate(); err != nil {
		log.Warn("lab report validation failed during update",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()))
		return err
	}

	experimentsJSON, err := marshalExperiments(report.Experiments)
	if err != nil {
		return err
	}

	report.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE lab_reports
		SET title = $1, objective = $2, hypothesis = $3, methodology = $4,
			experiments = $5::jsonb, conclusion = $6, status = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		report.Title,
		report.Objective,
		report.Hypothesis,
		report.Methodology,
		experimentsJSON,
		report.Conclusion,
		report.Status,
		report.UpdatedAt,
		report.ID,
		report.UserID,
	)
	if err != nil {
		log.Error("failed to update lab report",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "lab report"); err != nil {
		return store.ErrReportNotFound
	}

	log.Info("lab report updated",
		slog.String("report_id", report.ID.String()),
		slog.String("status", string(report.Status)))
	return nil
}

// marshalExperiments encodes the experiments slice for the jsonb column,
// defaulting nil to an empty array.
func marshalExperiments(experiments []domain.Experiment) (string, error) {
	if experiments == nil {
		experiments = []domain.Experiment{}
	}
	b, err := json.Marshal(experiments)
	if err != nil {
		return "", store.NewStoreError("lab_report", "marshal", "failed to marshal experiments", err)
	}
	return string(b), nil
}

// scanLabReport scans one report row in labReportColumns order.
func scanLabReport(row rowScanner) (*domain.LabReport, error) {
	var report domain.LabReport
	var experimentsJSON []byte

	err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.SimulationID,
		&report.Title,
		&report.Objective,
		&report.Hypothesis,
		&report.Methodology,
		&experimentsJSON,
		&report.Conclusion,
		&report.Status,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(experimentsJSON) > 0 {
		if err := json.Unmarshal(experimentsJSON, &report.Experiments); err != nil {
			return nil, store.NewStoreError("lab_report", "scan", "failed to unmarshal experiments", err)
		}
	}

	return &report, nil
}
