package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

const progressColumns = `
	id, user_id, simulation_id, simulation_name, completed_at, time_spent,
	parameters, results, score, created_at, updated_at`

// Create implements store.ProgressStore.Create
// Returns store.ErrUserNotFound if the owning user does not exist.
func (s *PostgresProgressStore) Create(ctx context.Context, progress *domain.Progress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during create",
			slog.String("error", err.Error()),
			slog.String("progress_id", progress.ID.String()))
		return err
	}

	query := `
		INSERT INTO progress (id, user_id, simulation_id, simulation_name,
			completed_at, time_spent, parameters, results, score,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.ID,
		progress.UserID,
		progress.SimulationID,
		progress.SimulationName,
		progress.CompletedAt,
		progress.TimeSpent,
		nullableJSON(progress.Parameters),
		nullableJSON(progress.Results),
		progress.Score,
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create progress entry",
			slog.String("error", err.Error()),
			slog.String("progress_id", progress.ID.String()),
			slog.String("user_id", progress.UserID.String()))
		if IsForeignKeyViolation(err) {
			return store.ErrUserNotFound
		}
		return MapError(err)
	}

	log.Info("progress entry created",
		slog.String("progress_id", progress.ID.String()),
		slog.String("user_id", progress.UserID.String()),
		slog.String("simulation_id", string(progress.SimulationID)),
		slog.Int("score", progress.Score))
	return nil
}

// ListByUser implements store.ProgressStore.ListByUser
// Entries are returned most recently completed first.
func (s *PostgresProgressStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.ProgressFilter,
) ([]*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + progressColumns + `
		FROM progress
		WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.SimulationID != "" {
		query += ` AND simulation_id = $2`
		args = append(args, filter.SimulationID)
	}
	query += ` ORDER BY completed_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list progress entries",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.Progress{}
	for rows.Next() {
		var entry domain.Progress
		var parameters, results []byte

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.SimulationID,
			&entry.SimulationName,
			&entry.CompletedAt,
			&entry.TimeSpent,
			&parameters,
			&results,
			&entry.Score,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan progress row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		entry.Parameters = rawOrNil(parameters)
		entry.Results = rawOrNil(results)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return entries, nil
}

// Delete implements store.ProgressStore.Delete
// The WHERE clause is scoped to the entry's owner, so deleting another user's
// entry surfaces as store.ErrProgressNotFound.
func (s *PostgresProgressStore) Delete(ctx context.Context, progressID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM progress WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, progressID, userID)
	if err != nil {
		log.Error("failed to delete progress entry",
			slog.String("error", err.Error()),
			slog.String("progress_id", progressID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "progress entry"); err != nil {
		return store.ErrProgressNotFound
	}

	log.Info("progress entry deleted",
		slog.String("progress_id", progressID.String()),
		slog.String("user_id", userID.String()))
	return nil
}
