package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// PostgresAchievementStore implements the store.AchievementStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAchievementStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAchievementStore creates a new PostgreSQL implementation of the
// AchievementStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAchievementStore(db store.DBTX, logger *slog.Logger) *PostgresAchievementStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAchievementStore{
		db:     db,
		logger: logger.With(slog.String("component", "achievement_store")),
	}
}

// Ensure PostgresAchievementStore implements store.AchievementStore interface
var _ store.AchievementStore = (*PostgresAchievementStore)(nil)

// Insert implements store.AchievementStore.Insert
// The UNIQUE (user_id, type) constraint plus ON CONFLICT DO NOTHING makes the
// award at-most-once under concurrency: exactly one of any set of racing
// inserts creates the record, the rest return created=false with a nil error.
func (s *PostgresAchievementStore) Insert(
	ctx context.Context,
	achievement *domain.Achievement,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := achievement.Validate(); err != nil {
		log.Warn("achievement validation failed during insert",
			slog.String("error", err.Error()),
			slog.String("user_id", achievement.UserID.String()),
			slog.String("type", string(achievement.Type)))
		return false, err
	}

	query := `
		INSERT INTO achievements (id, user_id, type, title, description, icon,
			points, rarity, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, type) DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		achievement.ID,
		achievement.UserID,
		achievement.Type,
		achievement.Title,
		achievement.Description,
		achievement.Icon,
		achievement.Points,
		achievement.Rarity,
		achievement.UnlockedAt,
	)
	if err != nil {
		log.Error("failed to insert achievement",
			slog.String("error", err.Error()),
			slog.String("user_id", achievement.UserID.String()),
			slog.String("type", string(achievement.Type)))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, MapError(err)
	}

	if rowsAffected == 0 {
		log.Debug("achievement already held, insert skipped",
			slog.String("user_id", achievement.UserID.String()),
			slog.String("type", string(achievement.Type)))
		return false, nil
	}

	log.Info("achievement unlocked",
		slog.String("user_id", achievement.UserID.String()),
		slog.String("type", string(achievement.Type)),
		slog.Int("points", achievement.Points))
	return true, nil
}

// ListByUser implements store.AchievementStore.ListByUser
// Returns the user's achievements ordered by unlock time, newest first.
func (s *PostgresAchievementStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Achievement, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, type, title, description, icon, points, rarity, unlocked_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY unlocked_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list achievements",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	return scanAchievements(rows)
}

// ListTypes implements store.AchievementStore.ListTypes
// Returns the set of achievement types the user already holds, used by the
// rule engine to skip predicates for earned badges.
func (s *PostgresAchievementStore) ListTypes(
	ctx context.Context,
	userID uuid.UUID,
) (map[domain.AchievementType]bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT type FROM achievements WHERE user_id = $1`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list achievement types",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	types := make(map[domain.AchievementType]bool)
	for rows.Next() {
		var t domain.AchievementType
		if err := rows.Scan(&t); err != nil {
			return nil, MapError(err)
		}
		types[t] = true
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return types, nil
}

// ListAll implements store.AchievementStore.ListAll
// Returns every unlock record across all users for leaderboard ranking.
func (s *PostgresAchievementStore) ListAll(ctx context.Context) ([]*domain.Achievement, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, type, title, description, icon, points, rarity, unlocked_at
		FROM achievements
		ORDER BY unlocked_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list all achievements",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	return scanAchievements(rows)
}

// scanAchievements drains rows into achievement records.
func scanAchievements(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]*domain.Achievement, error) {
	achievements := []*domain.Achievement{}
	for rows.Next() {
		var a domain.Achievement
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Type,
			&a.Title,
			&a.Description,
			&a.Icon,
			&a.Points,
			&a.Rarity,
			&a.UnlockedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		achievements = append(achievements, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return achievements, nil
}
