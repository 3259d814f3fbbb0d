package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the
// SessionStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// sessionColumns is the column list shared by every query that loads a full
// session row. Scan order in scanSession must match.
const sessionColumns = `
	id, user_id, simulation_id, state, start_time, end_time,
	snapshots, interaction_count, total_duration,
	final_results, final_parameters, device_info,
	created_at, updated_at`

// Create implements store.SessionStore.Create
// It saves a new session to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key
// violation). The partial unique index on active sessions surfaces as
// store.ErrDuplicate if an active session already exists for the same
// (user, simulation) pair.
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	snapshots := session.Snapshots
	if snapshots == nil {
		snapshots = []domain.Snapshot{}
	}
	snapshotsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return store.NewStoreError("session", "create", "failed to marshal snapshots", err)
	}

	query := `
		INSERT INTO sessions (id, user_id, simulation_id, state, start_time,
			snapshots, interaction_count, total_duration, device_info,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9::jsonb, $10, $11)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.SimulationID,
		session.State,
		session.StartTime,
		string(snapshotsJSON),
		session.InteractionCount,
		session.TotalDuration,
		nullableJSON(session.DeviceInfo),
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()),
			slog.String("user_id", session.UserID.String()))
		return MapError(err)
	}

	log.Info("session created",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.String("simulation_id", string(session.SimulationID)))
	return nil
}

// AbandonActive implements store.SessionStore.AbandonActive
// It force-ends any active session for the given (user, simulation) pair in a
// single conditional UPDATE. Abandoned sessions keep a zero total duration.
func (s *PostgresSessionStore) AbandonActive(
	ctx context.Context,
	userID uuid.UUID,
	simulationID domain.SimulationID,
	endTime time.Time,
) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE sessions
		SET state = $1, end_time = $2, updated_at = $2
		WHERE user_id = $3 AND simulation_id = $4 AND state = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.SessionStateEnded,
		endTime.UTC(),
		userID,
		simulationID,
		domain.SessionStateActive,
	)
	if err != nil {
		log.Error("failed to abandon active session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("simulation_id", string(simulationID)))
		return 0, MapError(err)
	}

	abandoned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if abandoned > 0 {
		log.Info("abandoned superseded session",
			slog.String("user_id", userID.String()),
			slog.String("simulation_id", string(simulationID)),
			slog.Int64("count", abandoned))
	}
	return abandoned, nil
}

// AppendSnapshot implements store.SessionStore.AppendSnapshot
// The append and the interaction count increment happen in one UPDATE guarded
// by the active-state predicate, so concurrent appends to the same session
// serialize on the row lock and snapshot order matches call order.
// Returns store.ErrSessionNotFound if no active session matches.
func (s *PostgresSessionStore) AppendSnapshot(
	ctx context.Context,
	sessionID, userID uuid.UUID,
	snapshot domain.Snapshot,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return 0, store.NewStoreError("session", "append_snapshot", "failed to marshal snapshot", err)
	}

	query := `
		UPDATE sessions
		SET snapshots = snapshots || $1::jsonb,
		    interaction_count = interaction_count + 1,
		    updated_at = $2
		WHERE id = $3 AND user_id = $4 AND state = $5
		RETURNING interaction_count
	`

	var count int
	err = s.db.QueryRowContext(
		ctx,
		query,
		string(snapshotJSON),
		snapshot.Timestamp,
		sessionID,
		userID,
		domain.SessionStateActive,
	).Scan(&count)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no active session for snapshot append",
				slog.String("session_id", sessionID.String()),
				slog.String("user_id", userID.String()))
			return 0, store.ErrSessionNotFound
		}
		log.Error("failed to append snapshot",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return 0, MapError(err)
	}

	log.Debug("snapshot appended",
		slog.String("session_id", sessionID.String()),
		slog.Int("interaction_count", count))
	return count, nil
}

// End implements store.SessionStore.End
// The state transition is a conditional UPDATE on (id, user_id,
// state=active): ending an already-ended, missing or foreign session all
// surface uniformly as store.ErrSessionNotFound. The total duration is
// computed in SQL from the stored start time so the arithmetic and the
// transition are one atomic statement.
func (s *PostgresSessionStore) End(
	ctx context.Context,
	sessionID, userID uuid.UUID,
	endTime time.Time,
	finalResults, finalParameters json.RawMessage,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE sessions
		SET state = $1,
		    end_time = $2,
		    total_duration = GREATEST(FLOOR(EXTRACT(EPOCH FROM ($2::timestamptz - start_time)))::bigint, 0),
		    final_results = $3::jsonb,
		    final_parameters = $4::jsonb,
		    updated_at = $2
		WHERE id = $5 AND user_id = $6 AND state = $7
		RETURNING ` + sessionColumns

	row := s.db.QueryRowContext(
		ctx,
		query,
		domain.SessionStateEnded,
		endTime.UTC(),
		nullableJSON(finalResults),
		nullableJSON(finalParameters),
		sessionID,
		userID,
		domain.SessionStateActive,
	)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no active session to end",
				slog.String("session_id", sessionID.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to end session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}

	log.Info("session ended",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", session.UserID.String()),
		slog.Int64("total_duration", session.TotalDuration),
		slog.Int("interaction_count", session.InteractionCount))
	return session, nil
}

// GetByID implements store.SessionStore.GetByID
// Returns store.ErrSessionNotFound if the session does not exist or is owned
// by a different user.
func (s *PostgresSessionStore) GetByID(
	ctx context.Context,
	sessionID, userID uuid.UUID,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND user_id = $2`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return nil, MapError(err)
	}

	return session, nil
}

// List implements store.SessionStore.List
// Sessions are returned newest first. An out-of-range page yields an empty
// page with the correct totals rather than an error.
func (s *PostgresSessionStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.SessionFilter,
) (*store.SessionPage, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	countQuery := `SELECT count(*) FROM sessions WHERE user_id = $1`
	listQuery := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.SimulationID != "" {
		countQuery += ` AND simulation_id = $2`
		listQuery += ` AND simulation_id = $2`
		args = append(args, filter.SimulationID)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	offset := (page - 1) * limit
	listQuery += fmt.Sprintf(
		` ORDER BY start_time DESC LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		log.Error("failed to list sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sessions := []*domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}

	return &store.SessionPage{
		Sessions: sessions,
		Page:     page,
		Limit:    limit,
		Total:    total,
		Pages:    pages,
	}, nil
}

// ListEnded implements store.SessionStore.ListEnded
// Snapshot payloads are deliberately not loaded; aggregation only needs the
// scalar columns.
func (s *PostgresSessionStore) ListEnded(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, simulation_id, state, start_time, end_time,
			interaction_count, total_duration, created_at, updated_at
		FROM sessions
		WHERE user_id = $1 AND state = $2
		ORDER BY start_time DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, domain.SessionStateEnded)
	if err != nil {
		log.Error("failed to list ended sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	sessions := []*domain.Session{}
	for rows.Next() {
		var session domain.Session
		var endTime sql.NullTime

		err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.SimulationID,
			&session.State,
			&session.StartTime,
			&endTime,
			&session.InteractionCount,
			&session.TotalDuration,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan session row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		if endTime.Valid {
			t := endTime.Time
			session.EndTime = &t
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return sessions, nil
}

// WithTx implements store.SessionStore.WithTx
// It returns a SessionStore bound to the given transaction, sharing the
// receiver's logger.
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts over *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSession scans one full session row in sessionColumns order.
func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var endTime sql.NullTime
	var snapshotsJSON []byte
	var finalResults, finalParameters, deviceInfo []byte

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.SimulationID,
		&session.State,
		&session.StartTime,
		&endTime,
		&snapshotsJSON,
		&session.InteractionCount,
		&session.TotalDuration,
		&finalResults,
		&finalParameters,
		&deviceInfo,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		t := endTime.Time
		session.EndTime = &t
	}
	if len(snapshotsJSON) > 0 {
		if err := json.Unmarshal(snapshotsJSON, &session.Snapshots); err != nil {
			return nil, store.NewStoreError("session", "scan", "failed to unmarshal snapshots", err)
		}
	}
	session.FinalResults = rawOrNil(finalResults)
	session.FinalParameters = rawOrNil(finalParameters)
	session.DeviceInfo = rawOrNil(deviceInfo)

	return &session, nil
}

// nullableJSON converts an optional raw JSON payload to a driver value,
// mapping the empty payload to SQL NULL.
func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// rawOrNil converts a scanned jsonb column to a RawMessage, keeping NULL as nil.
func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
