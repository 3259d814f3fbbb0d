// Package session implements the simulation session lifecycle: start,
// snapshot recording and end, including the forced abandonment of a
// superseded session and the synchronous achievement evaluation that follows
// a normal end.
package session

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

// Evaluator runs achievement rules after a session ends.
type Evaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, session *domain.Session) ([]*domain.Achievement, error)
}

// Manager orchestrates the session lifecycle state machine: a session is
// created Active and transitions to Ended exactly once, either through End or
// through abandonment when a new session for the same (user, simulation)
// starts.
type Manager struct {
	db           *sql.DB
	sessionStore store.SessionStore
	evaluator    Evaluator
	logger       *slog.Logger
	now          func() time.Time
}

// NewManager creates a session manager.
// If logger is nil, a default logger will be used.
func NewManager(
	db *sql.DB,
	sessionStore store.SessionStore,
	evaluator Evaluator,
	logger *slog.Logger,
) *Manager {
	if db == nil {
		panic("db cannot be nil")
	}
	if sessionStore == nil {
		panic("sessionStore cannot be nil")
	}
	if evaluator == nil {
		panic("evaluator cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		db:           db,
		sessionStore: sessionStore,
		evaluator:    evaluator,
		logger:       logger.With(slog.String("component", "session_manager")),
		now:          time.Now,
	}
}

// WithTimeFunc overrides the manager's clock. Used by tests.
func (m *Manager) WithTimeFunc(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Start creates a new Active session for the user and simulation. Any prior
// Active session for the same pair is abandoned in the same transaction, so
// at most one Active session per (user, simulation) exists at any point.
// Abandoned sessions skip achievement evaluation.
func (m *Manager) Start(
	ctx context.Context,
	userID uuid.UUID,
	simulationID domain.SimulationID,
	deviceInfo json.RawMessage,
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	if !simulationID.Valid() {
		return nil, domain.ErrUnknownSimulation
	}

	session, err := domain.NewSession(userID, simulationID, deviceInfo, m.now())
	if err != nil {
		return nil, err
	}

	attempt := func() error {
		return store.RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
			txStore := m.sessionStore.WithTx(tx)

			abandoned, err := txStore.AbandonActive(ctx, userID, simulationID, session.StartTime)
			if err != nil {
				return fmt.Errorf("failed to abandon prior session: %w", err)
			}
			if abandoned > 0 {
				log.Info("superseded prior active session",
					slog.String("user_id", userID.String()),
					slog.String("simulation_id", string(simulationID)))
			}

			if err := txStore.Create(ctx, session); err != nil {
				return fmt.Errorf("failed to create session: %w", err)
			}
			return nil
		})
	}

	err = attempt()
	if errors.Is(err, store.ErrDuplicate) {
		// Two concurrent starts can both see no active session to abandon;
		// the loser's insert then trips the active-session unique index.
		// One more pass abandons the winner's fresh session and takes over.
		log.Info("lost a concurrent start race, superseding the winner",
			slog.String("user_id", userID.String()),
			slog.String("simulation_id", string(simulationID)))
		err = attempt()
	}
	if err != nil {
		log.Error("failed to start session",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("simulation_id", string(simulationID)))
		return nil, err
	}

	log.Info("session started",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("simulation_id", string(simulationID)))
	return session, nil
}

// AddSnapshot records a snapshot against an Active session owned by the user
// and returns the session's new interaction count. The snapshot timestamp is
// server-assigned. Returns store.ErrSessionNotFound if the session does not
// exist, is owned by another user, or has already ended.
func (m *Manager) AddSnapshot(
	ctx context.Context,
	sessionID, userID uuid.UUID,
	parameters, results json.RawMessage,
	userAction string,
) (int, error) {
	snapshot := domain.NewSnapshot(parameters, results, userAction, m.now())

	count, err := m.sessionStore.AppendSnapshot(ctx, sessionID, userID, snapshot)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// EndResult is the outcome of a normal session end.
type EndResult struct {
	Session *domain.Session
	// Unlocked holds achievements awarded by the evaluation that ran after
	// this end; empty when evaluation unlocked nothing or failed.
	Unlocked []*domain.Achievement
}

// End transitions an Active session to Ended, recording the final payloads
// and the computed duration, then synchronously evaluates achievement rules.
// Once the state transition is durable, End always succeeds: evaluation
// failures are logged and swallowed, never surfaced to the caller.
func (m *Manager) End(
	ctx context.Context,
	sessionID, userID uuid.UUID,
	finalResults, finalParameters json.RawMessage,
) (*EndResult, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	session, err := m.sessionStore.End(ctx, sessionID, userID, m.now(), finalResults, finalParameters)
	if err != nil {
		return nil, err
	}

	result := &EndResult{Session: session}

	unlocked, err := m.evaluator.Evaluate(ctx, userID, session)
	if err != nil {
		log.Error("achievement evaluation failed after session end",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()),
			slog.String("user_id", userID.String()))
		return result, nil
	}
	result.Unlocked = unlocked

	return result, nil
}

// Get retrieves a session by ID, scoped to its owner.
func (m *Manager) Get(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Session, error) {
	return m.sessionStore.GetByID(ctx, sessionID, userID)
}

// List returns a page of the user's session history, newest first.
func (m *Manager) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.SessionFilter,
) (*store.SessionPage, error) {
	return m.sessionStore.List(ctx, userID, filter)
}
