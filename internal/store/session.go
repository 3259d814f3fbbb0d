package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
)

// SessionFilter narrows and paginates session listings.
// Limit defaults to 20 and Page to 1 when unset.
type SessionFilter struct {
	SimulationID domain.SimulationID // empty means all simulations
	Limit        int
	Page         int
}

// SessionPage is one page of a user's session history plus pagination metadata.
type SessionPage struct {
	Sessions []*domain.Session
	Page     int
	Limit    int
	Total    int
	Pages    int
}

// SessionStore defines the interface for session persistence.
//
// Implementations must provide two storage-level atomicity guarantees:
//   - AppendSnapshot serializes appends per session row, so snapshots are
//     observably ordered in call order without an application-side
//     read-modify-write.
//   - AbandonActive is a conditional update keyed on
//     (userID, simulationID, state=active), so Start can supersede a prior
//     active session and create the new one in a single transaction.
type SessionStore interface {
	// Create persists a new session. The session must be valid according to
	// domain validation rules.
	Create(ctx context.Context, session *domain.Session) error

	// AbandonActive force-ends any Active session for (userID, simulationID),
	// setting its end time without recording a duration. Abandoned sessions
	// keep a zero duration and skip achievement evaluation.
	// Returns the number of sessions superseded (0 or 1 under the
	// at-most-one-active invariant).
	AbandonActive(ctx context.Context, userID uuid.UUID, simulationID domain.SimulationID, endTime time.Time) (int64, error)

	// AppendSnapshot atomically appends a snapshot to the session's snapshot
	// sequence and increments its interaction count, conditional on the
	// session being Active and owned by userID. Returns the new snapshot
	// count, or ErrSessionNotFound if no such active session exists.
	AppendSnapshot(ctx context.Context, sessionID, userID uuid.UUID, snapshot domain.Snapshot) (int, error)

	// End transitions an Active session owned by userID to Ended, recording
	// the end time, total duration in whole seconds, and final payloads.
	// Returns the updated session, or ErrSessionNotFound if the session does
	// not exist, is not owned by userID, or has already ended.
	End(ctx context.Context, sessionID, userID uuid.UUID, endTime time.Time, finalResults, finalParameters json.RawMessage) (*domain.Session, error)

	// GetByID retrieves a session by ID, scoped to its owner.
	// Returns ErrSessionNotFound if it does not exist or is not owned by userID.
	GetByID(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Session, error)

	// List returns a page of the user's sessions, newest first.
	List(ctx context.Context, userID uuid.UUID, filter SessionFilter) (*SessionPage, error)

	// ListEnded returns all of the user's Ended sessions, without snapshot
	// payloads, for statistics aggregation. Active sessions are excluded.
	ListEnded(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error)

	// WithTx returns a SessionStore that runs against the provided
	// transaction. The transaction is created and managed by the caller,
	// typically via RunInTransaction.
	WithTx(tx *sql.Tx) SessionStore
}
