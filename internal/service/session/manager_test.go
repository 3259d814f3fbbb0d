package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDriver backs a *sql.DB whose transactions are no-ops. The fake session
// store below does the actual bookkeeping; the driver exists only so
// RunInTransaction has something to begin and commit.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

func init() {
	sql.Register("sessionstub", stubDriver{})
}

func newStubDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sessionstub", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeSessionStore records calls and serves canned results.
type fakeSessionStore struct {
	created       []*domain.Session
	abandoned     int64
	abandonCalls  int
	abandonErr    error
	createErr     error
	createErrOnce error
	snapshotCount int
	snapshotErr   error
	endedSession  *domain.Session
	endErr        error
	getSession    *domain.Session
	getErr        error
	page          *store.SessionPage
	listErr       error
}

var _ store.SessionStore = (*fakeSessionStore)(nil)

func (f *fakeSessionStore) Create(_ context.Context, s *domain.Session) error {
	if f.createErrOnce != nil {
		err := f.createErrOnce
		f.createErrOnce = nil
		return err
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, s)
	return nil
}

func (f *fakeSessionStore) AbandonActive(context.Context, uuid.UUID, domain.SimulationID, time.Time) (int64, error) {
	f.abandonCalls++
	return f.abandoned, f.abandonErr
}

func (f *fakeSessionStore) AppendSnapshot(context.Context, uuid.UUID, uuid.UUID, domain.Snapshot) (int, error) {
	return f.snapshotCount, f.snapshotErr
}

func (f *fakeSessionStore) End(context.Context, uuid.UUID, uuid.UUID, time.Time, json.RawMessage, json.RawMessage) (*domain.Session, error) {
	return f.endedSession, f.endErr
}

func (f *fakeSessionStore) GetByID(context.Context, uuid.UUID, uuid.UUID) (*domain.Session, error) {
	return f.getSession, f.getErr
}

func (f *fakeSessionStore) List(context.Context, uuid.UUID, store.SessionFilter) (*store.SessionPage, error) {
	return f.page, f.listErr
}

func (f *fakeSessionStore) ListEnded(context.Context, uuid.UUID) ([]*domain.Session, error) {
	return nil, nil
}

func (f *fakeSessionStore) WithTx(*sql.Tx) store.SessionStore { return f }

// fakeEvaluator records evaluation calls.
type fakeEvaluator struct {
	unlocked []*domain.Achievement
	err      error
	calls    int
}

func (f *fakeEvaluator) Evaluate(context.Context, uuid.UUID, *domain.Session) ([]*domain.Achievement, error) {
	f.calls++
	return f.unlocked, f.err
}

func TestManagerStart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("creates active session", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil).
			WithTimeFunc(func() time.Time { return now })

		session, err := manager.Start(context.Background(), userID, domain.SimulationPendulum, nil)

		require.NoError(t, err)
		assert.Equal(t, domain.SessionStateActive, session.State)
		assert.Equal(t, now, session.StartTime)
		assert.Equal(t, 1, fake.abandonCalls)
		require.Len(t, fake.created, 1)
		assert.Equal(t, session, fake.created[0])
	})

	t.Run("supersedes a prior active session in the same transaction", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{abandoned: 1}
		evaluator := &fakeEvaluator{}
		manager := NewManager(newStubDB(t), fake, evaluator, nil)

		_, err := manager.Start(context.Background(), userID, domain.SimulationPendulum, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, fake.abandonCalls)
		assert.Len(t, fake.created, 1)
		// Abandonment never triggers achievement evaluation.
		assert.Zero(t, evaluator.calls)
	})

	t.Run("rejects simulations outside the catalog", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		_, err := manager.Start(context.Background(), userID, "warp-drive", nil)

		assert.ErrorIs(t, err, domain.ErrUnknownSimulation)
		assert.Zero(t, fake.abandonCalls)
		assert.Empty(t, fake.created)
	})

	t.Run("create failure rolls back and surfaces", func(t *testing.T) {
		t.Parallel()

		createErr := errors.New("insert failed")
		fake := &fakeSessionStore{createErr: createErr}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		_, err := manager.Start(context.Background(), userID, domain.SimulationCircuit, nil)

		assert.ErrorIs(t, err, createErr)
	})

	t.Run("retries once after losing a concurrent start race", func(t *testing.T) {
		t.Parallel()

		// The first insert trips the active-session unique index because a
		// concurrent start won; the retry must abandon the winner and succeed.
		fake := &fakeSessionStore{
			createErrOnce: fmt.Errorf("failed to create session: %w", store.ErrDuplicate),
		}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		session, err := manager.Start(context.Background(), userID, domain.SimulationPendulum, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, fake.abandonCalls)
		require.Len(t, fake.created, 1)
		assert.Equal(t, session, fake.created[0])
	})

	t.Run("persistent duplicate surfaces after one retry", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{createErr: store.ErrDuplicate}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		_, err := manager.Start(context.Background(), userID, domain.SimulationPendulum, nil)

		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.Equal(t, 2, fake.abandonCalls)
		assert.Empty(t, fake.created)
	})

	t.Run("abandon failure surfaces", func(t *testing.T) {
		t.Parallel()

		abandonErr := errors.New("update failed")
		fake := &fakeSessionStore{abandonErr: abandonErr}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		_, err := manager.Start(context.Background(), userID, domain.SimulationCircuit, nil)

		assert.ErrorIs(t, err, abandonErr)
		assert.Empty(t, fake.created)
	})
}

func TestManagerAddSnapshot(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("returns new interaction count", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{snapshotCount: 7}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		count, err := manager.AddSnapshot(
			context.Background(), sessionID, userID,
			json.RawMessage(`{"length":2}`), nil, "",
		)

		require.NoError(t, err)
		assert.Equal(t, 7, count)
	})

	t.Run("missing or ended session surfaces as not found", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{snapshotErr: store.ErrSessionNotFound}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		_, err := manager.AddSnapshot(context.Background(), sessionID, userID, nil, nil, "")

		assert.ErrorIs(t, err, store.ErrSessionNotFound)
	})
}

func TestManagerEnd(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(125 * time.Second)
	ended := &domain.Session{
		ID:            sessionID,
		UserID:        userID,
		SimulationID:  domain.SimulationPendulum,
		State:         domain.SessionStateEnded,
		StartTime:     start,
		EndTime:       &end,
		TotalDuration: 125,
	}

	t.Run("returns ended session and unlocked achievements", func(t *testing.T) {
		t.Parallel()

		unlocked := []*domain.Achievement{{Type: domain.AchievementFirstSimulation}}
		fake := &fakeSessionStore{endedSession: ended}
		evaluator := &fakeEvaluator{unlocked: unlocked}
		manager := NewManager(newStubDB(t), fake, evaluator, nil)

		result, err := manager.End(context.Background(), sessionID, userID, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(125), result.Session.TotalDuration)
		assert.Equal(t, unlocked, result.Unlocked)
		assert.Equal(t, 1, evaluator.calls)
	})

	t.Run("evaluation failure is swallowed once the end is durable", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{endedSession: ended}
		evaluator := &fakeEvaluator{err: errors.New("evaluation blew up")}
		manager := NewManager(newStubDB(t), fake, evaluator, nil)

		result, err := manager.End(context.Background(), sessionID, userID, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, ended, result.Session)
		assert.Empty(t, result.Unlocked)
	})

	t.Run("ending a missing or already ended session fails", func(t *testing.T) {
		t.Parallel()

		fake := &fakeSessionStore{endErr: store.ErrSessionNotFound}
		evaluator := &fakeEvaluator{}
		manager := NewManager(newStubDB(t), fake, evaluator, nil)

		_, err := manager.End(context.Background(), sessionID, userID, nil, nil)

		assert.ErrorIs(t, err, store.ErrSessionNotFound)
		assert.Zero(t, evaluator.calls)
	})
}

func TestManagerGetAndList(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("get passes through", func(t *testing.T) {
		t.Parallel()

		want := &domain.Session{ID: sessionID, UserID: userID}
		fake := &fakeSessionStore{getSession: want}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		got, err := manager.Get(context.Background(), sessionID, userID)

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("list passes through", func(t *testing.T) {
		t.Parallel()

		page := &store.SessionPage{Page: 1, Limit: 20, Total: 0, Pages: 0}
		fake := &fakeSessionStore{page: page}
		manager := NewManager(newStubDB(t), fake, &fakeEvaluator{}, nil)

		got, err := manager.List(context.Background(), userID, store.SessionFilter{})

		require.NoError(t, err)
		assert.Equal(t, page, got)
	})
}
