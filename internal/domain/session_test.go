package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("creates active session with generated ID", func(t *testing.T) {
		t.Parallel()

		deviceInfo := json.RawMessage(`{"browser":"firefox"}`)
		session, err := NewSession(userID, SimulationPendulum, deviceInfo, now)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, session.ID)
		assert.Equal(t, userID, session.UserID)
		assert.Equal(t, SimulationPendulum, session.SimulationID)
		assert.Equal(t, SessionStateActive, session.State)
		assert.Equal(t, now, session.StartTime)
		assert.Nil(t, session.EndTime)
		assert.Zero(t, session.InteractionCount)
		assert.Zero(t, session.TotalDuration)
		assert.Equal(t, deviceInfo, session.DeviceInfo)
	})

	t.Run("nil device info is allowed", func(t *testing.T) {
		t.Parallel()

		session, err := NewSession(userID, SimulationCircuit, nil, now)

		require.NoError(t, err)
		assert.Nil(t, session.DeviceInfo)
	})

	t.Run("rejects nil user ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewSession(uuid.Nil, SimulationPendulum, nil, now)

		assert.ErrorIs(t, err, ErrSessionUserIDEmpty)
	})

	t.Run("rejects simulation outside the catalog", func(t *testing.T) {
		t.Parallel()

		_, err := NewSession(userID, SimulationID("warp-drive"), nil, now)

		assert.ErrorIs(t, err, ErrUnknownSimulation)
	})
}

func TestSessionValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Session {
		return &Session{
			ID:           uuid.New(),
			UserID:       uuid.New(),
			SimulationID: SimulationCannonball,
			State:        SessionStateActive,
			StartTime:    time.Now().UTC(),
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Session)
		wantErr error
	}{
		{
			name:    "valid session",
			mutate:  func(*Session) {},
			wantErr: nil,
		},
		{
			name:    "empty ID",
			mutate:  func(s *Session) { s.ID = uuid.Nil },
			wantErr: ErrSessionIDEmpty,
		},
		{
			name:    "empty user ID",
			mutate:  func(s *Session) { s.UserID = uuid.Nil },
			wantErr: ErrSessionUserIDEmpty,
		},
		{
			name:    "empty simulation ID",
			mutate:  func(s *Session) { s.SimulationID = "" },
			wantErr: ErrSessionSimulationEmpty,
		},
		{
			name:    "unknown state",
			mutate:  func(s *Session) { s.State = "paused" },
			wantErr: ErrInvalidSessionState,
		},
		{
			name:    "negative interaction count",
			mutate:  func(s *Session) { s.InteractionCount = -1 },
			wantErr: ErrNegativeInteractionCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			session := valid()
			tt.mutate(session)

			err := session.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSessionIsActive(t *testing.T) {
	t.Parallel()

	session := &Session{State: SessionStateActive}
	assert.True(t, session.IsActive())

	session.State = SessionStateEnded
	assert.False(t, session.IsActive())
}

func TestNewSnapshot(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	t.Run("defaults user action", func(t *testing.T) {
		t.Parallel()

		snapshot := NewSnapshot(json.RawMessage(`{"length":2}`), nil, "", now)

		assert.Equal(t, UserActionParameterChange, snapshot.UserAction)
		assert.Equal(t, now, snapshot.Timestamp)
	})

	t.Run("keeps explicit user action", func(t *testing.T) {
		t.Parallel()

		snapshot := NewSnapshot(nil, json.RawMessage(`{"period":2.8}`), "reset", now)

		assert.Equal(t, "reset", snapshot.UserAction)
	})
}
