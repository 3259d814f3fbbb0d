package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgress(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 7, 1, 14, 30, 0, 0, time.UTC)

	t.Run("creates entry with completion timestamps", func(t *testing.T) {
		t.Parallel()

		params := json.RawMessage(`{"length": 1.5}`)
		results := json.RawMessage(`{"period": 2.46}`)

		entry, err := NewProgress(userID, SimulationPendulum, "Simple Pendulum", 420, params, results, 85, now)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, entry.ID)
		assert.Equal(t, userID, entry.UserID)
		assert.Equal(t, SimulationPendulum, entry.SimulationID)
		assert.Equal(t, now, entry.CompletedAt)
		assert.Equal(t, now, entry.CreatedAt)
		assert.Equal(t, int64(420), entry.TimeSpent)
		assert.Equal(t, 85, entry.Score)
	})

	t.Run("fills empty simulation name from the catalog", func(t *testing.T) {
		t.Parallel()

		entry, err := NewProgress(userID, SimulationCircuit, "", 60, nil, nil, 70, now)

		require.NoError(t, err)
		assert.Equal(t, "DC Circuit Builder", entry.SimulationName)
	})

	t.Run("rejects unknown simulation", func(t *testing.T) {
		t.Parallel()

		_, err := NewProgress(userID, "warp-drive", "", 60, nil, nil, 70, now)

		assert.ErrorIs(t, err, ErrUnknownSimulation)
	})

	t.Run("rejects score above 100", func(t *testing.T) {
		t.Parallel()

		_, err := NewProgress(userID, SimulationPendulum, "Simple Pendulum", 60, nil, nil, 101, now)

		assert.ErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("rejects negative score", func(t *testing.T) {
		t.Parallel()

		_, err := NewProgress(userID, SimulationPendulum, "Simple Pendulum", 60, nil, nil, -1, now)

		assert.ErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("rejects negative time spent", func(t *testing.T) {
		t.Parallel()

		_, err := NewProgress(userID, SimulationPendulum, "Simple Pendulum", -5, nil, nil, 50, now)

		assert.ErrorIs(t, err, ErrNegativeTimeSpent)
	})

	t.Run("rejects missing user", func(t *testing.T) {
		t.Parallel()

		_, err := NewProgress(uuid.Nil, SimulationPendulum, "Simple Pendulum", 60, nil, nil, 50, now)

		assert.ErrorIs(t, err, ErrProgressUserIDEmpty)
	})
}
