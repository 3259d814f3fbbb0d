package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulationIDValid(t *testing.T) {
	t.Parallel()

	assert.True(t, SimulationPendulum.Valid())
	assert.True(t, SimulationCircuit.Valid())
	assert.True(t, SimulationCannonball.Valid())
	assert.False(t, SimulationID("warp-drive").Valid())
	assert.False(t, SimulationID("").Valid())
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	catalog := Catalog()
	require.Len(t, catalog, 3)

	for _, sim := range catalog {
		assert.True(t, sim.ID.Valid())
		assert.NotEmpty(t, sim.Name)
		assert.NotEmpty(t, sim.Description)
		assert.NotEmpty(t, sim.Parameters)
	}
}

func TestCatalogLookup(t *testing.T) {
	t.Parallel()

	t.Run("known simulation", func(t *testing.T) {
		t.Parallel()

		sim, err := CatalogLookup(SimulationPendulum)

		require.NoError(t, err)
		assert.Equal(t, SimulationPendulum, sim.ID)
	})

	t.Run("unknown simulation", func(t *testing.T) {
		t.Parallel()

		_, err := CatalogLookup("warp-drive")

		assert.ErrorIs(t, err, ErrUnknownSimulation)
	})
}
