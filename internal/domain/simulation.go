package domain

import "errors"

// SimulationID identifies a simulation in the fixed catalog.
type SimulationID string

// The simulation catalog is a fixed enumerated set.
const (
	SimulationPendulum   SimulationID = "pendulum"
	SimulationCircuit    SimulationID = "circuit"
	SimulationCannonball SimulationID = "cannonball"
)

// ErrUnknownSimulation is returned when a simulation ID is not in the catalog.
var ErrUnknownSimulation = errors.New("unknown simulation ID")

// Valid reports whether the simulation ID belongs to the catalog.
func (id SimulationID) Valid() bool {
	switch id {
	case SimulationPendulum, SimulationCircuit, SimulationCannonball:
		return true
	default:
		return false
	}
}

// Difficulty levels for catalog entries.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// SimulationParameter describes one adjustable control of a simulation.
type SimulationParameter struct {
	Name        string  `json:"name"`
	Control     string  `json:"control"` // "slider", "input", "select"
	Min         float64 `json:"min,omitempty"`
	Max         float64 `json:"max,omitempty"`
	Default     float64 `json:"default,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Simulation is a catalog entry describing one physics simulation.
// The catalog is static; entries are read, never mutated through the API.
type Simulation struct {
	ID                 SimulationID          `json:"simulation_id"`
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	Category           string                `json:"category"`
	Difficulty         string                `json:"difficulty"`
	EstimatedTime      int                   `json:"estimated_time"` // minutes
	Parameters         []SimulationParameter `json:"parameters,omitempty"`
	LearningObjectives []string              `json:"learning_objectives,omitempty"`
}

// Catalog returns the fixed simulation catalog.
func Catalog() []Simulation {
	return []Simulation{
		{
			ID:            SimulationPendulum,
			Name:          "Simple Pendulum",
			Description:   "Explore periodic motion by varying length, mass, and gravity.",
			Category:      "mechanics",
			Difficulty:    DifficultyBeginner,
			EstimatedTime: 30,
			Parameters: []SimulationParameter{
				{Name: "length", Control: "slider", Min: 0.1, Max: 5, Default: 1, Unit: "m"},
				{Name: "mass", Control: "slider", Min: 0.1, Max: 10, Default: 1, Unit: "kg"},
				{Name: "gravity", Control: "slider", Min: 1, Max: 25, Default: 9.81, Unit: "m/s²"},
			},
			LearningObjectives: []string{
				"Relate pendulum length to oscillation period",
				"Observe that period is independent of mass",
			},
		},
		{
			ID:            SimulationCircuit,
			Name:          "DC Circuit Builder",
			Description:   "Build series and parallel circuits and measure current and voltage.",
			Category:      "electricity",
			Difficulty:    DifficultyIntermediate,
			EstimatedTime: 45,
			Parameters: []SimulationParameter{
				{Name: "voltage", Control: "slider", Min: 0, Max: 24, Default: 9, Unit: "V"},
				{Name: "resistance", Control: "slider", Min: 1, Max: 1000, Default: 100, Unit: "Ω"},
			},
			LearningObjectives: []string{
				"Apply Ohm's law to predict current",
				"Compare series and parallel resistance",
			},
		},
		{
			ID:            SimulationCannonball,
			Name:          "Projectile Motion",
			Description:   "Launch projectiles and study trajectories under gravity and drag.",
			Category:      "mechanics",
			Difficulty:    DifficultyBeginner,
			EstimatedTime: 30,
			Parameters: []SimulationParameter{
				{Name: "angle", Control: "slider", Min: 0, Max: 90, Default: 45, Unit: "°"},
				{Name: "speed", Control: "slider", Min: 1, Max: 100, Default: 20, Unit: "m/s"},
			},
			LearningObjectives: []string{
				"Decompose velocity into components",
				"Find the launch angle that maximizes range",
			},
		},
	}
}

// CatalogLookup returns the catalog entry for the given ID.
// Returns ErrUnknownSimulation if the ID is not in the catalog.
func CatalogLookup(id SimulationID) (*Simulation, error) {
	for _, sim := range Catalog() {
		if sim.ID == id {
			return &sim, nil
		}
	}
	return nil, ErrUnknownSimulation
}
