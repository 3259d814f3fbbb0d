package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Progress score bounds. Scores are percentages assigned by the simulation
// frontend when an experiment run completes.
const (
	MinProgressScore = 0
	MaxProgressScore = 100
)

// Progress-specific validation errors
var (
	// ErrProgressIDEmpty is returned when a progress entry's ID is empty or nil.
	ErrProgressIDEmpty = errors.New("progress ID cannot be empty")

	// ErrProgressUserIDEmpty is returned when a progress entry's user ID is empty or nil.
	ErrProgressUserIDEmpty = errors.New("progress user ID cannot be empty")

	// ErrInvalidScore is returned when a score is outside the 0-100 range.
	ErrInvalidScore = errors.New("score must be between 0 and 100")

	// ErrNegativeTimeSpent is returned when the time spent is negative.
	ErrNegativeTimeSpent = errors.New("time spent cannot be negative")
)

// Progress is one completed experiment run: which simulation, how long it
// took, what the final parameters and results were, and the score the run
// earned. Entries are immutable once saved.
type Progress struct {
	ID             uuid.UUID       `json:"progress_id"`
	UserID         uuid.UUID       `json:"user_id"`
	SimulationID   SimulationID    `json:"simulation_id"`
	SimulationName string          `json:"simulation_name"`
	CompletedAt    time.Time       `json:"completed_at"`
	TimeSpent      int64           `json:"time_spent"` // whole seconds
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	Results        json.RawMessage `json:"results,omitempty"`
	Score          int             `json:"score"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewProgress creates a progress entry for a completed experiment run,
// stamping the completion time with the supplied clock value. An empty
// simulation name is filled in from the catalog.
// Returns an error if validation fails.
func NewProgress(
	userID uuid.UUID,
	simulationID SimulationID,
	simulationName string,
	timeSpent int64,
	parameters, results json.RawMessage,
	score int,
	now time.Time,
) (*Progress, error) {
	if simulationName == "" {
		sim, err := CatalogLookup(simulationID)
		if err != nil {
			return nil, err
		}
		simulationName = sim.Name
	}

	now = now.UTC()
	progress := &Progress{
		ID:             uuid.New(),
		UserID:         userID,
		SimulationID:   simulationID,
		SimulationName: simulationName,
		CompletedAt:    now,
		TimeSpent:      timeSpent,
		Parameters:     parameters,
		Results:        results,
		Score:          score,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the Progress entry has valid data.
// Returns an error if any field fails validation.
func (p *Progress) Validate() error {
	if p.ID == uuid.Nil {
		return ErrProgressIDEmpty
	}

	if p.UserID == uuid.Nil {
		return ErrProgressUserIDEmpty
	}

	if !p.SimulationID.Valid() {
		return ErrUnknownSimulation
	}

	if p.TimeSpent < 0 {
		return ErrNegativeTimeSpent
	}

	if p.Score < MinProgressScore || p.Score > MaxProgressScore {
		return ErrInvalidScore
	}

	return nil
}
