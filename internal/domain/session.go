package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a simulation session.
type SessionState string

// Possible session states. A session is created Active and transitions to
// Ended exactly once; Ended is terminal.
const (
	SessionStateActive SessionState = "active"
	SessionStateEnded  SessionState = "ended"
)

// UserActionParameterChange is the default tag for snapshots recorded when
// the user changes a simulation parameter.
const UserActionParameterChange = "parameter_change"

// Session-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrSessionUserIDEmpty is returned when a session's user ID is empty or nil.
	ErrSessionUserIDEmpty = errors.New("session user ID cannot be empty")

	// ErrSessionSimulationEmpty is returned when a session's simulation ID is empty.
	ErrSessionSimulationEmpty = errors.New("session simulation ID cannot be empty")

	// ErrInvalidSessionState is returned when a session state is not a known value.
	ErrInvalidSessionState = errors.New("invalid session state")

	// ErrSessionEnded is returned when a mutation targets a session that has
	// already been ended.
	ErrSessionEnded = errors.New("session has already ended")

	// ErrNegativeInteractionCount is returned when the interaction count is negative.
	ErrNegativeInteractionCount = errors.New("interaction count cannot be negative")
)

// Snapshot is an immutable, server-timestamped record of simulation
// parameters and results captured while a session is active. Once appended to
// a session it is never modified.
type Snapshot struct {
	Timestamp  time.Time       `json:"timestamp"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	Results    json.RawMessage `json:"results,omitempty"`
	UserAction string          `json:"user_action"`
}

// NewSnapshot creates a Snapshot with the given payloads, defaulting the
// user action tag to "parameter_change" when none is provided.
func NewSnapshot(parameters, results json.RawMessage, userAction string, now time.Time) Snapshot {
	if userAction == "" {
		userAction = UserActionParameterChange
	}
	return Snapshot{
		Timestamp:  now.UTC(),
		Parameters: parameters,
		Results:    results,
		UserAction: userAction,
	}
}

// Session represents one continuous interaction between a user and a
// simulation. Snapshots are append-only and strictly time-ordered;
// InteractionCount tracks the number of snapshots recorded. EndTime and
// TotalDuration are set only when the session transitions to Ended.
type Session struct {
	ID               uuid.UUID       `json:"session_id"`
	UserID           uuid.UUID       `json:"user_id"`
	SimulationID     SimulationID    `json:"simulation_id"`
	State            SessionState    `json:"state"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          *time.Time      `json:"end_time,omitempty"`
	Snapshots        []Snapshot      `json:"snapshots,omitempty"`
	InteractionCount int             `json:"interaction_count"`
	TotalDuration    int64           `json:"total_duration"` // whole seconds, set on end
	FinalResults     json.RawMessage `json:"final_results,omitempty"`
	FinalParameters  json.RawMessage `json:"final_parameters,omitempty"`
	DeviceInfo       json.RawMessage `json:"device_info,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewSession creates a new Active session for the given user and simulation.
// It generates a fresh UUID for the session ID and stamps the start time with
// the supplied clock value. Returns an error if validation fails.
func NewSession(userID uuid.UUID, simulationID SimulationID, deviceInfo json.RawMessage, now time.Time) (*Session, error) {
	now = now.UTC()
	session := &Session{
		ID:           uuid.New(),
		UserID:       userID,
		SimulationID: simulationID,
		State:        SessionStateActive,
		StartTime:    now,
		DeviceInfo:   deviceInfo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the Session has valid data.
// Returns an error if any field fails validation.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}

	if s.SimulationID == "" {
		return ErrSessionSimulationEmpty
	}

	if !s.SimulationID.Valid() {
		return ErrUnknownSimulation
	}

	if s.State != SessionStateActive && s.State != SessionStateEnded {
		return ErrInvalidSessionState
	}

	if s.InteractionCount < 0 {
		return ErrNegativeInteractionCount
	}

	return nil
}

// IsActive reports whether the session is still accepting snapshots.
func (s *Session) IsActive() bool {
	return s.State == SessionStateActive
}

// Duration returns the session's total duration in whole seconds for an
// Ended session, computed from the server-assigned start and end times.
// StartTime is server-assigned, so the result is non-negative by construction.
func (s *Session) Duration() int64 {
	if s.EndTime == nil {
		return 0
	}
	return int64(s.EndTime.Sub(s.StartTime) / time.Second)
}
