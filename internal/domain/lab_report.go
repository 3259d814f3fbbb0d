package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReportStatus tracks a lab report through its review workflow.
type ReportStatus string

// Possible report statuses.
const (
	ReportStatusDraft     ReportStatus = "draft"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusReviewed  ReportStatus = "reviewed"
	ReportStatusApproved  ReportStatus = "approved"
)

// Lab report validation errors
var (
	ErrReportIDEmpty        = errors.New("report ID cannot be empty")
	ErrReportUserIDEmpty    = errors.New("report user ID cannot be empty")
	ErrReportTitleEmpty     = errors.New("report title cannot be empty")
	ErrReportObjectiveEmpty = errors.New("report objective cannot be empty")
	ErrInvalidReportStatus  = errors.New("invalid report status")
)

// Experiment is one recorded run inside a lab report: the parameters used,
// the results observed, and the student's notes.
type Experiment struct {
	Name         string          `json:"name"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	Results      json.RawMessage `json:"results,omitempty"`
	Observations string          `json:"observations,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// LabReport is a student's write-up of one or more simulation sessions.
// Drafts are typically generated from a completed session and then edited.
type LabReport struct {
	ID           uuid.UUID    `json:"report_id"`
	UserID       uuid.UUID    `json:"user_id"`
	SimulationID SimulationID `json:"simulation_id"`
	Title        string       `json:"title"`
	Objective    string       `json:"objective"`
	Hypothesis   string       `json:"hypothesis,omitempty"`
	Methodology  string       `json:"methodology,omitempty"`
	Experiments  []Experiment `json:"experiments,omitempty"`
	Conclusion   string       `json:"conclusion,omitempty"`
	Status       ReportStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewLabReport creates a draft report for the given user and simulation.
// Returns an error if validation fails.
func NewLabReport(userID uuid.UUID, simulationID SimulationID, title, objective string) (*LabReport, error) {
	now := time.Now().UTC()
	report := &LabReport{
		ID:           uuid.New(),
		UserID:       userID,
		SimulationID: simulationID,
		Title:        title,
		Objective:    objective,
		Status:       ReportStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := report.Validate(); err != nil {
		return nil, err
	}

	return report, nil
}

// Validate checks if the LabReport has valid data.
// Returns an error if any field fails validation.
func (r *LabReport) Validate() error {
	if r.ID == uuid.Nil {
		return ErrReportIDEmpty
	}

	if r.UserID == uuid.Nil {
		return ErrReportUserIDEmpty
	}

	if !r.SimulationID.Valid() {
		return ErrUnknownSimulation
	}

	if r.Title == "" {
		return ErrReportTitleEmpty
	}

	if r.Objective == "" {
		return ErrReportObjectiveEmpty
	}

	switch r.Status {
	case ReportStatusDraft, ReportStatusCompleted, ReportStatusReviewed, ReportStatusApproved:
	default:
		return ErrInvalidReportStatus
	}

	return nil
}
