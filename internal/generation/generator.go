// Package generation defines the boundary between the application core and
// the draft-writing backend for lab reports. The concrete Gemini
// implementation lives in internal/platform/gemini; a deterministic template
// fallback lives here for deployments without an API key.
package generation

import (
	"context"

	"github.com/physlab/physlab-api/internal/domain"
)

// DraftRequest carries everything the generator may use to write a draft:
// the ended session being written up and the catalog entry of the simulation
// it ran.
type DraftRequest struct {
	Session    *domain.Session
	Simulation domain.Simulation
	// Title overrides the generated title when non-empty.
	Title string
}

// Draft is the generated prose for a new lab report. The caller owns turning
// it into a persisted domain.LabReport.
type Draft struct {
	Title       string `json:"title"`
	Objective   string `json:"objective"`
	Hypothesis  string `json:"hypothesis"`
	Methodology string `json:"methodology"`
	Conclusion  string `json:"conclusion"`
}

// Generator defines the interface for drafting lab reports from session data.
type Generator interface {
	// GenerateDraft writes a lab report draft for the given session.
	// It returns an error if generation fails for any reason (see errors.go
	// for specific types).
	GenerateDraft(ctx context.Context, req DraftRequest) (*Draft, error)
}
