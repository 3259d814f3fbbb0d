package generation

import (
	"context"
	"fmt"
	"strings"
)

// TemplateGenerator produces deterministic lab report drafts from the
// simulation catalog entry and session data. It is the fallback used when no
// Gemini API key is configured.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a template-based draft generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Ensure TemplateGenerator implements Generator interface
var _ Generator = (*TemplateGenerator)(nil)

// GenerateDraft implements Generator.GenerateDraft without any external call.
func (g *TemplateGenerator) GenerateDraft(_ context.Context, req DraftRequest) (*Draft, error) {
	if req.Session == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidConfig)
	}

	sim := req.Simulation

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Lab Report: %s", sim.Name)
	}

	objective := sim.Description
	if len(sim.LearningObjectives) > 0 {
		objective = sim.LearningObjectives[0]
	}

	var methodology strings.Builder
	fmt.Fprintf(&methodology,
		"Ran the %s simulation for %d seconds, recording %d parameter changes.",
		sim.Name, req.Session.TotalDuration, req.Session.InteractionCount)
	if len(sim.Parameters) > 0 {
		names := make([]string, len(sim.Parameters))
		for i, p := range sim.Parameters {
			names[i] = p.Name
		}
		fmt.Fprintf(&methodology, " Adjusted parameters: %s.", strings.Join(names, ", "))
	}

	return &Draft{
		Title:       title,
		Objective:   objective,
		Hypothesis:  fmt.Sprintf("Varying the controls of %s changes the observed results in a predictable way.", sim.Name),
		Methodology: methodology.String(),
		Conclusion:  "",
	}, nil
}
