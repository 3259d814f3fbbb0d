// Package gemini implements the generation.Generator interface on Google's
// Gemini API. Prompts are rendered from an embedded template and responses
// are expected as a single JSON object matching generation.Draft.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"github.com/physlab/physlab-api/internal/config"
	"github.com/physlab/physlab-api/internal/generation"
	"google.golang.org/genai"
)

// Retry policy for transient API failures.
const (
	maxRetries       = 3
	baseRetryDelay   = 2 * time.Second
	maxSessionBlobKB = 16
)

// draftPrompt asks the model for the draft fields as bare JSON.
const draftPrompt = `You are helping a physics student write a lab report.
The student ran the "{{.SimulationName}}" simulation ({{.SimulationDescription}})
for {{.Duration}} seconds with {{.Interactions}} recorded parameter changes.
Final results JSON: {{.FinalResults}}

Write a short draft lab report. Respond with a single JSON object and nothing
else, with these string fields: "title", "objective", "hypothesis",
"methodology", "conclusion".{{if .Title}} Use the title "{{.Title}}".{{end}}`

// promptData is the template input for draftPrompt.
type promptData struct {
	SimulationName        string
	SimulationDescription string
	Duration              int64
	Interactions          int
	FinalResults          string
	Title                 string
}

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger         *slog.Logger
	client         *genai.Client
	model          string
	promptTemplate *template.Template
}

// Ensure Generator implements generation.Generator interface
var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed draft generator.
// Returns generation.ErrInvalidConfig if the API key or model name is missing.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.GeminiConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("draft").Parse(draftPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		client:         client,
		model:          cfg.ModelName,
		promptTemplate: promptTemplate,
	}, nil
}

// GenerateDraft implements generation.Generator.GenerateDraft.
func (g *Generator) GenerateDraft(ctx context.Context, req generation.DraftRequest) (*generation.Draft, error) {
	if req.Session == nil {
		return nil, fmt.Errorf("%w: session is required", generation.ErrInvalidConfig)
	}

	prompt, err := g.buildPrompt(req)
	if err != nil {
		return nil, err
	}

	draft, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		draft.Title = req.Title
	}
	if draft.Title == "" || draft.Objective == "" {
		return nil, fmt.Errorf("%w: draft is missing required fields", generation.ErrInvalidResponse)
	}

	return draft, nil
}

func (g *Generator) buildPrompt(req generation.DraftRequest) (string, error) {
	finalResults := string(req.Session.FinalResults)
	if finalResults == "" {
		finalResults = "{}"
	}
	if len(finalResults) > maxSessionBlobKB*1024 {
		finalResults = finalResults[:maxSessionBlobKB*1024]
	}

	data := promptData{
		SimulationName:        req.Simulation.Name,
		SimulationDescription: req.Simulation.Description,
		Duration:              req.Session.TotalDuration,
		Interactions:          req.Session.InteractionCount,
		FinalResults:          finalResults,
		Title:                 req.Title,
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: failed to render prompt: %v", generation.ErrGenerationFailed, err)
	}
	return buf.String(), nil
}

// callWithRetry calls the Gemini API with exponential backoff and jitter.
// Permanent errors (blocked content, malformed responses) are returned
// immediately; transient failures retry up to maxRetries times.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (*generation.Draft, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.DebugContext(ctx, "calling Gemini API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		draft, err := g.callOnce(ctx, prompt)
		if err == nil {
			return draft, nil
		}

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			g.logger.WarnContext(ctx, "permanent generation error, not retrying",
				slog.String("error", err.Error()))
			return nil, err
		}

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// delay = base * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(baseRetryDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))

		g.logger.InfoContext(ctx, "retrying Gemini API call",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

func (g *Generator) callOnce(ctx context.Context, prompt string) (*generation.Draft, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}

	var draft generation.Draft
	if err := json.Unmarshal([]byte(extractJSON(text)), &draft); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	return &draft, nil
}

// extractJSON trims anything around the outermost JSON object. Models
// occasionally wrap the payload in markdown fences despite instructions.
func extractJSON(text string) string {
	start := -1
	depth := 0
	for i, r := range text {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return text
}
