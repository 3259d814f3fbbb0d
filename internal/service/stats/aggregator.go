// Package stats computes read-only session statistics. The aggregation
// functions are pure over a slice of ended sessions; the Aggregator binds
// them to the session store for the API layer.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// Summary aggregates a user's ended sessions across all simulations.
type Summary struct {
	TotalSessions       int     `json:"total_sessions"`
	TotalDuration       int64   `json:"total_duration"`
	TotalInteractions   int     `json:"total_interactions"`
	UniqueSimulations   int     `json:"unique_simulations"`
	AverageDuration     float64 `json:"average_duration"`
	AverageInteractions float64 `json:"average_interactions"`
}

// SimulationSummary aggregates a user's ended sessions for one simulation.
type SimulationSummary struct {
	SimulationID        domain.SimulationID `json:"simulation_id"`
	Attempts            int                 `json:"attempts"`
	TotalTime           int64               `json:"total_time"`
	AverageTime         float64             `json:"average_time"`
	TotalInteractions   int                 `json:"total_interactions"`
	AverageInteractions float64             `json:"average_interactions"`
	LastSessionTime     time.Time           `json:"last_session_time"`
}

// Summarize computes overall statistics from a user's ended sessions.
// Averages are 0 when there are no sessions.
func Summarize(sessions []*domain.Session) Summary {
	var summary Summary
	simulations := make(map[domain.SimulationID]bool)

	for _, s := range sessions {
		summary.TotalSessions++
		summary.TotalDuration += s.TotalDuration
		summary.TotalInteractions += s.InteractionCount
		simulations[s.SimulationID] = true
	}
	summary.UniqueSimulations = len(simulations)

	if summary.TotalSessions > 0 {
		summary.AverageDuration = float64(summary.TotalDuration) / float64(summary.TotalSessions)
		summary.AverageInteractions = float64(summary.TotalInteractions) / float64(summary.TotalSessions)
	}

	return summary
}

// SummarizePerSimulation groups a user's ended sessions by simulation and
// computes per-simulation statistics, ordered by last session time descending.
func SummarizePerSimulation(sessions []*domain.Session) []SimulationSummary {
	grouped := make(map[domain.SimulationID]*SimulationSummary)

	for _, s := range sessions {
		summary, ok := grouped[s.SimulationID]
		if !ok {
			summary = &SimulationSummary{SimulationID: s.SimulationID}
			grouped[s.SimulationID] = summary
		}
		summary.Attempts++
		summary.TotalTime += s.TotalDuration
		summary.TotalInteractions += s.InteractionCount
		if s.StartTime.After(summary.LastSessionTime) {
			summary.LastSessionTime = s.StartTime
		}
	}

	summaries := make([]SimulationSummary, 0, len(grouped))
	for _, summary := range grouped {
		if summary.Attempts > 0 {
			summary.AverageTime = float64(summary.TotalTime) / float64(summary.Attempts)
			summary.AverageInteractions = float64(summary.TotalInteractions) / float64(summary.Attempts)
		}
		summaries = append(summaries, *summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastSessionTime.After(summaries[j].LastSessionTime)
	})

	return summaries
}

// Aggregator serves statistics queries backed by the session store.
type Aggregator struct {
	sessionStore store.SessionStore
	logger       *slog.Logger
}

// NewAggregator creates a statistics aggregator.
// If logger is nil, a default logger will be used.
func NewAggregator(sessionStore store.SessionStore, logger *slog.Logger) *Aggregator {
	if sessionStore == nil {
		panic("sessionStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregator{
		sessionStore: sessionStore,
		logger:       logger.With(slog.String("component", "stats_aggregator")),
	}
}

// ForUser returns overall statistics over the user's ended sessions.
// Active sessions are excluded: an in-progress session has not yet
// contributed a final duration.
func (a *Aggregator) ForUser(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	sessions, err := a.sessionStore.ListEnded(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, a.logger).Error("failed to load ended sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load ended sessions: %w", err)
	}

	summary := Summarize(sessions)
	return &summary, nil
}

// PerSimulation returns per-simulation statistics over the user's ended
// sessions, ordered by most recent activity.
func (a *Aggregator) PerSimulation(ctx context.Context, userID uuid.UUID) ([]SimulationSummary, error) {
	sessions, err := a.sessionStore.ListEnded(ctx, userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, a.logger).Error("failed to load ended sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load ended sessions: %w", err)
	}

	return SummarizePerSimulation(sessions), nil
}
