// Package progress records completed experiment runs with their scores and
// serves the study progress report built from them. Unlike session analytics,
// which measure raw activity, progress entries carry a frontend-assigned
// score, so the report can speak to how well a student is doing.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/store"
)

// DefaultListLimit bounds progress listings when the caller does not ask for
// a specific limit.
const DefaultListLimit = 50

// weeklyWindow is how far back the report's weekly section looks.
const weeklyWindow = 7 * 24 * time.Hour

// Achievement levels, awarded by total experiment count.
const (
	LevelBeginner  = "Beginner Explorer"
	LevelStudent   = "Physics Student"
	LevelAssistant = "Lab Assistant"
	LevelExpert    = "Physics Expert"
	LevelMaster    = "Master Physicist"
)

// OverallProgress summarizes every progress entry a user has saved.
type OverallProgress struct {
	ExperimentsCompleted string  `json:"experiments_completed"` // "n/3" distinct simulations
	TotalExperiments     int     `json:"total_experiments"`
	StudyTimeHours       float64 `json:"study_time_hours"`
	AchievementLevel     string  `json:"achievement_level"`
	AverageScore         int     `json:"average_score"`
	BestScore            int     `json:"best_score"`
}

// WeeklyProgress summarizes the entries completed in the last seven days.
type WeeklyProgress struct {
	Experiments    int     `json:"experiments"`
	StudyTimeHours float64 `json:"study_time_hours"`
}

// SimulationProgress summarizes a user's entries for one simulation.
type SimulationProgress struct {
	SimulationID   domain.SimulationID `json:"simulation_id"`
	SimulationName string              `json:"simulation_name"`
	Attempts       int                 `json:"attempts"`
	TotalTime      int64               `json:"total_time"`
	AverageScore   int                 `json:"average_score"`
	BestScore      int                 `json:"best_score"`
	LastAttempt    time.Time           `json:"last_attempt"`
}

// Report is the full study progress report.
type Report struct {
	Overall      OverallProgress      `json:"overall"`
	Weekly       WeeklyProgress       `json:"weekly"`
	BySimulation []SimulationProgress `json:"by_simulation"`
}

// achievementLevel maps a total experiment count onto a named level.
func achievementLevel(totalExperiments int) string {
	switch {
	case totalExperiments >= 50:
		return LevelMaster
	case totalExperiments >= 30:
		return LevelExpert
	case totalExperiments >= 15:
		return LevelAssistant
	case totalExperiments >= 5:
		return LevelStudent
	default:
		return LevelBeginner
	}
}

// hours converts whole seconds to hours rounded to one decimal place.
func hours(seconds int64) float64 {
	return math.Round(float64(seconds)/3600*10) / 10
}

// BuildReport computes the progress report from a user's entries. It is pure:
// the entries and the clock value fully determine the result.
func BuildReport(entries []*domain.Progress, now time.Time) Report {
	report := Report{BySimulation: []SimulationProgress{}}
	grouped := make(map[domain.SimulationID]*SimulationProgress)
	simulations := make(map[domain.SimulationID]bool)

	var totalTime int64
	var scoreSum, bestScore int
	weekStart := now.Add(-weeklyWindow)

	for _, entry := range entries {
		report.Overall.TotalExperiments++
		totalTime += entry.TimeSpent
		scoreSum += entry.Score
		if entry.Score > bestScore {
			bestScore = entry.Score
		}
		simulations[entry.SimulationID] = true

		if !entry.CompletedAt.Before(weekStart) {
			report.Weekly.Experiments++
			report.Weekly.StudyTimeHours += float64(entry.TimeSpent)
		}

		sim, ok := grouped[entry.SimulationID]
		if !ok {
			sim = &SimulationProgress{
				SimulationID:   entry.SimulationID,
				SimulationName: entry.SimulationName,
			}
			grouped[entry.SimulationID] = sim
		}
		sim.Attempts++
		sim.TotalTime += entry.TimeSpent
		sim.AverageScore += entry.Score // running sum, divided below
		if entry.Score > sim.BestScore {
			sim.BestScore = entry.Score
		}
		if entry.CompletedAt.After(sim.LastAttempt) {
			sim.LastAttempt = entry.CompletedAt
		}
	}

	report.Overall.ExperimentsCompleted = fmt.Sprintf("%d/%d", len(simulations), len(domain.Catalog()))
	report.Overall.StudyTimeHours = hours(totalTime)
	report.Overall.AchievementLevel = achievementLevel(report.Overall.TotalExperiments)
	report.Overall.BestScore = bestScore
	if report.Overall.TotalExperiments > 0 {
		report.Overall.AverageScore = int(math.Round(float64(scoreSum) / float64(report.Overall.TotalExperiments)))
	}

	report.Weekly.StudyTimeHours = hours(int64(report.Weekly.StudyTimeHours))

	for _, sim := range grouped {
		sim.AverageScore = int(math.Round(float64(sim.AverageScore) / float64(sim.Attempts)))
		report.BySimulation = append(report.BySimulation, *sim)
	}
	sort.Slice(report.BySimulation, func(i, j int) bool {
		return report.BySimulation[i].LastAttempt.After(report.BySimulation[j].LastAttempt)
	})

	return report
}

// Service records progress entries and serves listings and reports.
type Service struct {
	progressStore store.ProgressStore
	logger        *slog.Logger
	now           func() time.Time
}

// NewService creates a progress service.
// If logger is nil, a default logger will be used.
func NewService(progressStore store.ProgressStore, logger *slog.Logger) *Service {
	if progressStore == nil {
		panic("progressStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		progressStore: progressStore,
		logger:        logger.With(slog.String("component", "progress_service")),
		now:           time.Now,
	}
}

// WithTimeFunc overrides the service's clock. Used by tests.
func (s *Service) WithTimeFunc(now func() time.Time) *Service {
	s.now = now
	return s
}

// Save records one completed experiment run for the user.
func (s *Service) Save(
	ctx context.Context,
	userID uuid.UUID,
	simulationID domain.SimulationID,
	simulationName string,
	timeSpent int64,
	parameters, results json.RawMessage,
	score int,
) (*domain.Progress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entry, err := domain.NewProgress(userID, simulationID, simulationName, timeSpent, parameters, results, score, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.progressStore.Create(ctx, entry); err != nil {
		log.Error("failed to save progress entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("simulation_id", string(simulationID)))
		return nil, err
	}

	log.Info("progress saved",
		slog.String("progress_id", entry.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("score", entry.Score))
	return entry, nil
}

// List returns the user's progress entries, most recent first, optionally
// filtered by simulation. A non-positive limit falls back to DefaultListLimit.
func (s *Service) List(
	ctx context.Context,
	userID uuid.UUID,
	simulationID domain.SimulationID,
	limit int,
) ([]*domain.Progress, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	entries, err := s.progressStore.ListByUser(ctx, userID, store.ProgressFilter{
		SimulationID: simulationID,
		Limit:        limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list progress entries: %w", err)
	}
	return entries, nil
}

// Stats builds the full progress report over all of the user's entries.
func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*Report, error) {
	entries, err := s.progressStore.ListByUser(ctx, userID, store.ProgressFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load progress entries: %w", err)
	}

	report := BuildReport(entries, s.now())
	return &report, nil
}

// Delete removes one of the user's progress entries.
func (s *Service) Delete(ctx context.Context, progressID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.progressStore.Delete(ctx, progressID, userID); err != nil {
		return err
	}

	log.Info("progress entry removed",
		slog.String("progress_id", progressID.String()),
		slog.String("user_id", userID.String()))
	return nil
}
