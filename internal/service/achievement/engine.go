// Package achievement implements the badge rule engine and leaderboard
// ranking. Rules are evaluated synchronously when a session ends; the
// at-most-once-per-(user, type) guarantee lives in the achievement store's
// uniqueness constraint, not here.
package achievement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
	"github.com/physlab/physlab-api/internal/platform/logger"
	"github.com/physlab/physlab-api/internal/service/stats"
	"github.com/physlab/physlab-api/internal/store"
)

// Rule pairs an unlock predicate with the static presentation of the badge it
// awards. A rule fires when its type is not yet held and its predicate holds.
type Rule struct {
	Template  domain.AchievementTemplate
	Predicate func(summary stats.Summary, session *domain.Session) bool
}

// defaultRules is the fixed, ordered rule list evaluated on every session end.
// Predicates see statistics computed after the triggering session was
// persisted, so a user's very first ended session yields TotalSessions == 1.
func defaultRules() []Rule {
	return []Rule{
		{
			Template: domain.AchievementTemplate{
				Type:        domain.AchievementFirstSimulation,
				Title:       "First Steps",
				Description: "Completed your first simulation session",
				Icon:        "🎯",
				Points:      100,
				Rarity:      domain.RarityCommon,
			},
			Predicate: func(summary stats.Summary, _ *domain.Session) bool {
				return summary.TotalSessions >= 1
			},
		},
		{
			Template: domain.AchievementTemplate{
				Type:        domain.AchievementTimeMilestone,
				Title:       "Dedicated Student",
				Description: "Spent over an hour running simulations",
				Icon:        "⏰",
				Points:      250,
				Rarity:      domain.RarityUncommon,
			},
			Predicate: func(summary stats.Summary, _ *domain.Session) bool {
				return summary.TotalDuration >= 3600
			},
		},
		{
			Template: domain.AchievementTemplate{
				Type:        domain.AchievementExplorer,
				Title:       "Curious Explorer",
				Description: "Recorded 50 interactions in a single session",
				Icon:        "🔍",
				Points:      200,
				Rarity:      domain.RarityUncommon,
			},
			Predicate: func(_ stats.Summary, session *domain.Session) bool {
				return session != nil && session.InteractionCount >= 50
			},
		},
	}
}

// Engine evaluates achievement rules and serves achievement queries.
type Engine struct {
	achievementStore store.AchievementStore
	sessionStore     store.SessionStore
	rules            []Rule
	logger           *slog.Logger
	now              func() time.Time
}

// NewEngine creates an achievement engine with the built-in rule set.
// If logger is nil, a default logger will be used.
func NewEngine(
	achievementStore store.AchievementStore,
	sessionStore store.SessionStore,
	logger *slog.Logger,
) *Engine {
	if achievementStore == nil {
		panic("achievementStore cannot be nil")
	}
	if sessionStore == nil {
		panic("sessionStore cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		achievementStore: achievementStore,
		sessionStore:     sessionStore,
		rules:            defaultRules(),
		logger:           logger.With(slog.String("component", "achievement_engine")),
		now:              time.Now,
	}
}

// WithTimeFunc overrides the engine's clock. Used by tests.
func (e *Engine) WithTimeFunc(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate runs the rule list against the user's post-session statistics and
// persists any newly unlocked achievements. It returns the achievements
// unlocked by this call.
//
// Two session completions for the same user may evaluate the same rule
// concurrently; the store's Insert absorbs the race, so a lost insert is a
// silent no-op rather than an error.
func (e *Engine) Evaluate(
	ctx context.Context,
	userID uuid.UUID,
	session *domain.Session,
) ([]*domain.Achievement, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	existing, err := e.achievementStore.ListTypes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing achievement types: %w", err)
	}

	sessions, err := e.sessionStore.ListEnded(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ended sessions: %w", err)
	}
	summary := stats.Summarize(sessions)

	var unlocked []*domain.Achievement
	for _, rule := range e.rules {
		if existing[rule.Template.Type] {
			continue
		}
		if !rule.Predicate(summary, session) {
			continue
		}

		record, err := domain.NewAchievement(userID, rule.Template, e.now())
		if err != nil {
			return unlocked, fmt.Errorf("failed to build achievement %s: %w", rule.Template.Type, err)
		}

		created, err := e.achievementStore.Insert(ctx, record)
		if err != nil {
			return unlocked, fmt.Errorf("failed to persist achievement %s: %w", rule.Template.Type, err)
		}
		if !created {
			// Lost a race with a concurrent evaluation for the same user.
			continue
		}

		log.Info("achievement rule fired",
			slog.String("user_id", userID.String()),
			slog.String("type", string(record.Type)),
			slog.Int("points", record.Points))
		unlocked = append(unlocked, record)
	}

	return unlocked, nil
}

// Award is the administrative path for granting an achievement directly.
// Unlike rule evaluation, a duplicate here is visible to the caller as
// ErrAlreadyAwarded.
func (e *Engine) Award(
	ctx context.Context,
	userID uuid.UUID,
	tmpl domain.AchievementTemplate,
) (*domain.Achievement, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	record, err := domain.NewAchievement(userID, tmpl, e.now())
	if err != nil {
		return nil, err
	}

	created, err := e.achievementStore.Insert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to persist achievement: %w", err)
	}
	if !created {
		return nil, ErrAlreadyAwarded
	}

	log.Info("achievement awarded",
		slog.String("user_id", userID.String()),
		slog.String("type", string(record.Type)))
	return record, nil
}

// ListForUser returns the user's unlocked achievements, newest first.
func (e *Engine) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Achievement, error) {
	achievements, err := e.achievementStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return achievements, nil
}

// Summary totals a user's unlocked achievements.
type Summary struct {
	Total       int                   `json:"total"`
	TotalPoints int                   `json:"total_points"`
	ByRarity    map[domain.Rarity]int `json:"by_rarity"`
}

// Summarize computes unlock totals from a list of achievements.
func Summarize(achievements []*domain.Achievement) Summary {
	summary := Summary{ByRarity: make(map[domain.Rarity]int)}
	for _, a := range achievements {
		summary.Total++
		summary.TotalPoints += a.Points
		summary.ByRarity[a.Rarity]++
	}
	return summary
}
