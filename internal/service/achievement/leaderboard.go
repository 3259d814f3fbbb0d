package achievement

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/physlab/physlab-api/internal/domain"
)

// Metric selects what a leaderboard ranks users by.
type Metric string

// Supported leaderboard metrics.
const (
	MetricPoints       Metric = "points"
	MetricAchievements Metric = "achievements"
)

// DefaultLeaderboardLimit is used when no limit is requested.
const DefaultLeaderboardLimit = 10

// Valid reports whether m is a supported metric.
func (m Metric) Valid() bool {
	return m == MetricPoints || m == MetricAchievements
}

// Rank loads all unlock records and ranks users by the given metric.
// limit must be positive; callers resolve an absent limit to
// DefaultLeaderboardLimit before calling.
func (e *Engine) Rank(ctx context.Context, metric Metric, limit int) ([]domain.LeaderboardEntry, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMetric, metric)
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	achievements, err := e.achievementStore.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}

	return RankEntries(achievements, metric, limit), nil
}

// RankEntries groups achievements by user, reduces them to leaderboard
// entries and orders them by the given metric.
//
// For the points metric the order is total points, then achievement count,
// then latest unlock, all descending. For the achievements metric the count
// leads and total points break ties.
func RankEntries(
	achievements []*domain.Achievement,
	metric Metric,
	limit int,
) []domain.LeaderboardEntry {
	grouped := make(map[uuid.UUID]*domain.LeaderboardEntry)

	for _, a := range achievements {
		entry, ok := grouped[a.UserID]
		if !ok {
			entry = &domain.LeaderboardEntry{UserID: a.UserID}
			grouped[a.UserID] = entry
		}
		entry.TotalPoints += a.Points
		entry.AchievementCount++
		if a.UnlockedAt.After(entry.LatestAchievement) {
			entry.LatestAchievement = a.UnlockedAt
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(grouped))
	for _, entry := range grouped {
		entries = append(entries, *entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if metric == MetricAchievements {
			if a.AchievementCount != b.AchievementCount {
				return a.AchievementCount > b.AchievementCount
			}
			if a.TotalPoints != b.TotalPoints {
				return a.TotalPoints > b.TotalPoints
			}
		} else {
			if a.TotalPoints != b.TotalPoints {
				return a.TotalPoints > b.TotalPoints
			}
			if a.AchievementCount != b.AchievementCount {
				return a.AchievementCount > b.AchievementCount
			}
		}
		return a.LatestAchievement.After(b.LatestAchievement)
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
