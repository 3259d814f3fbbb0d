package achievement

import (
	"errors"
	"fmt"

	"github.com/physlab/physlab-api/internal/store"
)

// Achievement service errors
var (
	// ErrAlreadyAwarded is returned by the administrative award path when the
	// user already holds an achievement of the requested type. It wraps the
	// store's duplicate sentinel so transport layers can classify it with
	// store.IsDuplicateError.
	ErrAlreadyAwarded = fmt.Errorf("achievement already awarded: %w", store.ErrAchievementExists)

	// ErrInvalidMetric is returned when a leaderboard metric is not one of
	// "points" or "achievements".
	ErrInvalidMetric = errors.New("invalid leaderboard metric")

	// ErrInvalidLimit is returned when a leaderboard limit is not a positive
	// integer.
	ErrInvalidLimit = errors.New("leaderboard limit must be a positive integer")
)
