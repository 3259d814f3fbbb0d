package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AchievementType identifies one badge in the fixed achievement set.
// Each type can be unlocked at most once per user.
type AchievementType string

// The fixed achievement type enumeration. Only the first three are awarded
// automatically by the rule engine; the rest are reserved for the
// administrative award path.
const (
	AchievementFirstSimulation  AchievementType = "first_simulation"
	AchievementTimeMilestone    AchievementType = "time_milestone"
	AchievementExplorer         AchievementType = "explorer"
	AchievementAccuracyExpert   AchievementType = "accuracy_expert"
	AchievementScientist        AchievementType = "scientist"
	AchievementCompletionist    AchievementType = "completionist"
	AchievementSpeedRunner      AchievementType = "speed_runner"
	AchievementPrecisionMaster  AchievementType = "precision_master"
	AchievementDedicatedLearner AchievementType = "dedicated_learner"
	AchievementPhysicsMaster    AchievementType = "physics_master"
)

// Rarity classifies how hard an achievement is to unlock.
type Rarity string

// Rarity values, least to most rare.
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Achievement-specific validation errors
var (
	// ErrAchievementUserIDEmpty is returned when an achievement's user ID is empty or nil.
	ErrAchievementUserIDEmpty = errors.New("achievement user ID cannot be empty")

	// ErrInvalidAchievementType is returned when the type is not in the fixed set.
	ErrInvalidAchievementType = errors.New("invalid achievement type")

	// ErrAchievementTitleEmpty is returned when an achievement's title is empty.
	ErrAchievementTitleEmpty = errors.New("achievement title cannot be empty")

	// ErrAchievementDescriptionEmpty is returned when an achievement's description is empty.
	ErrAchievementDescriptionEmpty = errors.New("achievement description cannot be empty")

	// ErrAchievementIconEmpty is returned when an achievement's icon is empty.
	ErrAchievementIconEmpty = errors.New("achievement icon cannot be empty")

	// ErrNegativePoints is returned when an achievement's point value is negative.
	ErrNegativePoints = errors.New("achievement points cannot be negative")

	// ErrInvalidRarity is returned when the rarity is not a known value.
	ErrInvalidRarity = errors.New("invalid achievement rarity")
)

// ValidAchievementType reports whether t belongs to the fixed type set.
func ValidAchievementType(t AchievementType) bool {
	switch t {
	case AchievementFirstSimulation, AchievementTimeMilestone, AchievementAccuracyExpert,
		AchievementExplorer, AchievementScientist, AchievementCompletionist,
		AchievementSpeedRunner, AchievementPrecisionMaster, AchievementDedicatedLearner,
		AchievementPhysicsMaster:
		return true
	default:
		return false
	}
}

// ValidRarity reports whether r is a known rarity value.
func ValidRarity(r Rarity) bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	default:
		return false
	}
}

// Achievement is a one-time unlock record for a (user, type) pair.
// It is created exactly once when a rule's predicate first holds (or through
// the administrative award path) and is never mutated or deleted afterward.
type Achievement struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Type        AchievementType `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Points      int             `json:"points"`
	Rarity      Rarity          `json:"rarity"`
	UnlockedAt  time.Time       `json:"unlocked_at"`
}

// AchievementTemplate carries the static presentation of one achievement
// type: everything about the unlock record except who unlocked it and when.
type AchievementTemplate struct {
	Type        AchievementType
	Title       string
	Description string
	Icon        string
	Points      int
	Rarity      Rarity
}

// NewAchievement creates an unlock record for the given user from a template,
// stamping the unlock time with the supplied clock value.
// Returns an error if validation fails.
func NewAchievement(userID uuid.UUID, tmpl AchievementTemplate, now time.Time) (*Achievement, error) {
	achievement := &Achievement{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        tmpl.Type,
		Title:       tmpl.Title,
		Description: tmpl.Description,
		Icon:        tmpl.Icon,
		Points:      tmpl.Points,
		Rarity:      tmpl.Rarity,
		UnlockedAt:  now.UTC(),
	}

	if err := achievement.Validate(); err != nil {
		return nil, err
	}

	return achievement, nil
}

// Validate checks if the Achievement has valid data.
// Returns an error if any field fails validation.
func (a *Achievement) Validate() error {
	if a.UserID == uuid.Nil {
		return ErrAchievementUserIDEmpty
	}

	if !ValidAchievementType(a.Type) {
		return ErrInvalidAchievementType
	}

	if a.Title == "" {
		return ErrAchievementTitleEmpty
	}

	if a.Description == "" {
		return ErrAchievementDescriptionEmpty
	}

	if a.Icon == "" {
		return ErrAchievementIconEmpty
	}

	if a.Points < 0 {
		return ErrNegativePoints
	}

	if !ValidRarity(a.Rarity) {
		return ErrInvalidRarity
	}

	return nil
}

// LeaderboardEntry is a derived ranking row computed on demand from a user's
// achievement records. Entries are never persisted.
type LeaderboardEntry struct {
	UserID            uuid.UUID `json:"user_id"`
	TotalPoints       int       `json:"total_points"`
	AchievementCount  int       `json:"achievement_count"`
	LatestAchievement time.Time `json:"latest_achievement"`
}
