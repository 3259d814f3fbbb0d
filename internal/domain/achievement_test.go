package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTemplate() AchievementTemplate {
	return AchievementTemplate{
		Type:        AchievementFirstSimulation,
		Title:       "First Steps",
		Description: "Completed your first simulation session",
		Icon:        "🎯",
		Points:      100,
		Rarity:      RarityCommon,
	}
}

func TestNewAchievement(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("creates unlock record from template", func(t *testing.T) {
		t.Parallel()

		achievement, err := NewAchievement(userID, validTemplate(), now)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, achievement.ID)
		assert.Equal(t, userID, achievement.UserID)
		assert.Equal(t, AchievementFirstSimulation, achievement.Type)
		assert.Equal(t, "First Steps", achievement.Title)
		assert.Equal(t, 100, achievement.Points)
		assert.Equal(t, RarityCommon, achievement.Rarity)
		assert.Equal(t, now.UTC(), achievement.UnlockedAt)
	})

	t.Run("rejects nil user ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewAchievement(uuid.Nil, validTemplate(), now)

		assert.ErrorIs(t, err, ErrAchievementUserIDEmpty)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		t.Parallel()

		tmpl := validTemplate()
		tmpl.Type = "night_owl"
		_, err := NewAchievement(userID, tmpl, now)

		assert.ErrorIs(t, err, ErrInvalidAchievementType)
	})

	t.Run("rejects negative points", func(t *testing.T) {
		t.Parallel()

		tmpl := validTemplate()
		tmpl.Points = -10
		_, err := NewAchievement(userID, tmpl, now)

		assert.ErrorIs(t, err, ErrNegativePoints)
	})

	t.Run("rejects unknown rarity", func(t *testing.T) {
		t.Parallel()

		tmpl := validTemplate()
		tmpl.Rarity = "mythic"
		_, err := NewAchievement(userID, tmpl, now)

		assert.ErrorIs(t, err, ErrInvalidRarity)
	})
}

func TestValidAchievementType(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidAchievementType(AchievementFirstSimulation))
	assert.True(t, ValidAchievementType(AchievementPhysicsMaster))
	assert.False(t, ValidAchievementType("night_owl"))
	assert.False(t, ValidAchievementType(""))
}

func TestValidRarity(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidRarity(RarityCommon))
	assert.True(t, ValidRarity(RarityLegendary))
	assert.False(t, ValidRarity("mythic"))
	assert.False(t, ValidRarity(""))
}
