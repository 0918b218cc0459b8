package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

func TestExperienceRequiredForLevel(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())

	tests := []struct {
		level int
		want  int
	}{
		{0, 0},
		{1, 0},
		{2, 10},
		{3, 20},
		{4, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.ExperienceRequiredForLevel(tt.level), "level %d", tt.level)
	}
}

func TestLevelInfoAtZero(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	info := c.LevelInfo(0)

	assert.Equal(t, 1, info.CurrentLevel)
	assert.Equal(t, 0, info.CurrentExperience)
	assert.Equal(t, 10, info.ExperienceToNextLevel)
	assert.Equal(t, 10, info.TotalExperienceForNextLevel)
	assert.Equal(t, 0.0, info.Progress)
}

func TestLevelInfoNegativeTreatedAsZero(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	assert.Equal(t, c.LevelInfo(0), c.LevelInfo(-50))
}

func TestLevelInfoMidLevel(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	info := c.LevelInfo(25)

	assert.Equal(t, 3, info.CurrentLevel)
	assert.Equal(t, 6, info.ExperienceToNextLevel)
	assert.Equal(t, 31, info.TotalExperienceForNextLevel)
	assert.InDelta(t, 5.0/11.0, info.Progress, 1e-9)
}

func TestLevelInfoThresholdsMatchRequired(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	for level := 2; level < 100; level++ {
		req := c.ExperienceRequiredForLevel(level)
		assert.Equal(t, level, c.LevelInfo(req).CurrentLevel, "at threshold of level %d", level)
		assert.Equal(t, level-1, c.LevelInfo(req-1).CurrentLevel, "just below level %d", level)
	}
}

func TestLevelInfoMonotonic(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	prev := c.LevelInfo(0)
	for total := 1; total <= 30000; total += 7 {
		info := c.LevelInfo(total)
		assert.GreaterOrEqual(t, info.CurrentLevel, prev.CurrentLevel)
		if info.CurrentLevel == prev.CurrentLevel {
			assert.GreaterOrEqual(t, info.Progress, prev.Progress)
		}
		assert.GreaterOrEqual(t, info.Progress, 0.0)
		assert.LessOrEqual(t, info.Progress, 1.0)
		prev = info
	}
}

func TestLevelInfoSaturates(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	info := c.LevelInfo(1_000_000)

	assert.Equal(t, 100, info.CurrentLevel)
	assert.Equal(t, 0, info.ExperienceToNextLevel)
	assert.Equal(t, 1.0, info.Progress)
	assert.Equal(t, 1_000_000, info.CurrentExperience)
	assert.Equal(t, c.ExperienceRequiredForLevel(100), info.TotalExperienceForNextLevel)
}

func TestStepIsCapped(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	for l := 1; l < 100; l++ {
		step := c.ExperienceRequiredForLevel(l+1) - c.ExperienceRequiredForLevel(l)
		assert.LessOrEqual(t, step, 250)
		assert.GreaterOrEqual(t, step, 10)
	}
}

func TestValidateLevel(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	assert.False(t, c.ValidateLevel(0))
	assert.True(t, c.ValidateLevel(1))
	assert.True(t, c.ValidateLevel(100))
	assert.False(t, c.ValidateLevel(101))
}

func TestCalculateUserLevel(t *testing.T) {
	c := NewLevelCurve(DefaultLevelConfig())
	a, b := uuid.New(), uuid.New()

	ul := c.CalculateUserLevel([]models.CategoryExperience{
		{CategoryID: a, CategoryName: "Fitness", TotalExperience: 25},
		{CategoryID: b, CategoryName: "Reading", TotalExperience: 0},
	})

	assert.Equal(t, 4, ul.TotalLevel)
	assert.Equal(t, 25, ul.TotalExperience)
	assert.Len(t, ul.CategoryLevels, 2)
	assert.Equal(t, 3, ul.CategoryLevels[0].Level)
	assert.Equal(t, "Reading", ul.CategoryLevels[1].CategoryName)

	empty := c.CalculateUserLevel(nil)
	assert.Equal(t, 0, empty.TotalLevel)
	assert.Empty(t, empty.CategoryLevels)
}

func TestAwardForStreak(t *testing.T) {
	calc := NewExperienceCalculator(DefaultAwardConfig())

	award := calc.AwardForStreak(5)
	assert.InDelta(t, 1.5, award.Multiplier, 1e-9)
	assert.Equal(t, 15, award.TotalExperience)
	assert.Equal(t, 5, award.StreakBonus)
	assert.Equal(t, 10, award.BaseExperience)

	zero := calc.AwardForStreak(0)
	assert.Equal(t, 10, zero.TotalExperience)
	assert.Equal(t, 0, zero.StreakBonus)

	assert.Equal(t, zero, calc.AwardForStreak(-3))
}

func TestAwardMonotonicInStreak(t *testing.T) {
	calc := NewExperienceCalculator(DefaultAwardConfig())
	prev := calc.AwardForStreak(0)
	for n := 1; n <= 365; n++ {
		a := calc.AwardForStreak(n)
		assert.GreaterOrEqual(t, a.TotalExperience, prev.TotalExperience)
		assert.Equal(t, a.TotalExperience-a.BaseExperience, a.StreakBonus)
		prev = a
	}
}
