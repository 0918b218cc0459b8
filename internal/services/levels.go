package services

import (
	"math"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

type LevelConfig struct {
	BaseExperience int     // experience for the first level step
	Growth         float64 // per-level growth of the step
	StepCap        int     // no single step costs more than this
	MaxLevel       int
}

func DefaultLevelConfig() LevelConfig {
	return LevelConfig{BaseExperience: 10, Growth: 1.05, StepCap: 250, MaxLevel: 100}
}

// LevelInfo describes where a cumulative experience total sits on the curve.
type LevelInfo struct {
	CurrentLevel                int     `json:"current_level"`
	CurrentExperience           int     `json:"current_experience"`
	ExperienceToNextLevel       int     `json:"experience_to_next_level"`
	TotalExperienceForNextLevel int     `json:"total_experience_for_next_level"`
	Progress                    float64 `json:"progress"`
}

type CategoryLevel struct {
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Level        int       `json:"level"`
	Experience   int       `json:"experience"`
}

type UserLevel struct {
	TotalLevel      int             `json:"total_level"`
	TotalExperience int             `json:"total_experience"`
	CategoryLevels  []CategoryLevel `json:"category_levels"`
}

// LevelCurve maps cumulative experience to levels. It is safe for concurrent use.
type LevelCurve struct {
	cfg LevelConfig
	// thresholds[l] is the cumulative experience needed to reach level l.
	thresholds []int
}

func NewLevelCurve(cfg LevelConfig) *LevelCurve {
	if cfg.MaxLevel < 1 {
		cfg.MaxLevel = 1
	}
	c := &LevelCurve{cfg: cfg, thresholds: make([]int, cfg.MaxLevel+1)}
	for l := 2; l <= cfg.MaxLevel; l++ {
		c.thresholds[l] = c.thresholds[l-1] + c.step(l-1)
	}
	return c
}

func (c *LevelCurve) Config() LevelConfig { return c.cfg }

// step is the experience it takes to go from level i to level i+1.
func (c *LevelCurve) step(i int) int {
	raw := math.Floor(float64(c.cfg.BaseExperience) * math.Pow(c.cfg.Growth, float64(i-1)))
	if raw > float64(c.cfg.StepCap) {
		return c.cfg.StepCap
	}
	return int(raw)
}

// ExperienceRequiredForLevel is the cumulative experience needed to reach level.
func (c *LevelCurve) ExperienceRequiredForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	if level <= c.cfg.MaxLevel {
		return c.thresholds[level]
	}
	total := c.thresholds[c.cfg.MaxLevel]
	for i := c.cfg.MaxLevel; i < level; i++ {
		total += c.step(i)
	}
	return total
}

func (c *LevelCurve) ValidateLevel(level int) bool {
	return level >= 1 && level <= c.cfg.MaxLevel
}

func (c *LevelCurve) LevelInfo(total int) LevelInfo {
	if total < 0 {
		total = 0
	}

	level := 1
	for level < c.cfg.MaxLevel && total >= c.thresholds[level+1] {
		level++
	}

	if level >= c.cfg.MaxLevel {
		return LevelInfo{
			CurrentLevel:                c.cfg.MaxLevel,
			CurrentExperience:           total,
			ExperienceToNextLevel:       0,
			TotalExperienceForNextLevel: c.thresholds[c.cfg.MaxLevel],
			Progress:                    1,
		}
	}

	floor, next := c.thresholds[level], c.thresholds[level+1]
	progress := 0.0
	if span := next - floor; span > 0 {
		progress = float64(total-floor) / float64(span)
	}
	return LevelInfo{
		CurrentLevel:                level,
		CurrentExperience:           total,
		ExperienceToNextLevel:       max(0, next-total),
		TotalExperienceForNextLevel: next,
		Progress:                    min(1, max(0, progress)),
	}
}

// CalculateUserLevel sums per-category levels and experience.
func (c *LevelCurve) CalculateUserLevel(cats []models.CategoryExperience) UserLevel {
	out := UserLevel{CategoryLevels: make([]CategoryLevel, 0, len(cats))}
	for _, ce := range cats {
		info := c.LevelInfo(ce.TotalExperience)
		out.TotalLevel += info.CurrentLevel
		out.TotalExperience += ce.TotalExperience
		out.CategoryLevels = append(out.CategoryLevels, CategoryLevel{
			CategoryID:   ce.CategoryID,
			CategoryName: ce.CategoryName,
			Level:        info.CurrentLevel,
			Experience:   ce.TotalExperience,
		})
	}
	return out
}
