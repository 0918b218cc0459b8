package services

import "math"

type AwardConfig struct {
	BaseExperience int
	StreakRate     float64 // multiplier added per streak day
}

func DefaultAwardConfig() AwardConfig {
	return AwardConfig{BaseExperience: 10, StreakRate: 0.1}
}

// ExperienceAward is the breakdown of a single completion's experience.
type ExperienceAward struct {
	BaseExperience  int     `json:"base_experience"`
	StreakBonus     int     `json:"streak_bonus"`
	TotalExperience int     `json:"total_experience"`
	Multiplier      float64 `json:"multiplier"`
}

type ExperienceCalculator struct {
	cfg AwardConfig
}

func NewExperienceCalculator(cfg AwardConfig) *ExperienceCalculator {
	return &ExperienceCalculator{cfg: cfg}
}

func (c *ExperienceCalculator) Config() AwardConfig { return c.cfg }

// AwardForStreak computes the experience earned at the given streak count.
func (c *ExperienceCalculator) AwardForStreak(count int) ExperienceAward {
	if count < 0 {
		count = 0
	}
	base := c.cfg.BaseExperience
	mult := 1 + c.cfg.StreakRate*float64(count)
	total := int(math.Floor(float64(base) * mult))
	return ExperienceAward{
		BaseExperience:  base,
		StreakBonus:     total - base,
		TotalExperience: total,
		Multiplier:      mult,
	}
}
