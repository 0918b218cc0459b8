package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

type Dashboard struct {
	Day             models.Day               `json:"day"`
	TasksTotal      int                      `json:"tasks_total"`
	TasksCompleted  int                      `json:"tasks_completed"`
	TodayExperience int                      `json:"today_experience"`
	Trend           []models.DailyExperience `json:"trend"`
}

type DashboardService struct {
	tasks      taskStore
	overview   overviewStore
	experience *ExperienceService
}

func NewDashboardService(tasks taskStore, overview overviewStore, experience *ExperienceService) *DashboardService {
	return &DashboardService{tasks: tasks, overview: overview, experience: experience}
}

func (s *DashboardService) ForUser(ctx context.Context, userID uuid.UUID, today models.Day) (*Dashboard, error) {
	total, done, err := s.tasks.CountTasksForDay(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	xp, err := s.experience.TodayExperience(ctx, userID)
	if err != nil {
		return nil, err
	}
	trend, err := s.experience.Trend(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Day:             today,
		TasksTotal:      total,
		TasksCompleted:  done,
		TodayExperience: xp,
		Trend:           trend,
	}, nil
}

// Overview is the site-wide admin summary for today.
func (s *DashboardService) Overview(ctx context.Context, today models.Day) (*models.Overview, error) {
	return s.overview.Overview(ctx, today)
}
