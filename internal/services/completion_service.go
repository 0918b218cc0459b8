package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/metrics"
	"github.com/hkunkel2/habit-quest-api/internal/models"
)

type ExperienceGained struct {
	ExperienceAward
	Category string `json:"category"`
}

type CompletionResult struct {
	Message          string            `json:"message"`
	HabitTask        *models.HabitTask `json:"habit_task"`
	CurrentStreak    *models.Streak    `json:"current_streak"`
	ExperienceGained ExperienceGained  `json:"experience_gained"`
	// RewardPending is set when the task was completed but its experience
	// could not be fully recorded.
	RewardPending bool `json:"reward_pending"`
}

// CompletionService completes a day's task and pays out experience.
type CompletionService struct {
	log        *zap.Logger
	tx         txManager
	habits     habitStore
	streaks    streakStore
	tasks      taskStore
	experience experienceStore
	ledger     ledgerStore
	calc       *ExperienceCalculator
	clock      models.Clock
	metrics    *metrics.Metrics
}

func NewCompletionService(
	logger *zap.Logger,
	tx txManager,
	habits habitStore,
	streaks streakStore,
	tasks taskStore,
	experience experienceStore,
	ledger ledgerStore,
	calc *ExperienceCalculator,
	clock models.Clock,
	m *metrics.Metrics,
) *CompletionService {
	return &CompletionService{
		log:        logger.Named("completion"),
		tx:         tx,
		habits:     habits,
		streaks:    streaks,
		tasks:      tasks,
		experience: experience,
		ledger:     ledger,
		calc:       calc,
		clock:      clock,
		metrics:    m,
	}
}

// CompleteTask marks the caller's task for today complete, advances its
// streak and awards experience for the new streak count.
func (s *CompletionService) CompleteTask(ctx context.Context, userID, taskID uuid.UUID, today models.Day) (*CompletionResult, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, fmt.Errorf("habit task %s: %w", taskID, models.ErrNotFound)
	}
	if task.IsCompleted {
		return nil, models.ErrAlreadyCompleted
	}
	if task.TaskDate != today {
		return nil, fmt.Errorf("task date %s, today %s: %w", task.TaskDate, today, models.ErrOutOfWindow)
	}

	habit, err := s.habits.GetHabit(ctx, task.HabitID)
	if err != nil {
		return nil, err
	}
	if habit.Status != models.HabitActive {
		return nil, fmt.Errorf("cannot complete %s habit: %w", habit.Status, models.ErrHabitNotActive)
	}

	var completed *models.HabitTask
	var streak *models.Streak
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if completed, err = s.tasks.MarkTaskComplete(ctx, task.ID, s.clock.Now()); err != nil {
			return err
		}
		if streak, err = s.streaks.IncrementStreak(ctx, task.StreakID); err != nil {
			return fmt.Errorf("increment streak %s: %w", task.StreakID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	award := s.calc.AwardForStreak(streak.Count)
	log := s.log.With(
		zap.String("user_id", userID.String()),
		zap.String("task_id", task.ID.String()),
		zap.Int("streak", streak.Count),
	)

	if habit.CategoryID == nil {
		s.metrics.TaskCompleted(0)
		log.Error("completed habit has no category; experience not awarded")
		return nil, fmt.Errorf("habit %s: %w", habit.ID, models.ErrMissingCategory)
	}
	categoryName := ""
	if habit.CategoryName != nil {
		categoryName = *habit.CategoryName
	}

	result := &CompletionResult{
		Message:   "Habit task completed successfully",
		HabitTask: completed,
		ExperienceGained: ExperienceGained{
			ExperienceAward: award,
			Category:        categoryName,
		},
	}

	if _, err := s.experience.AddExperience(ctx, userID, *habit.CategoryID, award.TotalExperience); err != nil {
		result.RewardPending = true
		s.metrics.RewardFailed("total")
		log.Error("add category experience failed", zap.Int("experience", award.TotalExperience), zap.Error(err))
	}

	multiplier := award.Multiplier
	count := streak.Count
	description := fmt.Sprintf("Completed habit: %s (Streak: %d)", habit.Name, count)
	entry := &models.ExperienceTransaction{
		UserID:           userID,
		CategoryID:       *habit.CategoryID,
		HabitTaskID:      &task.ID,
		Type:             models.TxHabitCompletion,
		ExperienceGained: award.TotalExperience,
		StreakCount:      &count,
		Multiplier:       &multiplier,
		Description:      &description,
	}
	if err := s.ledger.AppendTransaction(ctx, entry); err != nil {
		result.RewardPending = true
		s.metrics.RewardFailed("ledger")
		log.Error("append experience transaction failed", zap.Error(err))
	}

	s.metrics.TaskCompleted(award.TotalExperience)

	// The completion is committed; a failed re-read falls back to the
	// streak as incremented above.
	current, err := s.streaks.FindActiveStreak(ctx, userID, habit.ID)
	switch {
	case err == nil:
		result.CurrentStreak = current
	case !errors.Is(err, models.ErrNotFound):
		log.Warn("reload active streak failed", zap.Error(err))
		result.CurrentStreak = streak
	}
	return result, nil
}
