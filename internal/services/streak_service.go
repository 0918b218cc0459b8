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

const (
	msgTaskCreated   = "Habit task created for today"
	msgTaskExists    = "Habit task exists for today"
	msgTaskCompleted = "Habit already completed for today"
	msgStatusFailed  = "Error processing habit status"
)

// DailyStatus is the outcome of ensuring today's task for one habit.
type DailyStatus struct {
	HabitID       uuid.UUID         `json:"habit_id"`
	HabitName     string            `json:"habit_name"`
	Habit         *models.Habit     `json:"habit_details,omitempty"`
	Message       string            `json:"message"`
	HabitTask     *models.HabitTask `json:"habit_task"`
	CurrentStreak *models.Streak    `json:"current_streak"`
	AllStreaks    []models.Streak   `json:"all_streaks"`
	Created       bool              `json:"created"`
	Error         string            `json:"error,omitempty"`
}

// HabitStreaks is the streak history of one habit.
type HabitStreaks struct {
	HabitID       uuid.UUID          `json:"habit_id"`
	HabitName     string             `json:"habit_name"`
	CurrentStreak *models.Streak     `json:"current_streak"`
	AllStreaks    []models.Streak    `json:"all_streaks"`
	HabitTasks    []models.HabitTask `json:"habit_tasks"`
}

// StreakService decides, per (user, habit, day), whether a task exists,
// must be created, or rolls a broken streak over into a new one.
type StreakService struct {
	log     *zap.Logger
	tx      txManager
	habits  habitStore
	streaks streakStore
	tasks   taskStore
	metrics *metrics.Metrics
}

func NewStreakService(
	logger *zap.Logger,
	tx txManager,
	habits habitStore,
	streaks streakStore,
	tasks taskStore,
	m *metrics.Metrics,
) *StreakService {
	return &StreakService{
		log:     logger.Named("streaks"),
		tx:      tx,
		habits:  habits,
		streaks: streaks,
		tasks:   tasks,
		metrics: m,
	}
}

// ownedHabit loads a habit and hides habits of other users.
func ownedHabit(ctx context.Context, habits habitStore, userID, habitID uuid.UUID) (*models.Habit, error) {
	h, err := habits.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if h.UserID != userID || h.Status == models.HabitDeleted {
		return nil, fmt.Errorf("habit %s: %w", habitID, models.ErrNotFound)
	}
	return h, nil
}

// EnsureDailyTask makes sure today's task exists for an Active habit. It is
// idempotent: repeated calls on the same day return the same task.
func (s *StreakService) EnsureDailyTask(ctx context.Context, userID, habitID uuid.UUID, today models.Day) (*DailyStatus, error) {
	habit, err := ownedHabit(ctx, s.habits, userID, habitID)
	if err != nil {
		return nil, err
	}
	return s.ensure(ctx, habit, today)
}

func (s *StreakService) ensure(ctx context.Context, habit *models.Habit, today models.Day) (*DailyStatus, error) {
	status := &DailyStatus{HabitID: habit.ID, HabitName: habit.Name, Habit: habit}

	if habit.Status != models.HabitActive {
		status.Message = fmt.Sprintf("Habit is %s - no task created", habit.Status)
		if err := s.attachStreaks(ctx, habit.UserID, status); err != nil {
			return nil, err
		}
		return status, nil
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tx.LockUserHabit(ctx, habit.UserID, habit.ID); err != nil {
			return fmt.Errorf("lock habit %s: %w", habit.ID, err)
		}

		existing, err := s.tasks.FindTaskByDate(ctx, habit.UserID, habit.ID, today)
		if err == nil {
			status.HabitTask = existing
			status.Message = existingTaskMessage(existing)
			return nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		streak, err := s.currentOrNewStreak(ctx, habit, today)
		if err != nil {
			return err
		}

		task := &models.HabitTask{
			UserID:   habit.UserID,
			HabitID:  habit.ID,
			StreakID: streak.ID,
			TaskDate: today,
		}
		created, err := s.tasks.CreateTask(ctx, task)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		status.HabitTask = task
		status.Created = created
		if created {
			status.Message = msgTaskCreated
		} else {
			status.Message = existingTaskMessage(task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status.Created {
		s.metrics.TaskCreated()
		s.log.Debug("daily task created",
			zap.String("user_id", habit.UserID.String()),
			zap.String("habit_id", habit.ID.String()),
			zap.Stringer("day", today),
		)
	}

	if err := s.attachStreaks(ctx, habit.UserID, status); err != nil {
		return nil, err
	}
	return status, nil
}

// currentOrNewStreak returns the streak today's task should bind to. A
// streak survives only if yesterday's task exists and was completed.
func (s *StreakService) currentOrNewStreak(ctx context.Context, habit *models.Habit, today models.Day) (*models.Streak, error) {
	active, err := s.streaks.FindActiveStreak(ctx, habit.UserID, habit.ID)
	if errors.Is(err, models.ErrNotFound) {
		return s.startStreak(ctx, habit, today)
	}
	if err != nil {
		return nil, err
	}

	yesterday := today.AddDays(-1)
	prev, err := s.tasks.FindTaskByDate(ctx, habit.UserID, habit.ID, yesterday)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if prev != nil && prev.IsCompleted {
		return active, nil
	}

	retired, err := s.streaks.RetireStreak(ctx, active.ID, yesterday)
	if err != nil {
		return nil, fmt.Errorf("retire streak %s: %w", active.ID, err)
	}
	if retired {
		s.metrics.StreakRetired()
		s.log.Info("streak broken",
			zap.String("habit_id", habit.ID.String()),
			zap.Int("count", active.Count),
			zap.Stringer("end_date", yesterday),
		)
	}
	return s.startStreak(ctx, habit, today)
}

func (s *StreakService) startStreak(ctx context.Context, habit *models.Habit, today models.Day) (*models.Streak, error) {
	st := &models.Streak{
		UserID:    habit.UserID,
		HabitID:   habit.ID,
		StartDate: today,
		Count:     0,
		IsActive:  true,
	}
	if err := s.streaks.CreateStreak(ctx, st); err != nil {
		return nil, fmt.Errorf("create streak: %w", err)
	}
	return st, nil
}

func existingTaskMessage(t *models.HabitTask) string {
	if t.IsCompleted {
		return msgTaskCompleted
	}
	return msgTaskExists
}

func (s *StreakService) attachStreaks(ctx context.Context, userID uuid.UUID, status *DailyStatus) error {
	current, all, err := s.snapshot(ctx, userID, status.HabitID)
	if err != nil {
		return err
	}
	status.CurrentStreak = current
	status.AllStreaks = all
	return nil
}

// snapshot returns the active streak (nil when none) and every streak, newest first.
func (s *StreakService) snapshot(ctx context.Context, userID, habitID uuid.UUID) (*models.Streak, []models.Streak, error) {
	current, err := s.streaks.FindActiveStreak(ctx, userID, habitID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}
	all, err := s.streaks.ListStreaks(ctx, userID, habitID)
	if err != nil {
		return nil, nil, err
	}
	return current, all, nil
}

// EnsureAllDailyTasks runs EnsureDailyTask for every habit of the user.
// A failing habit is reported in its own entry and does not stop the rest.
func (s *StreakService) EnsureAllDailyTasks(ctx context.Context, userID uuid.UUID, today models.Day) ([]DailyStatus, error) {
	habits, err := s.habits.ListHabitsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]DailyStatus, 0, len(habits))
	for i := range habits {
		h := &habits[i]
		status, err := s.ensure(ctx, h, today)
		if err != nil {
			s.log.Warn("ensure daily task failed",
				zap.String("habit_id", h.ID.String()),
				zap.Error(err),
			)
			out = append(out, DailyStatus{
				HabitID:    h.ID,
				HabitName:  h.Name,
				Habit:      h,
				Message:    msgStatusFailed,
				AllStreaks: []models.Streak{},
				Error:      err.Error(),
			})
			continue
		}
		out = append(out, *status)
	}
	return out, nil
}

func (s *StreakService) GetStreaksForHabit(ctx context.Context, userID, habitID uuid.UUID) (*HabitStreaks, error) {
	habit, err := ownedHabit(ctx, s.habits, userID, habitID)
	if err != nil {
		return nil, err
	}
	return s.streaksFor(ctx, habit)
}

func (s *StreakService) GetStreaksForUser(ctx context.Context, userID uuid.UUID) ([]HabitStreaks, error) {
	habits, err := s.habits.ListHabitsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]HabitStreaks, 0, len(habits))
	for i := range habits {
		hs, err := s.streaksFor(ctx, &habits[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *hs)
	}
	return out, nil
}

func (s *StreakService) streaksFor(ctx context.Context, habit *models.Habit) (*HabitStreaks, error) {
	current, all, err := s.snapshot(ctx, habit.UserID, habit.ID)
	if err != nil {
		return nil, err
	}
	hs := &HabitStreaks{
		HabitID:       habit.ID,
		HabitName:     habit.Name,
		CurrentStreak: current,
		AllStreaks:    all,
		HabitTasks:    []models.HabitTask{},
	}
	if current != nil {
		if hs.HabitTasks, err = s.tasks.ListTasksByStreak(ctx, current.ID); err != nil {
			return nil, err
		}
	}
	return hs, nil
}
