package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const habitSelect = `
	SELECT h.id, h.name, h.status, h.user_id, h.category_id, c.name AS category_name,
	       h.start_date, h.created_at, h.updated_at
	FROM habits h
	LEFT JOIN categories c ON c.id = h.category_id`

const streakColumns = `id, user_id, habit_id, start_date, end_date, count, is_active, created_at, updated_at`

const taskColumns = `id, user_id, habit_id, streak_id, task_date, is_completed, completed_at, created_at, updated_at`

func (s *Store) CreateHabit(ctx context.Context, h *models.Habit) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO habits (id, name, status, user_id, category_id, start_date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID, h.Name, h.Status, h.UserID, h.CategoryID, h.StartDate)
	if err != nil {
		return mapError(err, "habit", h.ID)
	}
	return s.reloadHabit(ctx, h)
}

func (s *Store) reloadHabit(ctx context.Context, h *models.Habit) error {
	got, err := s.GetHabit(ctx, h.ID)
	if err != nil {
		return err
	}
	*h = *got
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	var h models.Habit
	if err := s.q(ctx).GetContext(ctx, &h, habitSelect+` WHERE h.id = $1`, id); err != nil {
		return nil, mapError(err, "habit", id)
	}
	return &h, nil
}

func (s *Store) ListHabitsByUser(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	out := make([]models.Habit, 0)
	err := s.q(ctx).SelectContext(ctx, &out,
		habitSelect+` WHERE h.user_id = $1 AND h.status <> 'Deleted' ORDER BY h.created_at ASC`, userID)
	if err != nil {
		return nil, mapError(err, "habits of user", userID)
	}
	return out, nil
}

func (s *Store) UpdateHabit(ctx context.Context, h *models.Habit) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE habits SET name = $2, status = $3, category_id = $4, start_date = $5, updated_at = NOW()
		WHERE id = $1`,
		h.ID, h.Name, h.Status, h.CategoryID, h.StartDate)
	if err != nil {
		return mapError(err, "habit", h.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("habit %s: %w", h.ID, models.ErrNotFound)
	}
	return s.reloadHabit(ctx, h)
}

func (s *Store) FindActiveStreak(ctx context.Context, userID, habitID uuid.UUID) (*models.Streak, error) {
	var st models.Streak
	err := s.q(ctx).GetContext(ctx, &st,
		`SELECT `+streakColumns+` FROM streaks WHERE user_id = $1 AND habit_id = $2 AND is_active`, userID, habitID)
	if err != nil {
		return nil, mapError(err, "active streak of habit", habitID)
	}
	return &st, nil
}

func (s *Store) ListStreaks(ctx context.Context, userID, habitID uuid.UUID) ([]models.Streak, error) {
	out := make([]models.Streak, 0)
	err := s.q(ctx).SelectContext(ctx, &out, `
		SELECT `+streakColumns+` FROM streaks
		WHERE user_id = $1 AND habit_id = $2
		ORDER BY created_at DESC, start_date DESC`, userID, habitID)
	if err != nil {
		return nil, mapError(err, "streaks of habit", habitID)
	}
	return out, nil
}

func (s *Store) CreateStreak(ctx context.Context, st *models.Streak) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	err := s.q(ctx).GetContext(ctx, st, `
		INSERT INTO streaks (id, user_id, habit_id, start_date, end_date, count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+streakColumns,
		st.ID, st.UserID, st.HabitID, st.StartDate, st.EndDate, st.Count, st.IsActive)
	return mapError(err, "streak", st.ID)
}

func (s *Store) IncrementStreak(ctx context.Context, id uuid.UUID) (*models.Streak, error) {
	var st models.Streak
	err := s.q(ctx).GetContext(ctx, &st, `
		UPDATE streaks SET count = count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+streakColumns, id)
	if err != nil {
		return nil, mapError(err, "streak", id)
	}
	return &st, nil
}

func (s *Store) RetireStreak(ctx context.Context, id uuid.UUID, endDate models.Day) (bool, error) {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE streaks SET is_active = false, end_date = $2, updated_at = NOW()
		WHERE id = $1 AND is_active`, id, endDate)
	if err != nil {
		return false, mapError(err, "streak", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.HabitTask, error) {
	var t models.HabitTask
	if err := s.q(ctx).GetContext(ctx, &t, `SELECT `+taskColumns+` FROM habit_tasks WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "habit task", id)
	}
	return &t, nil
}

func (s *Store) FindTaskByDate(ctx context.Context, userID, habitID uuid.UUID, day models.Day) (*models.HabitTask, error) {
	var t models.HabitTask
	err := s.q(ctx).GetContext(ctx, &t, `
		SELECT `+taskColumns+` FROM habit_tasks
		WHERE user_id = $1 AND habit_id = $2 AND task_date = $3`, userID, habitID, day)
	if err != nil {
		return nil, mapError(err, "habit task on", day)
	}
	return &t, nil
}

func (s *Store) ListTasksByStreak(ctx context.Context, streakID uuid.UUID) ([]models.HabitTask, error) {
	out := make([]models.HabitTask, 0)
	err := s.q(ctx).SelectContext(ctx, &out,
		`SELECT `+taskColumns+` FROM habit_tasks WHERE streak_id = $1 ORDER BY task_date ASC`, streakID)
	if err != nil {
		return nil, mapError(err, "tasks of streak", streakID)
	}
	return out, nil
}

// CreateTask relies on the (user, habit, task_date) constraint: a losing
// concurrent insert reads back the winner's row.
func (s *Store) CreateTask(ctx context.Context, t *models.HabitTask) (bool, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := s.q(ctx).GetContext(ctx, t, `
		INSERT INTO habit_tasks (id, user_id, habit_id, streak_id, task_date, is_completed)
		VALUES ($1, $2, $3, $4, $5, false)
		ON CONFLICT (user_id, habit_id, task_date) DO NOTHING
		RETURNING `+taskColumns,
		t.ID, t.UserID, t.HabitID, t.StreakID, t.TaskDate)
	if err == nil {
		return true, nil
	}
	if !errors.Is(mapError(err, "", nil), models.ErrNotFound) {
		return false, mapError(err, "habit task", t.ID)
	}
	existing, err := s.FindTaskByDate(ctx, t.UserID, t.HabitID, t.TaskDate)
	if err != nil {
		return false, err
	}
	*t = *existing
	return false, nil
}

func (s *Store) MarkTaskComplete(ctx context.Context, id uuid.UUID, at time.Time) (*models.HabitTask, error) {
	var t models.HabitTask
	err := s.q(ctx).GetContext(ctx, &t, `
		UPDATE habit_tasks SET is_completed = true, completed_at = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_completed
		RETURNING `+taskColumns, id, at)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(mapError(err, "", nil), models.ErrNotFound) {
		return nil, mapError(err, "habit task", id)
	}
	// Zero rows: either the task is gone or someone else completed it.
	if _, getErr := s.GetTask(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("habit task %s: %w", id, models.ErrAlreadyCompleted)
}

func (s *Store) CountTasksForDay(ctx context.Context, userID uuid.UUID, day models.Day) (int, int, error) {
	var row struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
	}
	err := s.q(ctx).GetContext(ctx, &row, `
		SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_completed) AS completed
		FROM habit_tasks WHERE user_id = $1 AND task_date = $2`, userID, day)
	if err != nil {
		return 0, 0, mapError(err, "tasks of user", userID)
	}
	return row.Total, row.Completed, nil
}
