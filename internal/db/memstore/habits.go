package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

// withCategoryName must be called with mu held.
func (s *Store) withCategoryName(h models.Habit) models.Habit {
	h.CategoryName = nil
	if h.CategoryID != nil {
		if c, ok := s.categories[*h.CategoryID]; ok {
			name := c.Name
			h.CategoryName = &name
		}
	}
	return h
}

func (s *Store) CreateHabit(ctx context.Context, h *models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[h.UserID]; !ok {
		return fmt.Errorf("habit user %s: %w", h.UserID, models.ErrNotFound)
	}
	if h.CategoryID != nil {
		if _, ok := s.categories[*h.CategoryID]; !ok {
			return fmt.Errorf("habit category %s: %w", *h.CategoryID, models.ErrNotFound)
		}
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	now := s.now()
	h.CreatedAt, h.UpdatedAt = now, now
	*h = s.withCategoryName(*h)
	s.habits[h.ID] = *h
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id uuid.UUID) (*models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok {
		return nil, fmt.Errorf("habit %s: %w", id, models.ErrNotFound)
	}
	h = s.withCategoryName(h)
	return &h, nil
}

func (s *Store) ListHabitsByUser(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Habit, 0)
	for _, h := range s.habits {
		if h.UserID == userID && h.Status != models.HabitDeleted {
			out = append(out, s.withCategoryName(h))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateHabit(ctx context.Context, h *models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.habits[h.ID]
	if !ok {
		return fmt.Errorf("habit %s: %w", h.ID, models.ErrNotFound)
	}
	if h.CategoryID != nil {
		if _, ok := s.categories[*h.CategoryID]; !ok {
			return fmt.Errorf("habit category %s: %w", *h.CategoryID, models.ErrNotFound)
		}
	}
	cur.Name = h.Name
	cur.Status = h.Status
	cur.CategoryID = h.CategoryID
	cur.StartDate = h.StartDate
	cur.UpdatedAt = s.now()
	cur = s.withCategoryName(cur)
	s.habits[h.ID] = cur
	*h = cur
	return nil
}

func (s *Store) FindActiveStreak(ctx context.Context, userID, habitID uuid.UUID) (*models.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.streaks {
		if st.UserID == userID && st.HabitID == habitID && st.IsActive {
			return &st, nil
		}
	}
	return nil, fmt.Errorf("active streak for habit %s: %w", habitID, models.ErrNotFound)
}

func (s *Store) ListStreaks(ctx context.Context, userID, habitID uuid.UUID) ([]models.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Streak, 0)
	for _, st := range s.streaks {
		if st.UserID == userID && st.HabitID == habitID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

func (s *Store) CreateStreak(ctx context.Context, st *models.Streak) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.IsActive {
		for _, existing := range s.streaks {
			if existing.UserID == st.UserID && existing.HabitID == st.HabitID && existing.IsActive {
				return fmt.Errorf("active streak for habit %s: %w", st.HabitID, models.ErrAlreadyExists)
			}
		}
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	now := s.now()
	st.CreatedAt, st.UpdatedAt = now, now
	s.streaks[st.ID] = *st
	return nil
}

func (s *Store) IncrementStreak(ctx context.Context, id uuid.UUID) (*models.Streak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streaks[id]
	if !ok {
		return nil, fmt.Errorf("streak %s: %w", id, models.ErrNotFound)
	}
	st.Count++
	st.UpdatedAt = s.now()
	s.streaks[id] = st
	return &st, nil
}

func (s *Store) RetireStreak(ctx context.Context, id uuid.UUID, endDate models.Day) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streaks[id]
	if !ok {
		return false, fmt.Errorf("streak %s: %w", id, models.ErrNotFound)
	}
	if !st.IsActive {
		return false, nil
	}
	st.IsActive = false
	st.EndDate = &endDate
	st.UpdatedAt = s.now()
	s.streaks[id] = st
	return true, nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.HabitTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("habit task %s: %w", id, models.ErrNotFound)
	}
	return &t, nil
}

func (s *Store) FindTaskByDate(ctx context.Context, userID, habitID uuid.UUID, day models.Day) (*models.HabitTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.findTask(userID, habitID, day); ok {
		return &t, nil
	}
	return nil, fmt.Errorf("habit task %s on %s: %w", habitID, day, models.ErrNotFound)
}

func (s *Store) findTask(userID, habitID uuid.UUID, day models.Day) (models.HabitTask, bool) {
	for _, t := range s.tasks {
		if t.UserID == userID && t.HabitID == habitID && t.TaskDate == day {
			return t, true
		}
	}
	return models.HabitTask{}, false
}

func (s *Store) ListTasksByStreak(ctx context.Context, streakID uuid.UUID) ([]models.HabitTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.HabitTask, 0)
	for _, t := range s.tasks {
		if t.StreakID == streakID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskDate.Before(out[j].TaskDate) })
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, t *models.HabitTask) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findTask(t.UserID, t.HabitID, t.TaskDate); ok {
		*t = existing
		return false, nil
	}
	if _, ok := s.streaks[t.StreakID]; !ok {
		return false, fmt.Errorf("habit task streak %s: %w", t.StreakID, models.ErrNotFound)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks[t.ID] = *t
	return true, nil
}

func (s *Store) MarkTaskComplete(ctx context.Context, id uuid.UUID, at time.Time) (*models.HabitTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("habit task %s: %w", id, models.ErrNotFound)
	}
	if t.IsCompleted {
		return nil, fmt.Errorf("habit task %s: %w", id, models.ErrAlreadyCompleted)
	}
	t.IsCompleted = true
	t.CompletedAt = &at
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return &t, nil
}

func (s *Store) CountTasksForDay(ctx context.Context, userID uuid.UUID, day models.Day) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, done int
	for _, t := range s.tasks {
		if t.UserID == userID && t.TaskDate == day {
			total++
			if t.IsCompleted {
				done++
			}
		}
	}
	return total, done, nil
}
