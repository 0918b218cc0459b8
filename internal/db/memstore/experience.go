package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

func (s *Store) GetOrCreateCategoryExperience(ctx context.Context, userID, categoryID uuid.UUID) (*models.UserCategoryExperience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.ensureExperience(userID, categoryID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ensureExperience must be called with mu held for writing.
func (s *Store) ensureExperience(userID, categoryID uuid.UUID) (models.UserCategoryExperience, error) {
	k := expKey{userID, categoryID}
	if e, ok := s.experience[k]; ok {
		return e, nil
	}
	if _, ok := s.users[userID]; !ok {
		return models.UserCategoryExperience{}, fmt.Errorf("experience user %s: %w", userID, models.ErrNotFound)
	}
	if _, ok := s.categories[categoryID]; !ok {
		return models.UserCategoryExperience{}, fmt.Errorf("experience category %s: %w", categoryID, models.ErrNotFound)
	}
	now := s.now()
	e := models.UserCategoryExperience{
		ID:         uuid.New(),
		UserID:     userID,
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.experience[k] = e
	return e, nil
}

func (s *Store) AddExperience(ctx context.Context, userID, categoryID uuid.UUID, delta int) (*models.UserCategoryExperience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.ensureExperience(userID, categoryID)
	if err != nil {
		return nil, err
	}
	e.TotalExperience = max(0, e.TotalExperience+delta)
	e.UpdatedAt = s.now()
	s.experience[expKey{userID, categoryID}] = e
	return &e, nil
}

func (s *Store) SetCategoryExperience(ctx context.Context, userID, categoryID uuid.UUID, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.ensureExperience(userID, categoryID)
	if err != nil {
		return err
	}
	e.TotalExperience = max(0, total)
	e.UpdatedAt = s.now()
	s.experience[expKey{userID, categoryID}] = e
	return nil
}

func (s *Store) TotalExperience(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for k, e := range s.experience {
		if k.user == userID {
			total += e.TotalExperience
		}
	}
	return total, nil
}

func (s *Store) ListCategoryExperience(ctx context.Context, userID uuid.UUID) ([]models.CategoryExperience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.categoryExperienceFor(userID), nil
}

func (s *Store) categoryExperienceFor(userID uuid.UUID) []models.CategoryExperience {
	out := make([]models.CategoryExperience, 0)
	for k, e := range s.experience {
		if k.user != userID {
			continue
		}
		out = append(out, models.CategoryExperience{
			CategoryID:      k.category,
			CategoryName:    s.categories[k.category].Name,
			TotalExperience: e.TotalExperience,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalExperience != out[j].TotalExperience {
			return out[i].TotalExperience > out[j].TotalExperience
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

func (s *Store) AppendTransaction(ctx context.Context, tx *models.ExperienceTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[tx.UserID]; !ok {
		return fmt.Errorf("experience transaction user %s: %w", tx.UserID, models.ErrNotFound)
	}
	if _, ok := s.categories[tx.CategoryID]; !ok {
		return fmt.Errorf("experience transaction category %s: %w", tx.CategoryID, models.ErrNotFound)
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = s.now()
	s.ledger = append(s.ledger, *tx)
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, f models.TransactionFilter, limit, offset int) ([]models.TransactionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.TransactionView, 0)
	// Newest first; ledger is append-only so reverse order is insertion order.
	for i := len(s.ledger) - 1; i >= 0; i-- {
		tx := s.ledger[i]
		if tx.UserID != userID {
			continue
		}
		if f.CategoryID != nil && tx.CategoryID != *f.CategoryID {
			continue
		}
		if f.Type != nil && tx.Type != *f.Type {
			continue
		}
		if f.Since != nil && tx.CreatedAt.Before(*f.Since) {
			continue
		}
		view := models.TransactionView{
			ExperienceTransaction: tx,
			CategoryName:          s.categories[tx.CategoryID].Name,
		}
		if tx.HabitTaskID != nil {
			if task, ok := s.tasks[*tx.HabitTaskID]; ok {
				habitID := task.HabitID
				view.HabitID = &habitID
				if h, ok := s.habits[habitID]; ok {
					name := h.Name
					view.HabitName = &name
				}
			}
		}
		matched = append(matched, view)
	}

	if offset >= len(matched) {
		return []models.TransactionView{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) AggregateStats(ctx context.Context, userID, categoryID uuid.UUID) (*models.ExperienceStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.ExperienceStats{}
	for _, tx := range s.ledger {
		if tx.UserID != userID || tx.CategoryID != categoryID {
			continue
		}
		if stats.TotalTransactions == 0 {
			stats.MaxExperience, stats.MinExperience = tx.ExperienceGained, tx.ExperienceGained
		}
		stats.TotalTransactions++
		stats.TotalExperience += tx.ExperienceGained
		stats.MaxExperience = max(stats.MaxExperience, tx.ExperienceGained)
		stats.MinExperience = min(stats.MinExperience, tx.ExperienceGained)
	}
	if stats.TotalTransactions > 0 {
		stats.AverageExperience = float64(stats.TotalExperience) / float64(stats.TotalTransactions)
	}
	return stats, nil
}

func (s *Store) StreakBonusStats(ctx context.Context, userID uuid.UUID) (*models.StreakBonusStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.StreakBonusStats{}
	streakSum := 0
	for _, tx := range s.ledger {
		if tx.UserID != userID || tx.StreakCount == nil || tx.Multiplier == nil || *tx.Multiplier <= 1 {
			continue
		}
		exp := float64(tx.ExperienceGained)
		stats.HighestStreakBonus = max(stats.HighestStreakBonus, exp-exp/(*tx.Multiplier))
		streakSum += *tx.StreakCount
		stats.TotalStreakBonuses++
	}
	if stats.TotalStreakBonuses > 0 {
		stats.AverageStreakCount = float64(streakSum) / float64(stats.TotalStreakBonuses)
	}
	return stats, nil
}

func (s *Store) SumExperienceSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, tx := range s.ledger {
		if tx.UserID == userID && !tx.CreatedAt.Before(since) {
			total += tx.ExperienceGained
		}
	}
	return total, nil
}

func (s *Store) ExperienceByDay(ctx context.Context, userID uuid.UUID, from, to models.Day, loc *time.Location) ([]models.DailyExperience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if loc == nil {
		loc = time.UTC
	}
	byDay := make(map[models.Day]int)
	for _, tx := range s.ledger {
		if tx.UserID == userID {
			byDay[models.DayOf(tx.CreatedAt.In(loc))] += tx.ExperienceGained
		}
	}
	out := make([]models.DailyExperience, 0)
	for d := from; !d.After(to); d = d.AddDays(1) {
		out = append(out, models.DailyExperience{Day: d, Experience: byDay[d]})
	}
	return out, nil
}

func (s *Store) SumLedgerByCategory(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]int)
	for _, tx := range s.ledger {
		if tx.UserID == userID {
			out[tx.CategoryID] += tx.ExperienceGained
		}
	}
	return out, nil
}
