package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

// withUsernames must be called with mu held.
func (s *Store) withUsernames(r models.UserRelationship) models.UserRelationship {
	r.Username = s.users[r.UserID].Username
	r.TargetUsername = s.users[r.TargetUserID].Username
	return r
}

func (s *Store) CreateRelationship(ctx context.Context, r *models.UserRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[r.UserID]; !ok {
		return fmt.Errorf("relationship user %s: %w", r.UserID, models.ErrNotFound)
	}
	if _, ok := s.users[r.TargetUserID]; !ok {
		return fmt.Errorf("relationship target %s: %w", r.TargetUserID, models.ErrNotFound)
	}
	for _, existing := range s.relationships {
		if existing.UserID == r.UserID && existing.TargetUserID == r.TargetUserID {
			return fmt.Errorf("relationship %s -> %s: %w", r.UserID, r.TargetUserID, models.ErrAlreadyExists)
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now
	*r = s.withUsernames(*r)
	s.relationships[r.ID] = *r
	return nil
}

func (s *Store) GetRelationship(ctx context.Context, id uuid.UUID) (*models.UserRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.relationships[id]
	if !ok {
		return nil, fmt.Errorf("relationship %s: %w", id, models.ErrNotFound)
	}
	r = s.withUsernames(r)
	return &r, nil
}

func (s *Store) FindRelationship(ctx context.Context, userID, targetID uuid.UUID) (*models.UserRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.relationships {
		if r.UserID == userID && r.TargetUserID == targetID {
			r = s.withUsernames(r)
			return &r, nil
		}
	}
	return nil, fmt.Errorf("relationship %s -> %s: %w", userID, targetID, models.ErrNotFound)
}

func (s *Store) UpdateRelationshipType(ctx context.Context, id uuid.UUID, t models.RelationshipType) (*models.UserRelationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.relationships[id]
	if !ok {
		return nil, fmt.Errorf("relationship %s: %w", id, models.ErrNotFound)
	}
	r.Type = t
	r.UpdatedAt = s.now()
	s.relationships[id] = r
	r = s.withUsernames(r)
	return &r, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.relationships[id]; !ok {
		return fmt.Errorf("relationship %s: %w", id, models.ErrNotFound)
	}
	delete(s.relationships, id)
	return nil
}

func (s *Store) DeleteRelationshipsBetween(ctx context.Context, a, b uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.relationships {
		if (r.UserID == a && r.TargetUserID == b) || (r.UserID == b && r.TargetUserID == a) {
			delete(s.relationships, id)
		}
	}
	return nil
}

func (s *Store) listRelationships(match func(models.UserRelationship) bool) []models.UserRelationship {
	out := make([]models.UserRelationship, 0)
	for _, r := range s.relationships {
		if match(r) {
			out = append(out, s.withUsernames(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listRelationships(func(r models.UserRelationship) bool {
		return r.Type == models.RelationshipFriend && (r.UserID == userID || r.TargetUserID == userID)
	}), nil
}

func (s *Store) ListIncoming(ctx context.Context, userID uuid.UUID, t models.RelationshipType) ([]models.UserRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listRelationships(func(r models.UserRelationship) bool {
		return r.Type == t && r.TargetUserID == userID
	}), nil
}

func (s *Store) ListOutgoing(ctx context.Context, userID uuid.UUID, t models.RelationshipType) ([]models.UserRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listRelationships(func(r models.UserRelationship) bool {
		return r.Type == t && r.UserID == userID
	}), nil
}

func (s *Store) TopStreaks(ctx context.Context, categoryID *uuid.UUID, limit int) ([]models.StreakStanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		models.StreakStanding
		createdAt int64
	}
	rows := make([]ranked, 0)
	for _, st := range s.streaks {
		if st.Count <= 0 {
			continue
		}
		h, ok := s.habits[st.HabitID]
		if !ok || h.CategoryID == nil {
			continue
		}
		if categoryID != nil && *h.CategoryID != *categoryID {
			continue
		}
		rows = append(rows, ranked{
			StreakStanding: models.StreakStanding{
				UserID:       st.UserID,
				Username:     s.users[st.UserID].Username,
				HabitID:      h.ID,
				HabitName:    h.Name,
				CategoryID:   *h.CategoryID,
				CategoryName: s.categories[*h.CategoryID].Name,
				Count:        st.Count,
				IsActive:     st.IsActive,
			},
			createdAt: st.CreatedAt.UnixNano(),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].createdAt > rows[j].createdAt
	})
	out := make([]models.StreakStanding, 0, len(rows))
	for i, r := range rows {
		if limit > 0 && i >= limit {
			break
		}
		out = append(out, r.StreakStanding)
	}
	return out, nil
}

func (s *Store) TopCategoryExperience(ctx context.Context, categoryID uuid.UUID, limit int) ([]models.ExperienceStanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ExperienceStanding, 0)
	for k, e := range s.experience {
		if k.category != categoryID {
			continue
		}
		out = append(out, models.ExperienceStanding{
			UserID:          k.user,
			Username:        s.users[k.user].Username,
			CategoryID:      k.category,
			CategoryName:    s.categories[k.category].Name,
			TotalExperience: e.TotalExperience,
			CategoriesCount: 1,
		})
	}
	sortStandings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) TopUserExperience(ctx context.Context, limit int) ([]models.ExperienceStanding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := make(map[uuid.UUID]*models.ExperienceStanding)
	for k, e := range s.experience {
		row, ok := byUser[k.user]
		if !ok {
			row = &models.ExperienceStanding{UserID: k.user, Username: s.users[k.user].Username}
			byUser[k.user] = row
		}
		row.TotalExperience += e.TotalExperience
		row.CategoriesCount++
	}
	out := make([]models.ExperienceStanding, 0, len(byUser))
	for _, row := range byUser {
		out = append(out, *row)
	}
	sortStandings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortStandings(rows []models.ExperienceStanding) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalExperience != rows[j].TotalExperience {
			return rows[i].TotalExperience > rows[j].TotalExperience
		}
		return rows[i].Username < rows[j].Username
	})
}

func (s *Store) Overview(ctx context.Context, today models.Day) (*models.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &models.Overview{TotalUsers: len(s.users)}
	for _, h := range s.habits {
		if h.Status == models.HabitActive {
			out.ActiveHabits++
		}
	}
	for _, t := range s.tasks {
		if t.TaskDate == today {
			out.TasksCreatedToday++
			if t.IsCompleted {
				out.TasksCompletedToday++
			}
		}
	}
	for _, st := range s.streaks {
		if st.IsActive {
			out.ActiveStreaks++
		}
	}
	for _, tx := range s.ledger {
		out.ExperienceAwarded += tx.ExperienceGained
	}
	return out, nil
}
