package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

type LeaderboardType string

const (
	StreakByCategory LeaderboardType = "streak-by-category"
	StreakByUser     LeaderboardType = "streak-by-user"
	LevelByCategory  LeaderboardType = "level-by-category"
	LevelByUser      LeaderboardType = "level-by-user"

	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

var leaderboardTitles = map[LeaderboardType]string{
	StreakByCategory: "Streak by Category",
	StreakByUser:     "Streak by User",
	LevelByCategory:  "Level by Category",
	LevelByUser:      "Level by User",
}

func (t LeaderboardType) needsCategory() bool {
	return t == StreakByCategory || t == LevelByCategory
}

type LeaderboardQuery struct {
	Type       LeaderboardType
	CategoryID *uuid.UUID
	Limit      int
}

type HabitRef struct {
	HabitID      uuid.UUID `json:"habit_id"`
	HabitName    string    `json:"habit_name"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
}

type TopCategory struct {
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name"`
	Level        int       `json:"level"`
	Experience   int       `json:"experience"`
}

// LeaderboardEntry carries the fields of every board type; unused ones are
// omitted from JSON.
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`

	// streak boards
	StreakCount    *int      `json:"streak_count,omitempty"`
	IsActive       *bool     `json:"is_active,omitempty"`
	Habit          *HabitRef `json:"habit,omitempty"`
	TopStreakHabit *HabitRef `json:"top_streak_habit,omitempty"`

	// level boards
	CategoryID      *uuid.UUID   `json:"category_id,omitempty"`
	CategoryName    string       `json:"category_name,omitempty"`
	TotalExperience *int         `json:"total_experience,omitempty"`
	Level           *int         `json:"level,omitempty"`
	TotalLevel      *int         `json:"total_level,omitempty"`
	CategoriesCount *int         `json:"categories_count,omitempty"`
	TopCategory     *TopCategory `json:"top_category,omitempty"`
}

type Leaderboard struct {
	Title      string             `json:"type"`
	Type       LeaderboardType    `json:"leaderboard_type"`
	CategoryID *uuid.UUID         `json:"category_id"`
	Limit      int                `json:"limit"`
	Entries    []LeaderboardEntry `json:"entries"`
	Count      int                `json:"count"`
}

type LeaderboardService struct {
	boards     leaderboardStore
	categories categoryStore
	experience experienceStore
	curve      *LevelCurve
}

func NewLeaderboardService(boards leaderboardStore, categories categoryStore, experience experienceStore, curve *LevelCurve) *LeaderboardService {
	return &LeaderboardService{boards: boards, categories: categories, experience: experience, curve: curve}
}

func (s *LeaderboardService) Get(ctx context.Context, q LeaderboardQuery) (*Leaderboard, error) {
	ve := &models.ValidationError{}
	title, ok := leaderboardTitles[q.Type]
	if !ok {
		ve.Add("type", "must be one of streak-by-category, streak-by-user, level-by-category, level-by-user")
	}
	if q.Limit == 0 {
		q.Limit = defaultLeaderboardLimit
	}
	if q.Limit < 1 || q.Limit > maxLeaderboardLimit {
		ve.Add("limit", fmt.Sprintf("must be between 1 and %d", maxLeaderboardLimit))
	}
	if ok && q.Type.needsCategory() && q.CategoryID == nil {
		ve.Add("category_id", fmt.Sprintf("required for %s leaderboard", q.Type))
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}
	if q.CategoryID != nil {
		if _, err := s.categories.GetCategory(ctx, *q.CategoryID); err != nil {
			return nil, err
		}
	}

	var (
		entries []LeaderboardEntry
		err     error
	)
	switch q.Type {
	case StreakByCategory:
		entries, err = s.streaks(ctx, q.CategoryID, q.Limit, false)
	case StreakByUser:
		entries, err = s.streaks(ctx, nil, q.Limit, true)
	case LevelByCategory:
		entries, err = s.categoryLevels(ctx, *q.CategoryID, q.Limit)
	case LevelByUser:
		entries, err = s.userLevels(ctx, q.Limit)
	}
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{Title: title, Type: q.Type, Limit: q.Limit, Entries: entries, Count: len(entries)}
	if q.Type.needsCategory() {
		board.CategoryID = q.CategoryID
	}
	return board, nil
}

func (s *LeaderboardService) streaks(ctx context.Context, categoryID *uuid.UUID, limit int, byUser bool) ([]LeaderboardEntry, error) {
	rows, err := s.boards.TopStreaks(ctx, categoryID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		count, active := r.Count, r.IsActive
		ref := &HabitRef{HabitID: r.HabitID, HabitName: r.HabitName, CategoryID: r.CategoryID, CategoryName: r.CategoryName}
		e := LeaderboardEntry{
			Rank:        i + 1,
			UserID:      r.UserID,
			Username:    r.Username,
			StreakCount: &count,
			IsActive:    &active,
		}
		if byUser {
			e.TopStreakHabit = ref
		} else {
			e.Habit = ref
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *LeaderboardService) categoryLevels(ctx context.Context, categoryID uuid.UUID, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.boards.TopCategoryExperience(ctx, categoryID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		catID, total := r.CategoryID, r.TotalExperience
		level := s.curve.LevelInfo(total).CurrentLevel
		out = append(out, LeaderboardEntry{
			Rank:            i + 1,
			UserID:          r.UserID,
			Username:        r.Username,
			CategoryID:      &catID,
			CategoryName:    r.CategoryName,
			TotalExperience: &total,
			Level:           &level,
		})
	}
	return out, nil
}

// userLevels takes the top users by summed experience and re-ranks them
// by total level, breaking ties on experience.
func (s *LeaderboardService) userLevels(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.boards.TopUserExperience(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		cats, err := s.experience.ListCategoryExperience(ctx, r.UserID)
		if err != nil {
			return nil, err
		}
		ul := s.curve.CalculateUserLevel(cats)
		total, count, totalLevel := r.TotalExperience, r.CategoriesCount, ul.TotalLevel
		e := LeaderboardEntry{
			UserID:          r.UserID,
			Username:        r.Username,
			TotalExperience: &total,
			TotalLevel:      &totalLevel,
			CategoriesCount: &count,
		}
		// ListCategoryExperience is ordered by experience, highest first.
		if len(cats) > 0 {
			top := cats[0]
			e.TopCategory = &TopCategory{
				CategoryID:   top.CategoryID,
				CategoryName: top.CategoryName,
				Level:        s.curve.LevelInfo(top.TotalExperience).CurrentLevel,
				Experience:   top.TotalExperience,
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if *out[i].TotalLevel != *out[j].TotalLevel {
			return *out[i].TotalLevel > *out[j].TotalLevel
		}
		return *out[i].TotalExperience > *out[j].TotalExperience
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
