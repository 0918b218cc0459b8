package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const (
	DefaultHistoryLimit = 50
	maxHistoryLimit     = 100
	trendDays           = 7
)

type CategoryLevelDetail struct {
	CategoryID            uuid.UUID `json:"category_id"`
	CategoryName          string    `json:"category_name"`
	Level                 int       `json:"level"`
	Experience            int       `json:"experience"`
	ExperienceToNextLevel int       `json:"experience_to_next_level"`
	Progress              float64   `json:"progress"`
}

type UserLevels struct {
	TotalLevel      int                   `json:"total_level"`
	TotalExperience int                   `json:"total_experience"`
	CategoryLevels  []CategoryLevelDetail `json:"category_levels"`
}

type ExperienceSummary struct {
	TotalExperience   int                         `json:"total_experience"`
	TodayExperience   int                         `json:"today_experience"`
	CategoryBreakdown []models.CategoryExperience `json:"category_breakdown"`
}

type HistoryQuery struct {
	Limit      int
	Offset     int
	CategoryID *uuid.UUID
	Type       *models.TransactionType
}

type CategoryStats struct {
	Category    models.Category         `json:"category"`
	Level       LevelInfo               `json:"level"`
	Stats       models.ExperienceStats  `json:"stats"`
	StreakStats models.StreakBonusStats `json:"streak_stats"`
}

// ReconcileChange records a running total corrected from the ledger.
type ReconcileChange struct {
	CategoryID uuid.UUID `json:"category_id"`
	Before     int       `json:"before"`
	After      int       `json:"after"`
}

type AdjustInput struct {
	UserID      uuid.UUID
	CategoryID  uuid.UUID
	Amount      int
	Description string
}

// ExperienceService serves experience reads and the administrative writes
// that keep running totals in line with the ledger.
type ExperienceService struct {
	log        *zap.Logger
	tx         txManager
	users      userStore
	categories categoryStore
	experience experienceStore
	ledger     ledgerStore
	curve      *LevelCurve
	clock      models.Clock
}

func NewExperienceService(
	logger *zap.Logger,
	tx txManager,
	users userStore,
	categories categoryStore,
	experience experienceStore,
	ledger ledgerStore,
	curve *LevelCurve,
	clock models.Clock,
) *ExperienceService {
	return &ExperienceService{
		log:        logger.Named("experience"),
		tx:         tx,
		users:      users,
		categories: categories,
		experience: experience,
		ledger:     ledger,
		curve:      curve,
		clock:      clock,
	}
}

func (s *ExperienceService) Curve() *LevelCurve { return s.curve }

func (s *ExperienceService) Levels(ctx context.Context, userID uuid.UUID) (*UserLevels, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	cats, err := s.experience.ListCategoryExperience(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.levelsFrom(cats), nil
}

func (s *ExperienceService) levelsFrom(cats []models.CategoryExperience) *UserLevels {
	ul := s.curve.CalculateUserLevel(cats)
	out := &UserLevels{
		TotalLevel:      ul.TotalLevel,
		TotalExperience: ul.TotalExperience,
		CategoryLevels:  make([]CategoryLevelDetail, 0, len(cats)),
	}
	for _, ce := range cats {
		info := s.curve.LevelInfo(ce.TotalExperience)
		out.CategoryLevels = append(out.CategoryLevels, CategoryLevelDetail{
			CategoryID:            ce.CategoryID,
			CategoryName:          ce.CategoryName,
			Level:                 info.CurrentLevel,
			Experience:            ce.TotalExperience,
			ExperienceToNextLevel: info.ExperienceToNextLevel,
			Progress:              info.Progress,
		})
	}
	return out
}

func (s *ExperienceService) Summary(ctx context.Context, userID uuid.UUID) (*ExperienceSummary, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	total, err := s.experience.TotalExperience(ctx, userID)
	if err != nil {
		return nil, err
	}
	today, err := s.TodayExperience(ctx, userID)
	if err != nil {
		return nil, err
	}
	cats, err := s.experience.ListCategoryExperience(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ExperienceSummary{TotalExperience: total, TodayExperience: today, CategoryBreakdown: cats}, nil
}

// TodayExperience sums ledger rows created since local midnight.
func (s *ExperienceService) TodayExperience(ctx context.Context, userID uuid.UUID) (int, error) {
	now := s.clock.Now()
	midnight := models.DayOf(now).Time(now.Location())
	return s.ledger.SumExperienceSince(ctx, userID, midnight)
}

// Trend returns one entry per day for the week ending today, zero-filled.
func (s *ExperienceService) Trend(ctx context.Context, userID uuid.UUID, today models.Day) ([]models.DailyExperience, error) {
	return s.ledger.ExperienceByDay(ctx, userID, today.AddDays(-(trendDays - 1)), today, s.clock.Now().Location())
}

func (s *ExperienceService) History(ctx context.Context, userID uuid.UUID, q HistoryQuery) ([]models.TransactionView, error) {
	ve := &models.ValidationError{}
	if q.Limit == 0 {
		q.Limit = DefaultHistoryLimit
	}
	if q.Limit < 1 || q.Limit > maxHistoryLimit {
		ve.Add("limit", fmt.Sprintf("must be between 1 and %d", maxHistoryLimit))
	}
	if q.Offset < 0 {
		ve.Add("offset", "must be >= 0")
	}
	if q.Type != nil && !q.Type.Valid() {
		ve.Add("type", "unknown transaction type")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.ListTransactions(ctx, userID, models.TransactionFilter{
		CategoryID: q.CategoryID,
		Type:       q.Type,
	}, q.Limit, q.Offset)
}

func (s *ExperienceService) CategoryStats(ctx context.Context, userID, categoryID uuid.UUID) (*CategoryStats, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	cat, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	ce, err := s.experience.GetOrCreateCategoryExperience(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	stats, err := s.ledger.AggregateStats(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	bonus, err := s.ledger.StreakBonusStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CategoryStats{
		Category:    *cat,
		Level:       s.curve.LevelInfo(ce.TotalExperience),
		Stats:       *stats,
		StreakStats: *bonus,
	}, nil
}

// Reconcile rewrites a user's running totals from the ledger and reports
// what changed.
func (s *ExperienceService) Reconcile(ctx context.Context, userID uuid.UUID) ([]ReconcileChange, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	changes := make([]ReconcileChange, 0)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sums, err := s.ledger.SumLedgerByCategory(ctx, userID)
		if err != nil {
			return err
		}
		current, err := s.experience.ListCategoryExperience(ctx, userID)
		if err != nil {
			return err
		}

		seen := make(map[uuid.UUID]bool, len(current))
		for _, ce := range current {
			seen[ce.CategoryID] = true
			want := max(0, sums[ce.CategoryID])
			if want == ce.TotalExperience {
				continue
			}
			if err := s.experience.SetCategoryExperience(ctx, userID, ce.CategoryID, want); err != nil {
				return err
			}
			changes = append(changes, ReconcileChange{CategoryID: ce.CategoryID, Before: ce.TotalExperience, After: want})
		}
		for categoryID, sum := range sums {
			if seen[categoryID] {
				continue
			}
			want := max(0, sum)
			if err := s.experience.SetCategoryExperience(ctx, userID, categoryID, want); err != nil {
				return err
			}
			if want != 0 {
				changes = append(changes, ReconcileChange{CategoryID: categoryID, Before: 0, After: want})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.log.Warn("running totals reconciled", zap.String("user_id", userID.String()), zap.Int("changes", len(changes)))
	}
	return changes, nil
}

// Adjust records an ADMIN_ADJUSTMENT and applies it to the running total.
// A deduction larger than the current total is rejected, so the ledger sum
// never drifts from the total.
func (s *ExperienceService) Adjust(ctx context.Context, in AdjustInput) (*models.ExperienceTransaction, error) {
	in.Description = strings.TrimSpace(in.Description)
	ve := &models.ValidationError{}
	if in.Amount == 0 {
		ve.Add("amount", "must not be zero")
	}
	if in.CategoryID == uuid.Nil {
		ve.Add("category_id", "required")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	entry := &models.ExperienceTransaction{
		UserID:           in.UserID,
		CategoryID:       in.CategoryID,
		Type:             models.TxAdminAdjustment,
		ExperienceGained: in.Amount,
	}
	if in.Description != "" {
		entry.Description = &in.Description
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// The upsert locks the total's row until commit on PostgreSQL.
		current, err := s.experience.GetOrCreateCategoryExperience(ctx, in.UserID, in.CategoryID)
		if err != nil {
			return err
		}
		if current.TotalExperience+in.Amount < 0 {
			return models.NewValidationError("amount",
				fmt.Sprintf("would take the total below zero (current %d)", current.TotalExperience))
		}
		if _, err := s.experience.AddExperience(ctx, in.UserID, in.CategoryID, in.Amount); err != nil {
			return err
		}
		return s.ledger.AppendTransaction(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("experience adjusted",
		zap.String("user_id", in.UserID.String()),
		zap.String("category_id", in.CategoryID.String()),
		zap.Int("amount", in.Amount),
	)
	return entry, nil
}
