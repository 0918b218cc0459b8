package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const experienceColumns = `id, user_id, category_id, total_experience, created_at, updated_at`

func (s *Store) GetOrCreateCategoryExperience(ctx context.Context, userID, categoryID uuid.UUID) (*models.UserCategoryExperience, error) {
	var e models.UserCategoryExperience
	// DO UPDATE with a no-op so RETURNING yields the existing row too.
	err := s.q(ctx).GetContext(ctx, &e, `
		INSERT INTO user_category_experience (id, user_id, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, category_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING `+experienceColumns,
		uuid.New(), userID, categoryID)
	if err != nil {
		return nil, mapError(err, "category experience", categoryID)
	}
	return &e, nil
}

func (s *Store) AddExperience(ctx context.Context, userID, categoryID uuid.UUID, delta int) (*models.UserCategoryExperience, error) {
	var e models.UserCategoryExperience
	err := s.q(ctx).GetContext(ctx, &e, `
		INSERT INTO user_category_experience (id, user_id, category_id, total_experience)
		VALUES ($1, $2, $3, GREATEST(0, $4::int))
		ON CONFLICT (user_id, category_id) DO UPDATE
		SET total_experience = GREATEST(0, user_category_experience.total_experience + $4::int),
		    updated_at = NOW()
		RETURNING `+experienceColumns,
		uuid.New(), userID, categoryID, delta)
	if err != nil {
		return nil, mapError(err, "category experience", categoryID)
	}
	return &e, nil
}

func (s *Store) SetCategoryExperience(ctx context.Context, userID, categoryID uuid.UUID, total int) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO user_category_experience (id, user_id, category_id, total_experience)
		VALUES ($1, $2, $3, GREATEST(0, $4::int))
		ON CONFLICT (user_id, category_id) DO UPDATE
		SET total_experience = EXCLUDED.total_experience, updated_at = NOW()`,
		uuid.New(), userID, categoryID, total)
	return mapError(err, "category experience", categoryID)
}

func (s *Store) TotalExperience(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := s.q(ctx).GetContext(ctx, &total,
		`SELECT COALESCE(SUM(total_experience), 0) FROM user_category_experience WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapError(err, "experience of user", userID)
	}
	return total, nil
}

func (s *Store) ListCategoryExperience(ctx context.Context, userID uuid.UUID) ([]models.CategoryExperience, error) {
	out := make([]models.CategoryExperience, 0)
	err := s.q(ctx).SelectContext(ctx, &out, `
		SELECT e.category_id, c.name AS category_name, e.total_experience
		FROM user_category_experience e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1
		ORDER BY e.total_experience DESC, c.name ASC`, userID)
	if err != nil {
		return nil, mapError(err, "experience of user", userID)
	}
	return out, nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx *models.ExperienceTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	err := s.q(ctx).GetContext(ctx, &tx.CreatedAt, `
		INSERT INTO experience_transactions
			(id, user_id, category_id, habit_task_id, type, experience_gained, streak_count, multiplier, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		tx.ID, tx.UserID, tx.CategoryID, tx.HabitTaskID, tx.Type, tx.ExperienceGained,
		tx.StreakCount, tx.Multiplier, tx.Description)
	return mapError(err, "experience transaction", tx.ID)
}

func (s *Store) ListTransactions(ctx context.Context, userID uuid.UUID, f models.TransactionFilter, limit, offset int) ([]models.TransactionView, error) {
	b := s.sb.Select(
		"t.id", "t.user_id", "t.category_id", "t.habit_task_id", "t.type", "t.experience_gained",
		"t.streak_count", "t.multiplier::float8 AS multiplier", "t.description", "t.created_at",
		"c.name AS category_name", "ht.habit_id", "h.name AS habit_name",
	).
		From("experience_transactions t").
		Join("categories c ON c.id = t.category_id").
		LeftJoin("habit_tasks ht ON ht.id = t.habit_task_id").
		LeftJoin("habits h ON h.id = ht.habit_id").
		Where(sq.Eq{"t.user_id": userID}).
		OrderBy("t.created_at DESC", "t.id DESC")

	if f.CategoryID != nil {
		b = b.Where(sq.Eq{"t.category_id": *f.CategoryID})
	}
	if f.Type != nil {
		b = b.Where(sq.Eq{"t.type": string(*f.Type)})
	}
	if f.Since != nil {
		b = b.Where(sq.GtOrEq{"t.created_at": *f.Since})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	if offset > 0 {
		b = b.Offset(uint64(offset))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := make([]models.TransactionView, 0)
	if err := s.q(ctx).SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, mapError(err, "experience history of user", userID)
	}
	return out, nil
}

func (s *Store) AggregateStats(ctx context.Context, userID, categoryID uuid.UUID) (*models.ExperienceStats, error) {
	var stats models.ExperienceStats
	err := s.q(ctx).GetContext(ctx, &stats, `
		SELECT COALESCE(SUM(experience_gained), 0)           AS total_experience,
		       COUNT(*)                                      AS total_transactions,
		       COALESCE(AVG(experience_gained), 0)::float8   AS average_experience,
		       COALESCE(MAX(experience_gained), 0)           AS max_experience,
		       COALESCE(MIN(experience_gained), 0)           AS min_experience
		FROM experience_transactions
		WHERE user_id = $1 AND category_id = $2`, userID, categoryID)
	if err != nil {
		return nil, mapError(err, "experience stats of user", userID)
	}
	return &stats, nil
}

// StreakBonusStats counts rows whose multiplier exceeds 1. The bonus part of a
// row is experience minus experience divided by its multiplier.
func (s *Store) StreakBonusStats(ctx context.Context, userID uuid.UUID) (*models.StreakBonusStats, error) {
	var stats models.StreakBonusStats
	err := s.q(ctx).GetContext(ctx, &stats, `
		SELECT COALESCE(MAX(experience_gained - experience_gained / multiplier), 0)::float8 AS highest_streak_bonus,
		       COALESCE(AVG(streak_count), 0)::float8                                       AS average_streak_count,
		       COUNT(*)                                                                     AS total_streak_bonuses
		FROM experience_transactions
		WHERE user_id = $1 AND streak_count IS NOT NULL AND multiplier > 1`, userID)
	if err != nil {
		return nil, mapError(err, "streak bonus stats of user", userID)
	}
	return &stats, nil
}

func (s *Store) SumExperienceSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var total int
	err := s.q(ctx).GetContext(ctx, &total, `
		SELECT COALESCE(SUM(experience_gained), 0) FROM experience_transactions
		WHERE user_id = $1 AND created_at >= $2`, userID, since)
	if err != nil {
		return 0, mapError(err, "experience of user", userID)
	}
	return total, nil
}

func (s *Store) ExperienceByDay(ctx context.Context, userID uuid.UUID, from, to models.Day, loc *time.Location) ([]models.DailyExperience, error) {
	out := make([]models.DailyExperience, 0)
	err := s.q(ctx).SelectContext(ctx, &out, `
		SELECT d::date AS day, COALESCE(SUM(t.experience_gained), 0) AS experience
		FROM generate_series($2::date, $3::date, interval '1 day') AS d
		LEFT JOIN experience_transactions t
		       ON t.user_id = $1 AND (t.created_at AT TIME ZONE $4)::date = d::date
		GROUP BY d
		ORDER BY d`, userID, from, to, zoneName(loc))
	if err != nil {
		return nil, mapError(err, "daily experience of user", userID)
	}
	return out, nil
}

// zoneName returns an IANA name PostgreSQL understands.
func zoneName(loc *time.Location) string {
	if loc == nil || loc == time.Local || loc.String() == "Local" {
		return "UTC"
	}
	return loc.String()
}

func (s *Store) SumLedgerByCategory(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		CategoryID uuid.UUID `db:"category_id"`
		Total      int       `db:"total"`
	}
	err := s.q(ctx).SelectContext(ctx, &rows, `
		SELECT category_id, SUM(experience_gained) AS total
		FROM experience_transactions WHERE user_id = $1
		GROUP BY category_id`, userID)
	if err != nil {
		return nil, mapError(err, "ledger of user", userID)
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, r := range rows {
		out[r.CategoryID] = r.Total
	}
	return out, nil
}
