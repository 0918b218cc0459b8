package db

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const relationshipSelect = `
	SELECT r.id, r.user_id, r.target_user_id, r.type, u.username, t.username AS target_username,
	       r.created_at, r.updated_at
	FROM user_relationships r
	JOIN users u ON u.id = r.user_id
	JOIN users t ON t.id = r.target_user_id`

func (s *Store) CreateRelationship(ctx context.Context, r *models.UserRelationship) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO user_relationships (id, user_id, target_user_id, type)
		VALUES ($1, $2, $3, $4)`, r.ID, r.UserID, r.TargetUserID, r.Type)
	if err != nil {
		return mapError(err, "relationship", r.TargetUserID)
	}
	got, err := s.GetRelationship(ctx, r.ID)
	if err != nil {
		return err
	}
	*r = *got
	return nil
}

func (s *Store) GetRelationship(ctx context.Context, id uuid.UUID) (*models.UserRelationship, error) {
	var r models.UserRelationship
	if err := s.q(ctx).GetContext(ctx, &r, relationshipSelect+` WHERE r.id = $1`, id); err != nil {
		return nil, mapError(err, "relationship", id)
	}
	return &r, nil
}

func (s *Store) FindRelationship(ctx context.Context, userID, targetID uuid.UUID) (*models.UserRelationship, error) {
	var r models.UserRelationship
	err := s.q(ctx).GetContext(ctx, &r,
		relationshipSelect+` WHERE r.user_id = $1 AND r.target_user_id = $2`, userID, targetID)
	if err != nil {
		return nil, mapError(err, "relationship with", targetID)
	}
	return &r, nil
}

func (s *Store) UpdateRelationshipType(ctx context.Context, id uuid.UUID, t models.RelationshipType) (*models.UserRelationship, error) {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE user_relationships SET type = $2, updated_at = NOW() WHERE id = $1`, id, t)
	if err != nil {
		return nil, mapError(err, "relationship", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, mapError(sql.ErrNoRows, "relationship", id)
	}
	return s.GetRelationship(ctx, id)
}

func (s *Store) DeleteRelationship(ctx context.Context, id uuid.UUID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM user_relationships WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "relationship", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "relationship", id)
	}
	return nil
}

func (s *Store) DeleteRelationshipsBetween(ctx context.Context, a, b uuid.UUID) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		DELETE FROM user_relationships
		WHERE (user_id = $1 AND target_user_id = $2) OR (user_id = $2 AND target_user_id = $1)`, a, b)
	return mapError(err, "relationships with", b)
}

func (s *Store) listRelationships(ctx context.Context, where sq.Sqlizer) ([]models.UserRelationship, error) {
	b := s.sb.Select(
		"r.id", "r.user_id", "r.target_user_id", "r.type", "u.username", "t.username AS target_username",
		"r.created_at", "r.updated_at",
	).
		From("user_relationships r").
		Join("users u ON u.id = r.user_id").
		Join("users t ON t.id = r.target_user_id").
		Where(where).
		OrderBy("r.created_at DESC")

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := make([]models.UserRelationship, 0)
	if err := s.q(ctx).SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, mapError(err, "relationships", "")
	}
	return out, nil
}

func (s *Store) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserRelationship, error) {
	return s.listRelationships(ctx, sq.And{
		sq.Eq{"r.type": string(models.RelationshipFriend)},
		sq.Or{sq.Eq{"r.user_id": userID}, sq.Eq{"r.target_user_id": userID}},
	})
}

func (s *Store) ListIncoming(ctx context.Context, userID uuid.UUID, t models.RelationshipType) ([]models.UserRelationship, error) {
	return s.listRelationships(ctx, sq.Eq{"r.type": string(t), "r.target_user_id": userID})
}

func (s *Store) ListOutgoing(ctx context.Context, userID uuid.UUID, t models.RelationshipType) ([]models.UserRelationship, error) {
	return s.listRelationships(ctx, sq.Eq{"r.type": string(t), "r.user_id": userID})
}

func (s *Store) TopStreaks(ctx context.Context, categoryID *uuid.UUID, limit int) ([]models.StreakStanding, error) {
	b := s.sb.Select(
		"s.user_id", "u.username", "s.habit_id", "h.name AS habit_name",
		"h.category_id", "c.name AS category_name", "s.count", "s.is_active",
	).
		From("streaks s").
		Join("habits h ON h.id = s.habit_id").
		Join("categories c ON c.id = h.category_id").
		Join("users u ON u.id = s.user_id").
		Where(sq.Gt{"s.count": 0}).
		OrderBy("s.count DESC", "s.created_at DESC")
	if categoryID != nil {
		b = b.Where(sq.Eq{"h.category_id": *categoryID})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := make([]models.StreakStanding, 0)
	if err := s.q(ctx).SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, mapError(err, "streak leaderboard", "")
	}
	return out, nil
}

func (s *Store) TopCategoryExperience(ctx context.Context, categoryID uuid.UUID, limit int) ([]models.ExperienceStanding, error) {
	b := s.sb.Select(
		"e.user_id", "u.username", "e.category_id", "c.name AS category_name",
		"e.total_experience", "1 AS categories_count",
	).
		From("user_category_experience e").
		Join("users u ON u.id = e.user_id").
		Join("categories c ON c.id = e.category_id").
		Where(sq.Eq{"e.category_id": categoryID}).
		OrderBy("e.total_experience DESC", "u.username ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := make([]models.ExperienceStanding, 0)
	if err := s.q(ctx).SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, mapError(err, "category leaderboard", categoryID)
	}
	return out, nil
}

func (s *Store) TopUserExperience(ctx context.Context, limit int) ([]models.ExperienceStanding, error) {
	b := s.sb.Select(
		"e.user_id", "u.username",
		"SUM(e.total_experience) AS total_experience", "COUNT(*) AS categories_count",
	).
		From("user_category_experience e").
		Join("users u ON u.id = e.user_id").
		GroupBy("e.user_id", "u.username").
		OrderBy("total_experience DESC", "u.username ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := make([]models.ExperienceStanding, 0)
	if err := s.q(ctx).SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, mapError(err, "user leaderboard", "")
	}
	return out, nil
}

func (s *Store) Overview(ctx context.Context, today models.Day) (*models.Overview, error) {
	var o models.Overview
	err := s.q(ctx).GetContext(ctx, &o, `
		SELECT
			(SELECT COUNT(*) FROM users)                                                  AS total_users,
			(SELECT COUNT(*) FROM habits WHERE status = 'Active')                         AS active_habits,
			(SELECT COUNT(*) FROM habit_tasks WHERE task_date = $1)                       AS tasks_created_today,
			(SELECT COUNT(*) FROM habit_tasks WHERE task_date = $1 AND is_completed)      AS tasks_completed_today,
			(SELECT COUNT(*) FROM streaks WHERE is_active)                                AS active_streaks,
			(SELECT COALESCE(SUM(experience_gained), 0) FROM experience_transactions)     AS experience_awarded`,
		today)
	if err != nil {
		return nil, mapError(err, "overview", today)
	}
	return &o, nil
}
