package db

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const userColumns = `id, email, email_blind_index, username, password_hash, theme, is_admin, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Theme == "" {
		u.Theme = models.ThemeLight
	}
	err := s.q(ctx).GetContext(ctx, u, `
		INSERT INTO users (id, email, email_blind_index, username, password_hash, theme, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		u.ID, u.Email, u.EmailBlindIndex, u.Username, u.PasswordHash, u.Theme, u.IsAdmin)
	return mapError(err, "user", u.Username)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.q(ctx).GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmailIndex(ctx context.Context, blindIndex string) (*models.User, error) {
	var u models.User
	err := s.q(ctx).GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email_blind_index = $1`, blindIndex)
	if err != nil {
		return nil, mapError(err, "user by email", "")
	}
	return &u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.q(ctx).GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
	if err != nil {
		return nil, mapError(err, "user", username)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	err := s.q(ctx).GetContext(ctx, u, `
		UPDATE users SET username = $2, theme = $3, is_admin = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Username, u.Theme, u.IsAdmin)
	return mapError(err, "user", u.ID)
}

func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	b := s.sb.Select(userColumns).From("users").OrderBy("username ASC")
	if query != "" {
		b = b.Where(sq.ILike{"username": "%" + escapeLike(query) + "%"})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0)
	if err := s.q(ctx).SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, mapError(err, "users search", query)
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO categories (id, name, active) VALUES ($1, $2, $3)`, c.ID, c.Name, c.Active)
	return mapError(err, "category", c.Name)
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := s.q(ctx).GetContext(ctx, &c, `SELECT id, name, active FROM categories WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "category", id)
	}
	return &c, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := s.q(ctx).GetContext(ctx, &c, `SELECT id, name, active FROM categories WHERE lower(name) = lower($1)`, name); err != nil {
		return nil, mapError(err, "category", name)
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	b := s.sb.Select("id", "name", "active").From("categories").OrderBy("name ASC")
	if activeOnly {
		b = b.Where(sq.Eq{"active": true})
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, 0)
	if err := s.q(ctx).SelectContext(ctx, &out, sqlStr, args...); err != nil {
		return nil, mapError(err, "categories", "")
	}
	return out, nil
}

func (s *Store) SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) (*models.Category, error) {
	var c models.Category
	err := s.q(ctx).GetContext(ctx, &c,
		`UPDATE categories SET active = $2 WHERE id = $1 RETURNING id, name, active`, id, active)
	if err != nil {
		return nil, mapError(err, "category", id)
	}
	return &c, nil
}
