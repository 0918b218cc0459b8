package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

type CategoryService struct {
	log        *zap.Logger
	categories categoryStore
}

func NewCategoryService(logger *zap.Logger, categories categoryStore) *CategoryService {
	return &CategoryService{log: logger.Named("categories"), categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("name", "required")
	}
	if len(name) > 100 {
		return nil, models.NewValidationError("name", "too long")
	}
	c := &models.Category{Name: name, Active: true}
	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("category created", zap.String("name", c.Name))
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return s.categories.ListCategories(ctx, activeOnly)
}

// ToggleActive flips the active flag. Inactive categories stay attached to
// existing habits but cannot be chosen for new ones.
func (s *CategoryService) ToggleActive(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.categories.SetCategoryActive(ctx, id, !c.Active)
}

// EnsureDefaults creates any missing starter category. The SQL migration
// seeds the same names, so this matters for the in-memory store.
func (s *CategoryService) EnsureDefaults(ctx context.Context) error {
	for _, d := range defaultHabits {
		_, err := s.categories.GetCategoryByName(ctx, d.category)
		if err == nil {
			continue
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if _, err := s.Create(ctx, d.category); err != nil && !errors.Is(err, models.ErrAlreadyExists) {
			return err
		}
	}
	return nil
}
