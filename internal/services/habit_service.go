package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

const maxHabitNameLen = 200

type CreateHabitInput struct {
	Name       string              `json:"name"`
	CategoryID *uuid.UUID          `json:"category_id"`
	Status     *models.HabitStatus `json:"status"`
	StartDate  *models.Day         `json:"start_date"`
}

type UpdateHabitInput struct {
	Name       *string             `json:"name"`
	CategoryID *uuid.UUID          `json:"category_id"`
	Status     *models.HabitStatus `json:"status"`
	StartDate  *models.Day         `json:"start_date"`
}

type defaultHabit struct {
	name     string
	category string
}

// Habits every new account starts with, when their category exists.
var defaultHabits = []defaultHabit{
	{"Study for 30 minutes", "School"},
	{"Get 8 hours of sleep", "Sleep"},
	{"Exercise for 20 minutes", "Fitness"},
	{"Read for 15 minutes", "Reading"},
	{"Practice mindfulness for 5 minutes", "Mindfulness"},
}

type HabitService struct {
	log        *zap.Logger
	habits     habitStore
	categories categoryStore
}

func NewHabitService(logger *zap.Logger, habits habitStore, categories categoryStore) *HabitService {
	return &HabitService{log: logger.Named("habits"), habits: habits, categories: categories}
}

func (s *HabitService) List(ctx context.Context, userID uuid.UUID) ([]models.Habit, error) {
	return s.habits.ListHabitsByUser(ctx, userID)
}

func (s *HabitService) Get(ctx context.Context, userID, habitID uuid.UUID) (*models.Habit, error) {
	return ownedHabit(ctx, s.habits, userID, habitID)
}

func (s *HabitService) Create(ctx context.Context, userID uuid.UUID, in CreateHabitInput, today models.Day) (*models.Habit, error) {
	h := &models.Habit{
		Name:       strings.TrimSpace(in.Name),
		UserID:     userID,
		CategoryID: in.CategoryID,
		Status:     models.HabitDraft,
		StartDate:  in.StartDate,
	}
	if in.Status != nil {
		h.Status = *in.Status
	}

	ve := &models.ValidationError{}
	validateHabitName(ve, h.Name)
	if !h.Status.Valid() || h.Status == models.HabitDeleted {
		ve.Add("status", "must be one of Draft, Active, Completed, Cancelled")
	}
	if h.Status != models.HabitDraft && h.Status != models.HabitActive && h.StartDate == nil {
		ve.Add("start_date", "required unless status is Draft or Active")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}
	if h.Status == models.HabitActive && h.StartDate == nil {
		h.StartDate = &today
	}
	if err := s.checkCategory(ctx, h.CategoryID); err != nil {
		return nil, err
	}

	if err := s.habits.CreateHabit(ctx, h); err != nil {
		return nil, err
	}
	s.log.Info("habit created", zap.String("habit_id", h.ID.String()), zap.String("status", string(h.Status)))
	return h, nil
}

// Update applies the non-nil fields. Moving a habit into Active stamps
// today as its start date.
func (s *HabitService) Update(ctx context.Context, userID, habitID uuid.UUID, in UpdateHabitInput, today models.Day) (*models.Habit, error) {
	h, err := ownedHabit(ctx, s.habits, userID, habitID)
	if err != nil {
		return nil, err
	}

	ve := &models.ValidationError{}
	if in.Name != nil {
		h.Name = strings.TrimSpace(*in.Name)
		validateHabitName(ve, h.Name)
	}
	wasActive := h.Status == models.HabitActive
	if in.Status != nil {
		if !in.Status.Valid() || *in.Status == models.HabitDeleted {
			ve.Add("status", "must be one of Draft, Active, Completed, Cancelled")
		}
		h.Status = *in.Status
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, in.CategoryID); err != nil {
			return nil, err
		}
		h.CategoryID = in.CategoryID
	}
	if in.StartDate != nil {
		h.StartDate = in.StartDate
	}
	if !wasActive && h.Status == models.HabitActive {
		h.StartDate = &today
	}

	if err := s.habits.UpdateHabit(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Delete is a soft delete: the habit moves to Deleted and drops out of
// listings and the daily engine.
func (s *HabitService) Delete(ctx context.Context, userID, habitID uuid.UUID) error {
	h, err := ownedHabit(ctx, s.habits, userID, habitID)
	if err != nil {
		return err
	}
	h.Status = models.HabitDeleted
	if err := s.habits.UpdateHabit(ctx, h); err != nil {
		return err
	}
	s.log.Info("habit deleted", zap.String("habit_id", habitID.String()))
	return nil
}

// SeedDefaults creates the starter habits for a new user. Missing or
// inactive categories are skipped; individual failures are logged.
func (s *HabitService) SeedDefaults(ctx context.Context, userID uuid.UUID, today models.Day) []models.Habit {
	created := make([]models.Habit, 0, len(defaultHabits))
	for _, d := range defaultHabits {
		cat, err := s.categories.GetCategoryByName(ctx, d.category)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				s.log.Warn("seed habit category lookup failed", zap.String("category", d.category), zap.Error(err))
			}
			continue
		}
		if !cat.Active {
			continue
		}
		start := today
		h := models.Habit{
			Name:       d.name,
			UserID:     userID,
			CategoryID: &cat.ID,
			Status:     models.HabitActive,
			StartDate:  &start,
		}
		if err := s.habits.CreateHabit(ctx, &h); err != nil {
			s.log.Warn("seed habit failed", zap.String("habit", d.name), zap.Error(err))
			continue
		}
		created = append(created, h)
	}
	return created
}

func (s *HabitService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	cat, err := s.categories.GetCategory(ctx, *id)
	if err != nil {
		return err
	}
	if !cat.Active {
		return models.NewValidationError("category_id", "category is inactive")
	}
	return nil
}

func validateHabitName(ve *models.ValidationError, name string) {
	switch {
	case name == "":
		ve.Add("name", "required")
	case len(name) > maxHabitNameLen:
		ve.Add("name", "too long")
	}
}
