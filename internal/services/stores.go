package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

// Store interfaces are satisfied by internal/db (PostgreSQL) and
// internal/db/memstore. Lookups return models.ErrNotFound when nothing matches.

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	// LockUserHabit serializes engine work for one (user, habit) pair until
	// the surrounding transaction ends.
	LockUserHabit(ctx context.Context, userID, habitID uuid.UUID) error
}

type userStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmailIndex(ctx context.Context, blindIndex string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

type categoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) (*models.Category, error)
}

type habitStore interface {
	CreateHabit(ctx context.Context, h *models.Habit) error
	GetHabit(ctx context.Context, id uuid.UUID) (*models.Habit, error)
	// ListHabitsByUser excludes Deleted habits.
	ListHabitsByUser(ctx context.Context, userID uuid.UUID) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, h *models.Habit) error
}

type streakStore interface {
	FindActiveStreak(ctx context.Context, userID, habitID uuid.UUID) (*models.Streak, error)
	ListStreaks(ctx context.Context, userID, habitID uuid.UUID) ([]models.Streak, error)
	CreateStreak(ctx context.Context, s *models.Streak) error
	// IncrementStreak atomically adds one to count and returns the new row.
	IncrementStreak(ctx context.Context, id uuid.UUID) (*models.Streak, error)
	// RetireStreak ends an active streak. It reports false if the streak was
	// already inactive.
	RetireStreak(ctx context.Context, id uuid.UUID, endDate models.Day) (bool, error)
}

type taskStore interface {
	GetTask(ctx context.Context, id uuid.UUID) (*models.HabitTask, error)
	FindTaskByDate(ctx context.Context, userID, habitID uuid.UUID, day models.Day) (*models.HabitTask, error)
	ListTasksByStreak(ctx context.Context, streakID uuid.UUID) ([]models.HabitTask, error)
	// CreateTask inserts t. If a task already exists for the same
	// (user, habit, day), t is overwritten with it and created is false.
	CreateTask(ctx context.Context, t *models.HabitTask) (created bool, err error)
	// MarkTaskComplete flips an incomplete task to complete. It returns
	// models.ErrAlreadyCompleted if the task was already complete.
	MarkTaskComplete(ctx context.Context, id uuid.UUID, at time.Time) (*models.HabitTask, error)
	CountTasksForDay(ctx context.Context, userID uuid.UUID, day models.Day) (total, completed int, err error)
}

type experienceStore interface {
	GetOrCreateCategoryExperience(ctx context.Context, userID, categoryID uuid.UUID) (*models.UserCategoryExperience, error)
	// AddExperience is an additive upsert on the (user, category) total.
	AddExperience(ctx context.Context, userID, categoryID uuid.UUID, delta int) (*models.UserCategoryExperience, error)
	SetCategoryExperience(ctx context.Context, userID, categoryID uuid.UUID, total int) error
	TotalExperience(ctx context.Context, userID uuid.UUID) (int, error)
	ListCategoryExperience(ctx context.Context, userID uuid.UUID) ([]models.CategoryExperience, error)
}

type ledgerStore interface {
	AppendTransaction(ctx context.Context, tx *models.ExperienceTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, f models.TransactionFilter, limit, offset int) ([]models.TransactionView, error)
	AggregateStats(ctx context.Context, userID, categoryID uuid.UUID) (*models.ExperienceStats, error)
	StreakBonusStats(ctx context.Context, userID uuid.UUID) (*models.StreakBonusStats, error)
	SumExperienceSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	ExperienceByDay(ctx context.Context, userID uuid.UUID, from, to models.Day, loc *time.Location) ([]models.DailyExperience, error)
	SumLedgerByCategory(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}

type relationshipStore interface {
	CreateRelationship(ctx context.Context, r *models.UserRelationship) error
	GetRelationship(ctx context.Context, id uuid.UUID) (*models.UserRelationship, error)
	FindRelationship(ctx context.Context, userID, targetID uuid.UUID) (*models.UserRelationship, error)
	UpdateRelationshipType(ctx context.Context, id uuid.UUID, t models.RelationshipType) (*models.UserRelationship, error)
	DeleteRelationship(ctx context.Context, id uuid.UUID) error
	DeleteRelationshipsBetween(ctx context.Context, a, b uuid.UUID) error
	// ListFriends returns FRIEND rows in either direction.
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.UserRelationship, error)
	ListIncoming(ctx context.Context, userID uuid.UUID, t models.RelationshipType) ([]models.UserRelationship, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID, t models.RelationshipType) ([]models.UserRelationship, error)
}

type leaderboardStore interface {
	TopStreaks(ctx context.Context, categoryID *uuid.UUID, limit int) ([]models.StreakStanding, error)
	TopCategoryExperience(ctx context.Context, categoryID uuid.UUID, limit int) ([]models.ExperienceStanding, error)
	TopUserExperience(ctx context.Context, limit int) ([]models.ExperienceStanding, error)
}

type overviewStore interface {
	Overview(ctx context.Context, today models.Day) (*models.Overview, error)
}

// Store is the full backend the API wires into every service.
type Store interface {
	txManager
	userStore
	categoryStore
	habitStore
	streakStore
	taskStore
	experienceStore
	ledgerStore
	relationshipStore
	leaderboardStore
	overviewStore
	Ping(ctx context.Context) error
}
