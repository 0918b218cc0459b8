package models

import (
	"time"

	"github.com/google/uuid"
)

type Theme string

const (
	ThemeLight Theme = "LIGHT"
	ThemeDark  Theme = "DARK"
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

type User struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`       // Encrypted in DB
	EmailBlindIndex string    `db:"email_blind_index" json:"-"` // HMAC hash for searching
	Username        string    `db:"username" json:"username"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	Theme           Theme     `db:"theme" json:"theme"`
	IsAdmin         bool      `db:"is_admin" json:"is_admin"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type Category struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Active bool      `db:"active" json:"active"`
}

type HabitStatus string

const (
	HabitDraft     HabitStatus = "Draft"
	HabitActive    HabitStatus = "Active"
	HabitCompleted HabitStatus = "Completed"
	HabitCancelled HabitStatus = "Cancelled"
	HabitDeleted   HabitStatus = "Deleted"
)

func (s HabitStatus) Valid() bool {
	switch s {
	case HabitDraft, HabitActive, HabitCompleted, HabitCancelled, HabitDeleted:
		return true
	}
	return false
}

// Habit is a user's recurring commitment. CategoryName is filled by lookups
// that join the category table.
type Habit struct {
	ID           uuid.UUID   `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Status       HabitStatus `db:"status" json:"status"`
	UserID       uuid.UUID   `db:"user_id" json:"user_id"`
	CategoryID   *uuid.UUID  `db:"category_id" json:"category_id,omitempty"`
	CategoryName *string     `db:"category_name" json:"category_name,omitempty"`
	StartDate    *Day        `db:"start_date" json:"start_date,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

type Streak struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	HabitID   uuid.UUID `db:"habit_id" json:"habit_id"`
	StartDate Day       `db:"start_date" json:"start_date"`
	EndDate   *Day      `db:"end_date" json:"end_date,omitempty"`
	Count     int       `db:"count" json:"count"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type HabitTask struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	HabitID     uuid.UUID  `db:"habit_id" json:"habit_id"`
	StreakID    uuid.UUID  `db:"streak_id" json:"streak_id"`
	TaskDate    Day        `db:"task_date" json:"task_date"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type TransactionType string

const (
	TxHabitCompletion TransactionType = "HABIT_COMPLETION"
	TxStreakBonus     TransactionType = "STREAK_BONUS"
	TxAdminAdjustment TransactionType = "ADMIN_ADJUSTMENT"
)

func (t TransactionType) Valid() bool {
	return t == TxHabitCompletion || t == TxStreakBonus || t == TxAdminAdjustment
}

// ExperienceTransaction is an append-only ledger row.
type ExperienceTransaction struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	CategoryID       uuid.UUID       `db:"category_id" json:"category_id"`
	HabitTaskID      *uuid.UUID      `db:"habit_task_id" json:"habit_task_id,omitempty"`
	Type             TransactionType `db:"type" json:"type"`
	ExperienceGained int             `db:"experience_gained" json:"experience_gained"`
	StreakCount      *int            `db:"streak_count" json:"streak_count,omitempty"`
	Multiplier       *float64        `db:"multiplier" json:"multiplier,omitempty"`
	Description      *string         `db:"description" json:"description,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// TransactionView is a ledger row joined with its category and habit names.
type TransactionView struct {
	ExperienceTransaction
	CategoryName string     `db:"category_name" json:"category_name"`
	HabitID      *uuid.UUID `db:"habit_id" json:"habit_id,omitempty"`
	HabitName    *string    `db:"habit_name" json:"habit_name,omitempty"`
}

type UserCategoryExperience struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	CategoryID      uuid.UUID `db:"category_id" json:"category_id"`
	TotalExperience int       `db:"total_experience" json:"total_experience"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryExperience is a running total joined with the category name.
type CategoryExperience struct {
	CategoryID      uuid.UUID `db:"category_id" json:"category_id"`
	CategoryName    string    `db:"category_name" json:"category_name"`
	TotalExperience int       `db:"total_experience" json:"total_experience"`
}

type RelationshipType string

const (
	RelationshipPending RelationshipType = "PENDING"
	RelationshipFriend  RelationshipType = "FRIEND"
	RelationshipBlocked RelationshipType = "BLOCKED"
)

type UserRelationship struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	UserID         uuid.UUID        `db:"user_id" json:"user_id"`
	TargetUserID   uuid.UUID        `db:"target_user_id" json:"target_user_id"`
	Type           RelationshipType `db:"type" json:"type"`
	Username       string           `db:"username" json:"username"`
	TargetUsername string           `db:"target_username" json:"target_username"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// ExperienceStats aggregates a user's ledger rows for one category.
type ExperienceStats struct {
	TotalExperience   int     `db:"total_experience" json:"total_experience"`
	TotalTransactions int     `db:"total_transactions" json:"total_transactions"`
	AverageExperience float64 `db:"average_experience" json:"average_experience"`
	MaxExperience     int     `db:"max_experience" json:"max_experience"`
	MinExperience     int     `db:"min_experience" json:"min_experience"`
}

type StreakBonusStats struct {
	HighestStreakBonus float64 `db:"highest_streak_bonus" json:"highest_streak_bonus"`
	AverageStreakCount float64 `db:"average_streak_count" json:"average_streak_count"`
	TotalStreakBonuses int     `db:"total_streak_bonuses" json:"total_streak_bonuses"`
}

// TransactionFilter narrows ledger history queries.
type TransactionFilter struct {
	CategoryID *uuid.UUID
	Type       *TransactionType
	Since      *time.Time
}

type DailyExperience struct {
	Day        Day `db:"day" json:"day"`
	Experience int `db:"experience" json:"experience"`
}

// StreakStanding is one streak row on a streak leaderboard.
type StreakStanding struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Username     string    `db:"username" json:"username"`
	HabitID      uuid.UUID `db:"habit_id" json:"habit_id"`
	HabitName    string    `db:"habit_name" json:"habit_name"`
	CategoryID   uuid.UUID `db:"category_id" json:"category_id"`
	CategoryName string    `db:"category_name" json:"category_name"`
	Count        int       `db:"count" json:"count"`
	IsActive     bool      `db:"is_active" json:"is_active"`
}

// ExperienceStanding is one user's experience on a level leaderboard.
type ExperienceStanding struct {
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	Username        string    `db:"username" json:"username"`
	CategoryID      uuid.UUID `db:"category_id" json:"category_id"`
	CategoryName    string    `db:"category_name" json:"category_name"`
	TotalExperience int       `db:"total_experience" json:"total_experience"`
	CategoriesCount int       `db:"categories_count" json:"categories_count"`
}

// Overview holds the admin counters.
type Overview struct {
	TotalUsers          int `db:"total_users" json:"total_users"`
	ActiveHabits        int `db:"active_habits" json:"active_habits"`
	TasksCreatedToday   int `db:"tasks_created_today" json:"tasks_created_today"`
	TasksCompletedToday int `db:"tasks_completed_today" json:"tasks_completed_today"`
	ActiveStreaks       int `db:"active_streaks" json:"active_streaks"`
	ExperienceAwarded   int `db:"experience_awarded" json:"experience_awarded"`
}
