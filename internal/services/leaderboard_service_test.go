package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

func TestLeaderboard_Validation(t *testing.T) {
	f := newFixture(t)
	unknown := uuid.New()

	tests := []struct {
		name string
		q    LeaderboardQuery
		want error
	}{
		{"unknown type", LeaderboardQuery{Type: "fastest"}, models.ErrValidation},
		{"limit too big", LeaderboardQuery{Type: StreakByUser, Limit: 100}, models.ErrValidation},
		{"negative limit", LeaderboardQuery{Type: StreakByUser, Limit: -5}, models.ErrValidation},
		{"category required", LeaderboardQuery{Type: StreakByCategory}, models.ErrValidation},
		{"category required for levels", LeaderboardQuery{Type: LevelByCategory}, models.ErrValidation},
		{"unknown category", LeaderboardQuery{Type: LevelByCategory, CategoryID: &unknown}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.boards.Get(f.ctx, tt.q)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLeaderboard_Streaks(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.completeDay(t, f.habit.ID, day0.AddDays(i))
	}
	bob := f.newUser(t, "bob")
	bobHabit := f.newHabit(t, bob.ID, "Swim", &f.category.ID, models.HabitActive)
	st, err := f.streaks.EnsureDailyTask(f.ctx, bob.ID, bobHabit.ID, day0)
	require.NoError(t, err)
	_, err = f.completion.CompleteTask(f.ctx, bob.ID, st.HabitTask.ID, day0)
	require.NoError(t, err)

	// A streak with count 0 never ranks.
	carol := f.newUser(t, "carol")
	carolHabit := f.newHabit(t, carol.ID, "Walk", &f.category.ID, models.HabitActive)
	_, err = f.streaks.EnsureDailyTask(f.ctx, carol.ID, carolHabit.ID, day0)
	require.NoError(t, err)

	board, err := f.boards.Get(f.ctx, LeaderboardQuery{Type: StreakByCategory, CategoryID: &f.category.ID})
	require.NoError(t, err)
	assert.Equal(t, "Streak by Category", board.Title)
	assert.Equal(t, 10, board.Limit)
	require.Equal(t, 2, board.Count)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, "alice", board.Entries[0].Username)
	assert.Equal(t, 3, *board.Entries[0].StreakCount)
	require.NotNil(t, board.Entries[0].Habit)
	assert.Equal(t, "Exercise", board.Entries[0].Habit.HabitName)
	assert.Equal(t, 2, board.Entries[1].Rank)

	byUser, err := f.boards.Get(f.ctx, LeaderboardQuery{Type: StreakByUser, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byUser.Entries, 1)
	assert.Nil(t, byUser.CategoryID)
	require.NotNil(t, byUser.Entries[0].TopStreakHabit)
	assert.Nil(t, byUser.Entries[0].Habit)
}

func TestLeaderboard_Levels(t *testing.T) {
	f := newFixture(t)
	reading := f.newCategory(t, "Reading")
	sleep := f.newCategory(t, "Sleep")
	bob := f.newUser(t, "bob")

	// alice: 35 XP in one category (level 4).
	_, err := f.experience.Adjust(f.ctx, AdjustInput{UserID: f.user.ID, CategoryID: f.category.ID, Amount: 35})
	require.NoError(t, err)
	// bob: 10 XP in each of three categories (level 2 each).
	for _, c := range []models.Category{f.category, reading, sleep} {
		_, err = f.experience.Adjust(f.ctx, AdjustInput{UserID: bob.ID, CategoryID: c.ID, Amount: 10})
		require.NoError(t, err)
	}

	cat, err := f.boards.Get(f.ctx, LeaderboardQuery{Type: LevelByCategory, CategoryID: &f.category.ID})
	require.NoError(t, err)
	require.Len(t, cat.Entries, 2)
	assert.Equal(t, "alice", cat.Entries[0].Username)
	assert.Equal(t, 4, *cat.Entries[0].Level)
	assert.Equal(t, 35, *cat.Entries[0].TotalExperience)

	users, err := f.boards.Get(f.ctx, LeaderboardQuery{Type: LevelByUser})
	require.NoError(t, err)
	require.Len(t, users.Entries, 2)

	// bob has less experience but a higher total level.
	top := users.Entries[0]
	assert.Equal(t, "bob", top.Username)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, 6, *top.TotalLevel)
	assert.Equal(t, 3, *top.CategoriesCount)
	require.NotNil(t, top.TopCategory)
	assert.Equal(t, 10, top.TopCategory.Experience)
	assert.Equal(t, 2, top.TopCategory.Level)

	assert.Equal(t, "alice", users.Entries[1].Username)
	assert.Equal(t, 2, users.Entries[1].Rank)
	assert.Equal(t, 4, *users.Entries[1].TotalLevel)
}
