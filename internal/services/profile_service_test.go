package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

func TestProfileBuild_Owner(t *testing.T) {
	f := newFixture(t)
	f.completeDay(t, f.habit.ID, day0)
	bob := f.newUser(t, "bob")
	_, err := f.friends.SendRequest(f.ctx, bob.ID, f.user.ID)
	require.NoError(t, err)

	p, err := f.profiles.Build(f.ctx, f.user.ID, f.user.ID, day0)
	require.NoError(t, err)

	assert.Equal(t, "alice", p.User.Username)
	assert.Equal(t, "alice@example.com", p.User.Email)

	require.Len(t, p.Habits, 1)
	assert.Equal(t, "Habit already completed for today", p.Habits[0].Message)
	require.NotNil(t, p.Habits[0].Habit)

	assert.Equal(t, 11, p.Levels.TotalExperience)
	require.Len(t, p.Levels.CategoryLevels, 1)
	assert.Equal(t, 2, p.Levels.CategoryLevels[0].Level)

	assert.Equal(t, 11, p.Experience.TotalExperience)
	assert.Equal(t, 11, p.Experience.TodayExperience)

	assert.Empty(t, p.Friends.Friends)
	assert.Len(t, p.Friends.Pending, 1)
}

func TestProfileBuild_EnsuresTodaysTasks(t *testing.T) {
	f := newFixture(t)

	p, err := f.profiles.Build(f.ctx, f.user.ID, f.user.ID, day0)
	require.NoError(t, err)
	require.Len(t, p.Habits, 1)
	assert.True(t, p.Habits[0].Created)

	total, _, err := f.store.CountTasksForDay(f.ctx, f.user.ID, day0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestProfileBuild_OtherViewer(t *testing.T) {
	f := newFixture(t)
	bob := f.newUser(t, "bob")
	carol := f.newUser(t, "carol")
	_, err := f.friends.SendRequest(f.ctx, carol.ID, f.user.ID)
	require.NoError(t, err)

	p, err := f.profiles.Build(f.ctx, bob.ID, f.user.ID, day0)
	require.NoError(t, err)
	assert.Empty(t, p.User.Email)
	assert.Empty(t, p.Friends.Pending)
	assert.Equal(t, "alice", p.User.Username)

	_, err = f.friends.Block(f.ctx, f.user.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.profiles.Build(f.ctx, bob.ID, f.user.ID, day0)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.newHabit(t, f.user.ID, "Stretch", &f.category.ID, models.HabitActive)
	f.completeDay(t, f.habit.ID, day0)

	d, err := f.dashboard.ForUser(f.ctx, f.user.ID, day0)
	require.NoError(t, err)
	// Only the completed habit has a task; Stretch was never ensured.
	assert.Equal(t, 1, d.TasksTotal)
	assert.Equal(t, 1, d.TasksCompleted)
	assert.Equal(t, 11, d.TodayExperience)
	assert.Len(t, d.Trend, 7)

	o, err := f.dashboard.Overview(f.ctx, day0)
	require.NoError(t, err)
	assert.Equal(t, 1, o.TotalUsers)
	assert.Equal(t, 2, o.ActiveHabits)
	assert.Equal(t, 1, o.TasksCompletedToday)
	assert.Equal(t, 11, o.ExperienceAwarded)
}
