package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkunkel2/habit-quest-api/internal/models"
)

func TestEnsureDailyTask_CreatesTaskAndStreak(t *testing.T) {
	f := newFixture(t)

	st := f.ensure(t, f.habit.ID, day0)

	assert.True(t, st.Created)
	assert.Equal(t, "Habit task created for today", st.Message)
	require.NotNil(t, st.HabitTask)
	require.NotNil(t, st.CurrentStreak)
	assert.Equal(t, day0, st.HabitTask.TaskDate)
	assert.False(t, st.HabitTask.IsCompleted)
	assert.Equal(t, st.CurrentStreak.ID, st.HabitTask.StreakID)
	assert.Equal(t, 0, st.CurrentStreak.Count)
	assert.Equal(t, day0, st.CurrentStreak.StartDate)
	assert.True(t, st.CurrentStreak.IsActive)
	assert.Len(t, st.AllStreaks, 1)
}

func TestEnsureDailyTask_Idempotent(t *testing.T) {
	f := newFixture(t)

	first := f.ensure(t, f.habit.ID, day0)
	second := f.ensure(t, f.habit.ID, day0)

	assert.False(t, second.Created)
	assert.Equal(t, "Habit task exists for today", second.Message)
	assert.Equal(t, first.HabitTask.ID, second.HabitTask.ID)
	assert.Equal(t, first.CurrentStreak.ID, second.CurrentStreak.ID)
	assert.Len(t, second.AllStreaks, 1)

	total, _, err := f.store.CountTasksForDay(f.ctx, f.user.ID, day0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestEnsureDailyTask_ReportsCompletedToday(t *testing.T) {
	f := newFixture(t)
	f.completeDay(t, f.habit.ID, day0)

	st := f.ensure(t, f.habit.ID, day0)
	assert.False(t, st.Created)
	assert.Equal(t, "Habit already completed for today", st.Message)
	assert.True(t, st.HabitTask.IsCompleted)
}

func TestEnsureDailyTask_ContinuesStreakAfterCompletedYesterday(t *testing.T) {
	f := newFixture(t)
	first := f.completeDay(t, f.habit.ID, day0)

	st := f.ensure(t, f.habit.ID, day0.AddDays(1))

	assert.True(t, st.Created)
	assert.Equal(t, first.CurrentStreak.ID, st.CurrentStreak.ID)
	assert.Equal(t, first.CurrentStreak.ID, st.HabitTask.StreakID)
	assert.Equal(t, 1, st.CurrentStreak.Count)
	assert.Len(t, st.AllStreaks, 1)
}

func TestEnsureDailyTask_BreaksOnMissedDay(t *testing.T) {
	f := newFixture(t)
	first := f.completeDay(t, f.habit.ID, day0)

	// Nothing on day0+1.
	day2 := day0.AddDays(2)
	st := f.ensure(t, f.habit.ID, day2)

	require.True(t, st.Created)
	assert.NotEqual(t, first.CurrentStreak.ID, st.CurrentStreak.ID)
	assert.Equal(t, 0, st.CurrentStreak.Count)
	assert.Equal(t, day2, st.CurrentStreak.StartDate)
	require.Len(t, st.AllStreaks, 2)

	var old models.Streak
	for _, s := range st.AllStreaks {
		if s.ID == first.CurrentStreak.ID {
			old = s
		}
	}
	assert.False(t, old.IsActive)
	require.NotNil(t, old.EndDate)
	assert.Equal(t, day0.AddDays(1), *old.EndDate)
	assert.Equal(t, 1, old.Count)
}

func TestEnsureDailyTask_BreaksOnIncompleteYesterday(t *testing.T) {
	f := newFixture(t)
	first := f.ensure(t, f.habit.ID, day0)

	st := f.ensure(t, f.habit.ID, day0.AddDays(1))

	require.True(t, st.Created)
	assert.NotEqual(t, first.CurrentStreak.ID, st.CurrentStreak.ID)
	assert.Equal(t, 0, st.CurrentStreak.Count)

	old, err := f.store.ListStreaks(f.ctx, f.user.ID, f.habit.ID)
	require.NoError(t, err)
	require.Len(t, old, 2)
	active := 0
	for _, s := range old {
		if s.IsActive {
			active++
		} else {
			require.NotNil(t, s.EndDate)
			assert.Equal(t, day0, *s.EndDate)
		}
	}
	assert.Equal(t, 1, active)
}

func TestEnsureDailyTask_InactiveHabitIsNoop(t *testing.T) {
	f := newFixture(t)
	f.setStatus(t, f.habit.ID, models.HabitDraft)

	st := f.ensure(t, f.habit.ID, day0)

	assert.False(t, st.Created)
	assert.Nil(t, st.HabitTask)
	assert.Nil(t, st.CurrentStreak)
	assert.Equal(t, "Habit is Draft - no task created", st.Message)
	assert.Empty(t, st.AllStreaks)
}

func TestEnsureDailyTask_HidesOtherUsersHabits(t *testing.T) {
	f := newFixture(t)
	bob := f.newUser(t, "bob")

	_, err := f.streaks.EnsureDailyTask(f.ctx, bob.ID, f.habit.ID, day0)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = f.streaks.EnsureDailyTask(f.ctx, f.user.ID, uuid.New(), day0)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestEnsureAllDailyTasks(t *testing.T) {
	f := newFixture(t)
	f.newHabit(t, f.user.ID, "Plan", &f.category.ID, models.HabitDraft)

	statuses, err := f.streaks.EnsureAllDailyTasks(f.ctx, f.user.ID, day0)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	created := 0
	for _, st := range statuses {
		if st.Created {
			created++
			assert.Equal(t, f.habit.ID, st.HabitID)
		} else {
			assert.Equal(t, "Habit is Draft - no task created", st.Message)
		}
	}
	assert.Equal(t, 1, created)
}

func TestGetStreaksForHabit(t *testing.T) {
	f := newFixture(t)
	f.completeDay(t, f.habit.ID, day0)
	f.ensure(t, f.habit.ID, day0.AddDays(1))

	hs, err := f.streaks.GetStreaksForHabit(f.ctx, f.user.ID, f.habit.ID)
	require.NoError(t, err)

	require.NotNil(t, hs.CurrentStreak)
	assert.Len(t, hs.AllStreaks, 1)
	require.Len(t, hs.HabitTasks, 2)
	assert.Equal(t, day0, hs.HabitTasks[0].TaskDate)
	assert.True(t, hs.HabitTasks[0].IsCompleted)

	all, err := f.streaks.GetStreaksForUser(f.ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetStreaksForHabit_NoStreakYet(t *testing.T) {
	f := newFixture(t)

	hs, err := f.streaks.GetStreaksForHabit(f.ctx, f.user.ID, f.habit.ID)
	require.NoError(t, err)
	assert.Nil(t, hs.CurrentStreak)
	assert.Empty(t, hs.AllStreaks)
	assert.Empty(t, hs.HabitTasks)
}
