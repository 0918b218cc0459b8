package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/db/memstore"
	"github.com/hkunkel2/habit-quest-api/internal/metrics"
	"github.com/hkunkel2/habit-quest-api/internal/models"
)

var day0 = models.NewDay(2025, time.March, 10)

type fixture struct {
	ctx        context.Context
	store      *memstore.Store
	clock      models.FixedClock
	metrics    *metrics.Metrics
	curve      *LevelCurve
	calc       *ExperienceCalculator
	enc        *EncryptionService
	streaks    *StreakService
	completion *CompletionService
	experience *ExperienceService
	habits     *HabitService
	friends    *FriendService
	auth       *AuthService
	users      *UserService
	boards     *LeaderboardService
	profiles   *ProfileService
	dashboard  *DashboardService
	user       models.User
	category   models.Category
	habit      models.Habit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := models.FixedClock{At: day0.Time(time.UTC).Add(9 * time.Hour)}
	store := memstore.New(memstore.WithClock(clock))
	m := metrics.New(prometheus.NewRegistry())
	log := zap.NewNop()

	f := &fixture{
		ctx:     context.Background(),
		store:   store,
		clock:   clock,
		metrics: m,
		curve:   NewLevelCurve(DefaultLevelConfig()),
		calc:    NewExperienceCalculator(DefaultAwardConfig()),
	}
	enc, err := NewEncryptionService(bytes.Repeat([]byte{7}, 32), bytes.Repeat([]byte{8}, 32))
	require.NoError(t, err)
	f.enc = enc

	f.streaks = NewStreakService(log, store, store, store, store, m)
	f.completion = NewCompletionService(log, store, store, store, store, store, store, f.calc, clock, m)
	f.experience = NewExperienceService(log, store, store, store, store, store, f.curve, clock)
	f.habits = NewHabitService(log, store, store)
	f.friends = NewFriendService(log, store, store, store)
	f.auth = NewAuthService(log, store, enc, f.habits, clock, []byte("test-secret-0123456789"), time.Hour)
	f.users = NewUserService(log, store, enc)
	f.boards = NewLeaderboardService(store, store, store, f.curve)
	f.profiles = NewProfileService(log, store, store, enc, f.streaks, f.experience, f.friends)
	f.dashboard = NewDashboardService(store, store, f.experience)

	f.user = f.newUser(t, "alice")
	f.category = f.newCategory(t, "Fitness")
	f.habit = f.newHabit(t, f.user.ID, "Exercise", &f.category.ID, models.HabitActive)
	return f
}

func (f *fixture) newUser(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.enc.SealUser(&u))
	require.NoError(t, f.store.CreateUser(f.ctx, &u))
	return u
}

func (f *fixture) newCategory(t *testing.T, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Active: true}
	require.NoError(t, f.store.CreateCategory(f.ctx, &c))
	return c
}

func (f *fixture) newHabit(t *testing.T, userID uuid.UUID, name string, categoryID *uuid.UUID, status models.HabitStatus) models.Habit {
	t.Helper()
	start := day0
	h := models.Habit{Name: name, UserID: userID, CategoryID: categoryID, Status: status, StartDate: &start}
	require.NoError(t, f.store.CreateHabit(f.ctx, &h))
	return h
}

func (f *fixture) setStatus(t *testing.T, habitID uuid.UUID, status models.HabitStatus) {
	t.Helper()
	h, err := f.store.GetHabit(f.ctx, habitID)
	require.NoError(t, err)
	h.Status = status
	require.NoError(t, f.store.UpdateHabit(f.ctx, h))
}

// ensure creates (or fetches) the task for day and returns it.
func (f *fixture) ensure(t *testing.T, habitID uuid.UUID, day models.Day) *DailyStatus {
	t.Helper()
	st, err := f.streaks.EnsureDailyTask(f.ctx, f.user.ID, habitID, day)
	require.NoError(t, err)
	return st
}

// completeDay ensures and completes the habit's task on day.
func (f *fixture) completeDay(t *testing.T, habitID uuid.UUID, day models.Day) *CompletionResult {
	t.Helper()
	st := f.ensure(t, habitID, day)
	require.NotNil(t, st.HabitTask)
	res, err := f.completion.CompleteTask(f.ctx, f.user.ID, st.HabitTask.ID, day)
	require.NoError(t, err)
	return res
}
