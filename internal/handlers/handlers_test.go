package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/db/memstore"
	"github.com/hkunkel2/habit-quest-api/internal/metrics"
	mw "github.com/hkunkel2/habit-quest-api/internal/middleware"
	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

var jwtSecret = []byte("handlers-test-secret-0123")

type testAPI struct {
	t     *testing.T
	store *memstore.Store
	h     http.Handler
}

type account struct {
	ID    uuid.UUID
	Token string
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	// Tokens are checked against the wall clock, so the fixed clock sits at now.
	clock := models.FixedClock{At: time.Now().UTC()}
	store := memstore.New(memstore.WithClock(clock))
	m := metrics.New(prometheus.NewRegistry())

	enc, err := services.NewEncryptionService(bytes.Repeat([]byte{1}, 32), bytes.Repeat([]byte{2}, 32))
	require.NoError(t, err)
	curve := services.NewLevelCurve(services.DefaultLevelConfig())

	categories := services.NewCategoryService(log, store)
	require.NoError(t, categories.EnsureDefaults(context.Background()))
	habits := services.NewHabitService(log, store, store)
	streaks := services.NewStreakService(log, store, store, store, store, m)
	completion := services.NewCompletionService(log, store, store, store, store, store, store,
		services.NewExperienceCalculator(services.DefaultAwardConfig()), clock, m)
	experience := services.NewExperienceService(log, store, store, store, store, store, curve, clock)
	friends := services.NewFriendService(log, store, store, store)
	dashboard := services.NewDashboardService(store, store, experience)

	h := NewRouter(RouterConfig{
		AllowedOrigins: []string{"*"},
		Logger:         log,
		Metrics:        m,
		Auth:           mw.NewAuthMiddleware(jwtSecret, store),
	}, Handlers{
		Auth:        NewAuthHandler(services.NewAuthService(log, store, enc, habits, clock, jwtSecret, time.Hour), log),
		Users:       NewUserHandler(services.NewUserService(log, store, enc), log),
		Habits:      NewHabitHandler(habits, clock, log),
		Categories:  NewCategoryHandler(categories, log),
		Streaks:     NewStreakHandler(streaks, completion, clock, log),
		Experience:  NewExperienceHandler(experience, log),
		Leaderboard: NewLeaderboardHandler(services.NewLeaderboardService(store, store, store, curve), log),
		Friends:     NewFriendHandler(friends, log),
		Profiles:    NewProfileHandler(services.NewProfileService(log, store, store, enc, streaks, experience, friends), clock, log),
		Dashboard:   NewDashboardHandler(dashboard, clock, log),
		Admin:       NewAdminHandler(dashboard, experience, clock, log),
	})
	return &testAPI{t: t, store: store, h: h}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) signup(name string) account {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": name + "@example.com", "username": name, "password": "secret123",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[authResponse](a.t, rec)
	return account{ID: res.User.ID, Token: res.Token}
}

func (a *testAPI) promote(id uuid.UUID) {
	a.t.Helper()
	u, err := a.store.GetUser(context.Background(), id)
	require.NoError(a.t, err)
	u.IsAdmin = true
	require.NoError(a.t, a.store.UpdateUser(context.Background(), u))
}

func (a *testAPI) firstHabit(acc account) models.Habit {
	a.t.Helper()
	rec := a.do(http.MethodGet, "/api/habits", acc.Token, nil)
	require.Equal(a.t, http.StatusOK, rec.Code)
	habits := decode[[]models.Habit](a.t, rec)
	require.NotEmpty(a.t, habits)
	return habits[0]
}

func TestAuthFlow(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")

	rec := api.do(http.MethodGet, "/api/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[UserDTO](t, rec)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, models.ThemeLight, me.Theme)

	t.Run("duplicate signup", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email": "alice@example.com", "username": "alice2", "password": "secret123",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid signup lists fields", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email": "nope", "username": "a", "password": "x",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[errorResponse](t, rec)
		assert.Len(t, body.Fields, 3)
	})

	t.Run("login by username", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": "alice", "password": "secret123",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": "alice@example.com", "password": "wrong-one",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/me", "", nil).Code)
	})

	t.Run("update theme", func(t *testing.T) {
		rec := api.do(http.MethodPatch, "/api/me", alice.Token, map[string]string{"theme": "DARK"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.ThemeDark, decode[UserDTO](t, rec).Theme)
	})
}

func TestHabitEndpoints(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")
	bob := api.signup("bob")

	rec := api.do(http.MethodGet, "/api/habits", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Habit](t, rec), 5)

	rec = api.do(http.MethodPost, "/api/habits", alice.Token, map[string]any{"name": "Journal"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Habit](t, rec)
	assert.Equal(t, models.HabitDraft, created.Status)

	path := "/api/habits/" + created.ID.String()
	rec = api.do(http.MethodPatch, path, bob.Token, map[string]any{"name": "Mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPatch, path, alice.Token, map[string]any{"status": "Active"})
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[models.Habit](t, rec)
	require.NotNil(t, active.StartDate)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPatch, "/api/habits/not-a-uuid", alice.Token, map[string]any{}).Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, alice.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, path, alice.Token, map[string]any{"name": "x"}).Code)
}

func TestStreakAndCompletion(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")
	habit := api.firstHabit(alice)
	statusPath := "/api/streaks/status?habitId=" + habit.ID.String()

	rec := api.do(http.MethodPost, statusPath, alice.Token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decode[services.DailyStatus](t, rec)
	require.NotNil(t, st.HabitTask)

	rec = api.do(http.MethodPost, statusPath, alice.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	completePath := "/api/tasks/" + st.HabitTask.ID.String() + "/complete"
	rec = api.do(http.MethodPost, completePath, alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec)
	gained := res["experience_gained"].(map[string]any)
	assert.EqualValues(t, 11, gained["total_experience"])

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, completePath, alice.Token, nil).Code)

	bob := api.signup("bob")
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, completePath, bob.Token, nil).Code)

	rec = api.do(http.MethodGet, "/api/streaks?habitId="+habit.ID.String(), alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hs := decode[services.HabitStreaks](t, rec)
	require.NotNil(t, hs.CurrentStreak)
	assert.Equal(t, 1, hs.CurrentStreak.Count)

	rec = api.do(http.MethodPost, "/api/streaks/status", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]services.DailyStatus](t, rec), 5)

	rec = api.do(http.MethodGet, "/api/dashboard", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[services.Dashboard](t, rec)
	assert.Equal(t, 5, dash.TasksTotal)
	assert.Equal(t, 1, dash.TasksCompleted)
	assert.Equal(t, 11, dash.TodayExperience)
	assert.Len(t, dash.Trend, 7)
}

func TestExperienceEndpoints(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")
	bob := api.signup("bob")
	base := "/api/users/" + alice.ID.String()

	rec := api.do(http.MethodGet, base+"/levels", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	levels := decode[services.UserLevels](t, rec)
	assert.Equal(t, 0, levels.TotalExperience)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, base+"/experience", bob.Token, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, base+"/experience", alice.Token, nil).Code)

	for _, limit := range []string{"0", "-1", "500", ""} {
		rec = api.do(http.MethodGet, base+"/experience/history?limit="+limit, alice.Token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%q", limit)
	}
	rec = api.do(http.MethodGet, base+"/experience/history?type=BOGUS", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, base+"/experience/history", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[historyResponse](t, rec)
	assert.Equal(t, 50, hist.Limit)
	assert.Empty(t, hist.Transactions)

	habit := api.firstHabit(alice)
	rec = api.do(http.MethodGet, base+"/categories/"+habit.CategoryID.String()+"/stats", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[services.CategoryStats](t, rec).Level.CurrentLevel)
}

func TestLeaderboardEndpoint(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/leaderboard", alice.Token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/leaderboard?type=level-by-category", alice.Token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/leaderboard?type=level-by-user&limit=51", alice.Token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/leaderboard?type=level-by-user&limit=0", alice.Token, nil).Code)

	rec := api.do(http.MethodGet, "/api/leaderboard?type=level-by-user", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[map[string]any](t, rec)
	assert.Equal(t, "level-by-user", board["leaderboard_type"])
	assert.EqualValues(t, 10, board["limit"])
}

func TestFriendEndpoints(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")
	bob := api.signup("bob")

	rec := api.do(http.MethodPost, "/api/friends/request", alice.Token, map[string]any{"target_user_id": bob.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decode[models.UserRelationship](t, rec)

	assert.Equal(t, http.StatusConflict,
		api.do(http.MethodPost, "/api/friends/request", alice.Token, map[string]any{"target_user_id": bob.ID}).Code)
	assert.Equal(t, http.StatusBadRequest,
		api.do(http.MethodPost, "/api/friends/request", alice.Token, map[string]any{}).Code)

	rec = api.do(http.MethodGet, "/api/friends/requests/pending", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.UserRelationship](t, rec), 1)

	acceptPath := "/api/friends/" + req.ID.String() + "/accept"
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, acceptPath, alice.Token, nil).Code)
	require.Equal(t, http.StatusOK, api.do(http.MethodPatch, acceptPath, bob.Token, nil).Code)

	rec = api.do(http.MethodGet, "/api/friends", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	friends := decode[[]services.Friend](t, rec)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)

	rec = api.do(http.MethodGet, "/api/users/"+bob.ID.String()+"/profile", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[services.Profile](t, rec)
	assert.Equal(t, "bob", profile.User.Username)
	assert.Empty(t, profile.User.Email)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/friends/"+req.ID.String(), alice.Token, nil).Code)
}

func TestAdminEndpoints(t *testing.T) {
	api := newAPI(t)
	alice := api.signup("alice")
	root := api.signup("root")

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/admin/overview", alice.Token, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/api/categories", alice.Token, map[string]string{"name": "Music"}).Code)

	api.promote(root.ID)

	rec := api.do(http.MethodGet, "/api/admin/overview", root.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[models.Overview](t, rec).TotalUsers)

	rec = api.do(http.MethodPost, "/api/categories", root.Token, map[string]string{"name": "Music"})
	require.Equal(t, http.StatusCreated, rec.Code)
	music := decode[models.Category](t, rec)

	rec = api.do(http.MethodPost, "/api/admin/users/"+alice.ID.String()+"/adjust", root.Token,
		map[string]any{"category_id": music.ID, "amount": 25, "description": "event prize"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/admin/users/"+alice.ID.String()+"/reconcile", root.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[reconcileResponse](t, rec).Changes)

	rec = api.do(http.MethodGet, "/api/users/"+alice.ID.String()+"/levels", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, decode[services.UserLevels](t, rec).TotalExperience)

	rec = api.do(http.MethodPut, "/api/categories/"+music.ID.String()+"/toggle-active", root.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Category](t, rec).Active)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)

	rec := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "habitquest_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		models.ErrNotFound:                  http.StatusNotFound,
		models.NewValidationError("x", "y"): http.StatusBadRequest,
		models.ErrOutOfWindow:               http.StatusBadRequest,
		models.ErrUnauthorized:              http.StatusUnauthorized,
		models.ErrForbidden:                 http.StatusForbidden,
		models.ErrAlreadyCompleted:          http.StatusConflict,
		models.ErrAlreadyExists:             http.StatusConflict,
		models.ErrConflict:                  http.StatusConflict,
		context.DeadlineExceeded:            http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
