package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/metrics"
	mw "github.com/hkunkel2/habit-quest-api/internal/middleware"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Habits      *HabitHandler
	Categories  *CategoryHandler
	Streaks     *StreakHandler
	Experience  *ExperienceHandler
	Leaderboard *LeaderboardHandler
	Friends     *FriendHandler
	Profiles    *ProfileHandler
	Dashboard   *DashboardHandler
	Admin       *AdminHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Auth           *mw.AuthMiddleware
	// Ping backs /healthz; nil always reports healthy.
	Ping func(r *http.Request) error
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.ZapRequestLogger(cfg.Logger))
	r.Use(mw.Metrics(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Ping != nil {
			if err := cfg.Ping(req); err != nil {
				cfg.Logger.Warn("health check failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", h.Auth.Signup)
		api.Post("/auth/login", h.Auth.Login)

		api.Group(func(pr chi.Router) {
			pr.Use(cfg.Auth.RequireAuth)

			pr.Post("/auth/logout", h.Auth.Logout)

			pr.Get("/me", h.Users.GetMe)
			pr.Patch("/me", h.Users.UpdateMe)
			pr.Get("/users", h.Users.Search)
			pr.Get("/users/{userId}/levels", h.Experience.Levels)
			pr.Get("/users/{userId}/experience", h.Experience.Summary)
			pr.Get("/users/{userId}/experience/history", h.Experience.History)
			pr.Get("/users/{userId}/categories/{categoryId}/stats", h.Experience.CategoryStats)
			pr.Get("/users/{userId}/profile", h.Profiles.Get)

			pr.Get("/categories", h.Categories.List)

			pr.Get("/habits", h.Habits.List)
			pr.Post("/habits", h.Habits.Create)
			pr.Patch("/habits/{id}", h.Habits.Update)
			pr.Delete("/habits/{id}", h.Habits.Delete)

			pr.Post("/streaks/status", h.Streaks.Status)
			pr.Get("/streaks", h.Streaks.List)
			pr.Post("/tasks/{id}/complete", h.Streaks.CompleteTask)

			pr.Get("/leaderboard", h.Leaderboard.Get)

			pr.Post("/friends/request", h.Friends.SendRequest)
			pr.Post("/friends/block", h.Friends.Block)
			pr.Get("/friends", h.Friends.List)
			pr.Get("/friends/requests/pending", h.Friends.Pending)
			pr.Get("/friends/requests/sent", h.Friends.Sent)
			pr.Patch("/friends/{id}/accept", h.Friends.Accept)
			pr.Delete("/friends/{id}", h.Friends.Remove)

			pr.Get("/dashboard", h.Dashboard.Get)

			pr.Group(func(ad chi.Router) {
				ad.Use(cfg.Auth.RequireAdmin)
				ad.Post("/categories", h.Categories.Create)
				ad.Put("/categories/{id}/toggle-active", h.Categories.ToggleActive)
				ad.Get("/admin/overview", h.Admin.Overview)
				ad.Post("/admin/users/{userId}/reconcile", h.Admin.Reconcile)
				ad.Post("/admin/users/{userId}/adjust", h.Admin.Adjust)
			})
		})
	})

	return r
}
