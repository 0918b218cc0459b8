package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/config"
	"github.com/hkunkel2/habit-quest-api/internal/db"
	"github.com/hkunkel2/habit-quest-api/internal/db/memstore"
	"github.com/hkunkel2/habit-quest-api/internal/handlers"
	"github.com/hkunkel2/habit-quest-api/internal/logging"
	"github.com/hkunkel2/habit-quest-api/internal/metrics"
	mw "github.com/hkunkel2/habit-quest-api/internal/middleware"
	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

var (
	_ services.Store = (*db.Store)(nil)
	_ services.Store = (*memstore.Store)(nil)
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	clock := models.NewSystemClock(cfg.Location())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var app services.Store
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set; using the in-memory store, data is lost on exit")
		app = memstore.New(memstore.WithClock(clock))
	} else {
		conn, err := db.Open(ctx, cfg.Database.URL, db.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.RunMigrations(ctx, conn, logger); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		app = db.NewStore(conn)
	}

	logger.Info("store ready", zap.Bool("in_memory", cfg.Database.URL == ""))

	enc, err := services.NewEncryptionService(cfg.Crypto.EncryptionKey, cfg.Crypto.BlindIndexKey)
	if err != nil {
		return err
	}
	curve := services.NewLevelCurve(services.LevelConfig{
		BaseExperience: cfg.Engine.LevelExperienceBase,
		Growth:         cfg.Engine.LevelExperienceMultiplier,
		StepCap:        cfg.Engine.MaxExperiencePerLevel,
		MaxLevel:       cfg.Engine.MaxLevel,
	})
	calc := services.NewExperienceCalculator(services.AwardConfig{
		BaseExperience: cfg.Engine.BaseExperiencePoints,
		StreakRate:     cfg.Engine.StreakMultiplier,
	})

	categories := services.NewCategoryService(logger, app)
	if err := categories.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	habits := services.NewHabitService(logger, app, app)
	streaks := services.NewStreakService(logger, app, app, app, app, m)
	completion := services.NewCompletionService(logger, app, app, app, app, app, app, calc, clock, m)
	experience := services.NewExperienceService(logger, app, app, app, app, app, curve, clock)
	friends := services.NewFriendService(logger, app, app, app)
	dashboard := services.NewDashboardService(app, app, experience)
	auth := services.NewAuthService(logger, app, enc, habits, clock, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	profiles := services.NewProfileService(logger, app, app, enc, streaks, experience, friends)

	router := handlers.NewRouter(handlers.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
		Metrics:        m,
		Auth:           mw.NewAuthMiddleware([]byte(cfg.Auth.JWTSecret), app),
		Ping:           func(r *http.Request) error { return app.Ping(r.Context()) },
	}, handlers.Handlers{
		Auth:        handlers.NewAuthHandler(auth, logger),
		Users:       handlers.NewUserHandler(services.NewUserService(logger, app, enc), logger),
		Habits:      handlers.NewHabitHandler(habits, clock, logger),
		Categories:  handlers.NewCategoryHandler(categories, logger),
		Streaks:     handlers.NewStreakHandler(streaks, completion, clock, logger),
		Experience:  handlers.NewExperienceHandler(experience, logger),
		Leaderboard: handlers.NewLeaderboardHandler(services.NewLeaderboardService(app, app, app, curve), logger),
		Friends:     handlers.NewFriendHandler(friends, logger),
		Profiles:    handlers.NewProfileHandler(profiles, clock, logger),
		Dashboard:   handlers.NewDashboardHandler(dashboard, clock, logger),
		Admin:       handlers.NewAdminHandler(dashboard, experience, clock, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("timezone", cfg.Timezone))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
