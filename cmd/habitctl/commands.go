package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/config"
	"github.com/hkunkel2/habit-quest-api/internal/db"
	"github.com/hkunkel2/habit-quest-api/internal/models"
	"github.com/hkunkel2/habit-quest-api/internal/services"
)

type Context struct {
	Out io.Writer
	Log *zap.Logger
}

// engineConfig reads only the engine tunables, so the offline commands work
// without auth or crypto secrets.
func engineConfig() (config.EngineConfig, error) {
	_ = godotenv.Load()
	var e config.EngineConfig
	if err := cleanenv.ReadEnv(&e); err != nil {
		return e, fmt.Errorf("read engine config: %w", err)
	}
	return e, nil
}

func curveFor(e config.EngineConfig) *services.LevelCurve {
	return services.NewLevelCurve(services.LevelConfig{
		BaseExperience: e.LevelExperienceBase,
		Growth:         e.LevelExperienceMultiplier,
		StepCap:        e.MaxExperiencePerLevel,
		MaxLevel:       e.MaxLevel,
	})
}

func openDB(ctx context.Context) (*sqlx.DB, error) {
	_ = godotenv.Load()
	var dbc config.DatabaseConfig
	if err := cleanenv.ReadEnv(&dbc); err != nil {
		return nil, fmt.Errorf("read database config: %w", err)
	}
	if dbc.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return db.Open(ctx, dbc.URL, db.Options{MaxOpenConns: 2, ConnMaxLifetime: dbc.ConnMaxLifetime})
}

type LevelsCmd struct {
	Max int `help:"Last level to print; defaults to the configured cap." default:"0"`
}

func (c *LevelsCmd) Run(ctx *Context) error {
	e, err := engineConfig()
	if err != nil {
		return err
	}
	curve := curveFor(e)
	last := c.Max
	if last <= 0 || last > e.MaxLevel {
		last = e.MaxLevel
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tTOTAL XP\tSTEP")
	prev := 0
	for lvl := 1; lvl <= last; lvl++ {
		req := curve.ExperienceRequiredForLevel(lvl)
		fmt.Fprintf(tw, "%d\t%d\t%d\n", lvl, req, req-prev)
		prev = req
	}
	return tw.Flush()
}

type AwardCmd struct {
	Count int `arg:"" help:"Streak count after the completion."`
}

func (c *AwardCmd) Run(ctx *Context) error {
	e, err := engineConfig()
	if err != nil {
		return err
	}
	calc := services.NewExperienceCalculator(services.AwardConfig{
		BaseExperience: e.BaseExperiencePoints,
		StreakRate:     e.StreakMultiplier,
	})
	a := calc.AwardForStreak(c.Count)
	fmt.Fprintf(ctx.Out, "base=%d bonus=%d total=%d multiplier=%.2f\n",
		a.BaseExperience, a.StreakBonus, a.TotalExperience, a.Multiplier)
	return nil
}

type ReconcileCmd struct {
	UserID string `arg:"" help:"User to reconcile."`
}

func (c *ReconcileCmd) Run(ctx *Context) error {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	e, err := engineConfig()
	if err != nil {
		return err
	}
	bg := context.Background()
	conn, err := openDB(bg)
	if err != nil {
		return err
	}
	defer conn.Close()

	store := db.NewStore(conn)
	svc := services.NewExperienceService(ctx.Log, store, store, store, store, store, curveFor(e), models.NewSystemClock(time.UTC))
	changes, err := svc.Reconcile(bg, userID)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(ctx.Out, "totals already match the ledger")
		return nil
	}
	for _, ch := range changes {
		fmt.Fprintf(ctx.Out, "%s: %d -> %d\n", ch.CategoryID, ch.Before, ch.After)
	}
	return nil
}

type MigrateUpCmd struct{}

func (c *MigrateUpCmd) Run(ctx *Context) error {
	bg := context.Background()
	conn, err := openDB(bg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return db.RunMigrations(bg, conn, ctx.Log)
}

type MigrateVersionCmd struct{}

func (c *MigrateVersionCmd) Run(ctx *Context) error {
	bg := context.Background()
	conn, err := openDB(bg)
	if err != nil {
		return err
	}
	defer conn.Close()
	v, err := db.MigrationVersion(bg, conn)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Out, v)
	return nil
}
