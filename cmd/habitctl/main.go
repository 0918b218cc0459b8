package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/hkunkel2/habit-quest-api/internal/logging"
)

var CLI struct {
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`

	Levels    LevelsCmd    `cmd:"" help:"Print the experience required for each level."`
	Award     AwardCmd     `cmd:"" help:"Show the experience a completion earns at a streak count."`
	Reconcile ReconcileCmd `cmd:"" help:"Rebuild a user's category totals from the ledger."`
	Migrate   struct {
		Up      MigrateUpCmd      `cmd:"" help:"Apply pending migrations."`
		Version MigrateVersionCmd `cmd:"" help:"Print the current schema version."`
	} `cmd:"" help:"Manage the database schema."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habitctl"),
		kong.Description("Operator tools for the habit streak and experience engine"),
		kong.UsageOnError(),
	)

	logger, err := logging.New(logging.Config{Level: CLI.LogLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := ctx.Run(&Context{Out: os.Stdout, Log: logger}); err != nil {
		logger.Debug("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
