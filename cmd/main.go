package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/repositories"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}

	if err := shared.LoadEnv(config, ".env"); err != nil {
		logger.Warn("ignoring environment overrides", "error", err)
	}

	opts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}

	var db *sql.DB
	if conn, err := shared.OpenAndMigrate(config.Database); err == nil {
		db = conn
		opts.Tokens = repositories.NewTokenRepository(db)
		opts.Settings = repositories.NewSettingsRepository(db)
	} else {
		logger.Warn("database unavailable, auth token will not persist", "path", config.Database.Path, "error", err)
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:    "stacks",
		Usage:   "Browse, read and listen to your digital library",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}
			return ctx, nil
		},
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	if db != nil {
		db.Close()
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else if errors.Is(err, context.Canceled) {
			os.Exit(130)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
