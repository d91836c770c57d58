package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"milestonenotifier/internal/app/server"
	"milestonenotifier/internal/platform/config"
	"milestonenotifier/internal/platform/storage"
)

type commandContext struct {
	databaseFlag *string
}

func newCommandContext(databaseFlag *string) *commandContext {
	return &commandContext{databaseFlag: databaseFlag}
}

func (c *commandContext) config() (config.Config, error) {
	cfg := config.Load()
	if c.databaseFlag != nil && strings.TrimSpace(*c.databaseFlag) != "" {
		cfg.DatabaseURL = strings.TrimSpace(*c.databaseFlag)
	}
	// The CLI never creates accounts.
	cfg.RunSeed = false
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withApp opens storage and assembles the services for the duration of fn.
// The plugin is not activated; commands decide whether that is part of their
// work.
func (c *commandContext) withApp(ctx context.Context, fn func(app *server.App) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	app := server.Assemble(cfg, stores)
	defer app.Close()
	return fn(app)
}

func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
