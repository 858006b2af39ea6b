package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	"github.com/phrazzld/registrar-api/internal/config"
	"github.com/phrazzld/registrar-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(log)

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}

	if app.reconciler != nil {
		app.reconciler.Start()
		log.Info("reference reconciler started",
			"interval_minutes", cfg.Task.ReconcileIntervalMinutes)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
