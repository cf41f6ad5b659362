package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"arxivdigest/internal/app"
	"arxivdigest/internal/config"
	"arxivdigest/internal/logging"
)

// scan runs the fetch-enrich-store pipeline once and exits. Useful for manual
// re-runs of a day that needs overwriting.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if err := application.RunOnce(ctx); err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
}
