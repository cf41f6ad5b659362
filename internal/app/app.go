package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arxivdigest/internal/config"
	"arxivdigest/internal/infrastructure/llm"
	"arxivdigest/internal/infrastructure/parser"
	"arxivdigest/internal/infrastructure/scheduler"
	"arxivdigest/internal/infrastructure/storage"
	"arxivdigest/internal/logging"
	"arxivdigest/internal/ports"
	"arxivdigest/internal/usecase"
)

// Application wires configuration into the scraping daemon.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	trigger  ports.Trigger
}

// New builds the pipeline and the configured trigger strategy. Configuration
// errors (missing Gemini key, unknown mode) are fatal here, at startup.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := parser.NewListingScanner(nil, cfg.Scraper, baseLogger.With("component", "scanner"))

	enricher, err := llm.NewGeminiClient(cfg.Gemini, baseLogger.With("component", "gemini"))
	if err != nil {
		return nil, err
	}

	store := storage.NewDailyFileStore(cfg.Storage.DataDir)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Enricher: enricher,
		Store:    store,
		Logger:   baseLogger.With("component", "pipeline"),
	})

	location := cfg.Scheduler.Location()

	var trigger ports.Trigger
	switch cfg.Scheduler.Mode {
	case "", "monitor":
		trigger = usecase.NewMonitor(usecase.MonitorDeps{
			Source:   source,
			Store:    store,
			Runner:   pipeline,
			Interval: cfg.Scheduler.CheckInterval(),
			Logger:   baseLogger.With("component", "monitor"),
			Now:      func() time.Time { return time.Now().In(location) },
		})
	case "daily":
		trigger = scheduler.NewDailyTrigger(pipeline, cfg.Scheduler, baseLogger.With("component", "daily"))
	default:
		return nil, fmt.Errorf("unknown scheduler mode %q", cfg.Scheduler.Mode)
	}

	return &Application{cfg: cfg, pipeline: pipeline, trigger: trigger}, nil
}

// Run drives the trigger until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	return a.trigger.Run(ctx)
}

// RunOnce executes a single pipeline cycle, regardless of trigger mode.
func (a *Application) RunOnce(ctx context.Context) error {
	_, _, err := a.pipeline.Run(ctx, "")
	return err
}
