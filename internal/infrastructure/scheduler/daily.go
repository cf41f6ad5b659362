package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	cron "gopkg.in/robfig/cron.v2"

	"arxivdigest/internal/config"
	"arxivdigest/internal/ports"
	"arxivdigest/internal/usecase"
)

// DailyTrigger runs the pipeline unconditionally at a fixed wall-clock time
// every day. Unlike the monitor it carries no remote-state guard; it is the
// simpler deployment mode.
type DailyTrigger struct {
	runner usecase.Runner
	at     string
	logger *slog.Logger
}

var _ ports.Trigger = (*DailyTrigger)(nil)

// NewDailyTrigger schedules the runner at cfg.DailyAt ("HH:MM").
func NewDailyTrigger(runner usecase.Runner, cfg config.SchedulerConfig, logger *slog.Logger) *DailyTrigger {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyTrigger{runner: runner, at: cfg.DailyAt, logger: logger}
}

// Run blocks until ctx is cancelled. A failed job is only logged; the next
// day's run happens regardless.
func (t *DailyTrigger) Run(ctx context.Context) error {
	spec, err := cronSpec(t.at)
	if err != nil {
		return err
	}

	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		t.logger.Info("running scheduled job")
		if _, _, err := t.runner.Run(ctx, ""); err != nil {
			t.logger.Error("scheduled job failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule daily job: %w", err)
	}

	t.logger.Info("daily trigger started", "at", t.at)
	c.Start()
	<-ctx.Done()
	c.Stop()
	t.logger.Info("daily trigger stopped")
	return nil
}

func cronSpec(at string) (string, error) {
	parsed, err := time.Parse("15:04", at)
	if err != nil {
		return "", fmt.Errorf("invalid daily time %q: %w", at, err)
	}
	return fmt.Sprintf("0 %d %d * * *", parsed.Minute(), parsed.Hour()), nil
}
