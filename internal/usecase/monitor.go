package usecase

import (
	"context"
	"log/slog"
	"time"

	"arxivdigest/internal/ports"
)

// MonitorDeps wires the poll-and-compare trigger.
type MonitorDeps struct {
	Source   ports.ListingSource
	Store    ports.DailyStore
	Runner   Runner
	Interval time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Monitor polls the listing date and runs the pipeline exactly once per new
// date. Every failure is transient: logged, then retried on the next cycle.
type Monitor struct {
	source   ports.ListingSource
	store    ports.DailyStore
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.Trigger = (*Monitor)(nil)

// NewMonitor builds the trigger; interval defaults to 30 minutes.
func NewMonitor(deps MonitorDeps) *Monitor {
	interval := deps.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		source:   deps.Source,
		store:    deps.Store,
		runner:   deps.Runner,
		interval: interval,
		logger:   logger,
		now:      now,
	}
}

// Run checks immediately, then once per interval, until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one cycle of the state machine: probe the remote listing date,
// compare against the store, and trigger the pipeline when a new date has
// appeared.
func (m *Monitor) Check(ctx context.Context) {
	date, err := m.source.FetchListingDate(ctx)
	if err != nil {
		m.logger.Warn("listing date check failed", "error", err)
		return
	}
	if date == "" {
		m.logger.Warn("listing date header missing or malformed")
		return
	}

	if m.store.Exists(date) {
		m.logger.Info("daily document up to date", "date", date)
		return
	}

	m.logger.Info("new listing detected", "date", date)
	if _, _, err := m.runner.Run(ctx, date); err != nil {
		m.logger.Error("pipeline run failed", "date", date, "error", err)
		return
	}

	m.reconcile(date)
}

// reconcile repairs a run whose fallback date diverged from the probed one:
// when the target document is still missing but a wall-clock-dated one
// exists, the latter is re-keyed to the target date.
func (m *Monitor) reconcile(target string) {
	if m.store.Exists(target) {
		return
	}

	sysDate := m.now().Format(dateLayout)
	if sysDate == target || !m.store.Exists(sysDate) {
		m.logger.Warn("pipeline finished but document is missing", "date", target)
		return
	}

	if err := m.store.Rename(sysDate, target); err != nil {
		m.logger.Error("re-key daily document", "from", sysDate, "to", target, "error", err)
		return
	}
	m.logger.Info("re-keyed daily document to listing date", "from", sysDate, "to", target)
}
