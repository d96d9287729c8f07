package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

// PruneRecorder records pruned runs.
type PruneRecorder interface {
	RecordPrune(removed int64)
}

// Pruner deletes stored runs older than the retention period.
type Pruner struct {
	store   *Store
	config  config.RetentionConfig
	metrics PruneRecorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a pruner for store.
func NewPruner(store *Store, cfg *config.RetentionConfig) *Pruner {
	return &Pruner{
		store:  store,
		config: *cfg,
		logger: logging.Discard(),
		now:    time.Now,
	}
}

// WithMetrics sets the recorder of pruned runs.
func (p *Pruner) WithMetrics(r PruneRecorder) *Pruner {
	p.metrics = r
	return p
}

// WithLogger sets the logger.
func (p *Pruner) WithLogger(logger *slog.Logger) *Pruner {
	if logger != nil {
		p.logger = logger.With("component", "export.retention")
	}
	return p
}

// Prune deletes the runs that started more than the configured number of
// days ago. With zero days nothing is deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.Days <= 0 {
		p.logger.DebugContext(ctx, "retention disabled, skipping pruning")
		return 0, nil
	}

	cutoff := p.now().Add(-time.Duration(p.config.Days) * 24 * time.Hour)
	removed, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if p.metrics != nil {
		p.metrics.RecordPrune(removed)
	}

	p.logger.InfoContext(ctx, "runs pruned",
		"cutoff", cutoff.UTC().Format(time.RFC3339),
		"retention_days", p.config.Days,
		"removed", removed)
	return removed, nil
}

// Scheduler runs a pruner on its cron schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a scheduler for pruner.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: pruner.logger,
	}
}

// Start schedules pruning with the standard cron expression of the
// retention config, for example "0 3 * * *" for daily at 3 AM. It does
// nothing when retention or the schedule is disabled. The scheduler stops
// when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.pruner.config
	if cfg.Days <= 0 || cfg.PruneSchedule == "" {
		s.logger.Info("retention not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", cfg.PruneSchedule, err)
	}
	if _, err := s.cron.AddFunc(cfg.PruneSchedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("retention scheduler started",
		"schedule", cfg.PruneSchedule,
		"retention_days", cfg.Days)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	if _, err := s.pruner.Prune(ctx); err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
	}
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
