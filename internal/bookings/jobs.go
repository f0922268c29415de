package bookings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tablewise/internal/shared/config"
	"tablewise/pkg/logger"
)

// JobProcessor runs the completion sweep and ledger reconciliation in the background.
type JobProcessor struct {
	service Service
	config  *JobConfig
	log     *logger.Logger
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	CompletionInterval time.Duration
	ReconcileInterval  time.Duration
	ReconcileDaysAhead int
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		CompletionInterval: 1 * time.Minute,
		ReconcileInterval:  10 * time.Minute,
		ReconcileDaysAhead: 7,
	}
}

func JobConfigFromConfig(cfg *config.Config) *JobConfig {
	return &JobConfig{
		CompletionInterval: cfg.Jobs.CompletionSweepInterval,
		ReconcileInterval:  cfg.Jobs.ReconcileInterval,
		ReconcileDaysAhead: cfg.Jobs.ReconcileDaysAhead,
	}
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(service Service, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		service: service,
		config:  config,
		log:     logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

// Start starts all background jobs. A zero interval disables that job.
func (jp *JobProcessor) Start(ctx context.Context) {
	if jp.config.CompletionInterval > 0 {
		jp.wg.Add(1)
		go jp.run(ctx, "completion_sweep", jp.config.CompletionInterval, jp.completeDue)
	}
	if jp.config.ReconcileInterval > 0 {
		jp.wg.Add(1)
		go jp.run(ctx, "ledger_reconcile", jp.config.ReconcileInterval, jp.reconcile)
	}
	jp.log.Info("Booking background jobs started",
		slog.Duration("completion_interval", jp.config.CompletionInterval),
		slog.Duration("reconcile_interval", jp.config.ReconcileInterval),
	)
}

// Stop stops all background jobs and waits for a running pass to finish.
func (jp *JobProcessor) Stop() {
	jp.once.Do(func() { close(jp.done) })
	jp.wg.Wait()
	jp.log.Info("Booking background jobs stopped")
}

func (jp *JobProcessor) run(ctx context.Context, name string, interval time.Duration, job func(ctx context.Context)) {
	defer jp.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on startup
	job(ctx)

	for {
		select {
		case <-ticker.C:
			job(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) completeDue(ctx context.Context) {
	if _, err := jp.service.CompleteDue(ctx); err != nil {
		jp.log.ErrorWithContext(ctx, "Completion sweep failed", err, nil)
	}
}

func (jp *JobProcessor) reconcile(ctx context.Context) {
	report, err := jp.service.ReconcileUpcoming(ctx, jp.config.ReconcileDaysAhead)
	if err != nil {
		jp.log.ErrorWithContext(ctx, "Ledger reconciliation failed", err, nil)
		return
	}
	if report.Pruned > 0 {
		jp.log.InfoContext(ctx, "Pruned past ledger dates", slog.Int("dates", report.Pruned))
	}
	if report.Repaired > 0 {
		jp.log.WarnContext(ctx, "Ledger reconciliation repaired entries",
			slog.Int("checked", report.Checked),
			slog.Int("repaired", report.Repaired),
		)
	}
}

// GetJobStatus returns the status of background jobs
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	status := "running"
	select {
	case <-jp.done:
		status = "stopped"
	default:
	}
	return map[string]interface{}{
		"completion_interval":  jp.config.CompletionInterval.String(),
		"reconcile_interval":   jp.config.ReconcileInterval.String(),
		"reconcile_days_ahead": jp.config.ReconcileDaysAhead,
		"status":               status,
	}
}
