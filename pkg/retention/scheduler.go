package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/telemetry/logging"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the pruner on the configured schedule.
type Scheduler struct {
	pruner  *Pruner
	cron    *cron.Cron
	mu      sync.Mutex
	wg      sync.WaitGroup
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a new retention scheduler.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "retention.scheduler"),
	}
}

// Start registers the schedule and, when RunOnStart is set, runs once in the
// background right away. Schedules accept standard cron expressions and
// descriptors:
//   - "@every 168h" - Weekly from process start
//   - "0 3 * * *"   - Daily at 3 AM
//
// An empty schedule disables periodic runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	config := s.pruner.config
	if config.Schedule == "" {
		s.logger.Info("retention schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", config.Schedule, err)
	}

	_, err := s.cron.AddFunc(config.Schedule, func() {
		s.run(logging.WithTrigger(ctx, logging.TriggerScheduled))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", config.Schedule,
		"classes", len(config.Classes),
		"run_on_start", config.RunOnStart,
	)

	if config.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(logging.WithTrigger(ctx, logging.TriggerStartup))
		}()
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// TriggerNow runs the pruner synchronously. It returns lock.ErrLocked when a
// run is already in progress.
func (s *Scheduler) TriggerNow(ctx context.Context) (*Report, error) {
	if logging.GetTrigger(ctx) == "" {
		ctx = logging.WithTrigger(ctx, logging.TriggerManual)
	}
	return s.pruner.Run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	report, err := s.pruner.Run(ctx)
	switch {
	case errors.Is(err, lock.ErrLocked):
		s.logger.Info("retention run already in progress, skipping",
			"trigger", logging.GetTrigger(ctx))
	case err != nil:
		s.logger.Warn("retention run skipped",
			"trigger", logging.GetTrigger(ctx),
			"error", err,
		)
	case report.Total() == 0:
		s.logger.Debug("retention run completed, nothing expired")
	}
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.wg.Wait()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled run time.
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
