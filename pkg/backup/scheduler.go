package backup

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

// Scheduler runs backups once at start and then daily at the configured hour.
type Scheduler struct {
	manager *Manager
	cron    *cron.Cron
	mu      sync.Mutex
	wg      sync.WaitGroup
	logger  *slog.Logger
	running bool

	// lastHour is the hour key of the last scheduled run.
	lastHour string
}

// NewScheduler creates a new backup scheduler.
func NewScheduler(manager *Manager) *Scheduler {
	return &Scheduler{
		manager: manager,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "backup.scheduler"),
	}
}

// Schedule returns the cron expression for a daily run at hour.
func Schedule(hour int) string {
	return fmt.Sprintf("0 %d * * *", hour)
}

// Start registers the daily run and, when RunOnStart is set, takes a backup
// in the background right away.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	config := s.manager.config
	if config.Hour < 0 || config.Hour > 23 {
		return fmt.Errorf("invalid backup hour %d", config.Hour)
	}

	schedule := Schedule(config.Hour)
	_, err := s.cron.AddFunc(schedule, func() {
		s.scheduled(ctx, time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule backup: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("backup scheduler started",
		"schedule", schedule,
		"dir", config.Dir,
		"retention", config.Retention,
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

// scheduled runs a backup unless one already ran for the hour of at.
func (s *Scheduler) scheduled(ctx context.Context, at time.Time) bool {
	key := at.Format("2006-01-02T15")

	s.mu.Lock()
	if s.lastHour == key {
		s.mu.Unlock()
		s.logger.Debug("backup already ran this hour, skipping", "hour", key)
		return false
	}
	s.lastHour = key
	s.mu.Unlock()

	s.run(logging.WithTrigger(ctx, logging.TriggerScheduled))
	return true
}

// TriggerNow takes a backup synchronously.
func (s *Scheduler) TriggerNow(ctx context.Context) (*Result, error) {
	if logging.GetTrigger(ctx) == "" {
		ctx = logging.WithTrigger(ctx, logging.TriggerManual)
	}
	return s.manager.Create(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	_, err := s.manager.Create(ctx)
	switch {
	case errors.Is(err, lock.ErrLocked):
		s.logger.Info("backup already in progress, skipping",
			"trigger", logging.GetTrigger(ctx))
	case err != nil:
		s.logger.Warn("backup run failed, will retry on next trigger",
			"trigger", logging.GetTrigger(ctx),
			"error", err,
		)
	}
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron == nil || !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("backup scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled backup time.
func (s *Scheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
