package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"giftpoints/custodian/pkg/activity"
	"giftpoints/custodian/pkg/audit"
	"giftpoints/custodian/pkg/backup"
	"giftpoints/custodian/pkg/config"
	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/retention"
	"giftpoints/custodian/pkg/store"
	"giftpoints/custodian/pkg/telemetry/metrics"
	"giftpoints/custodian/pkg/telemetry/tracing"
)

// app holds the wired components shared by all commands.
type app struct {
	config   *config.Config
	store    store.Store
	activity *activity.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	recorder *audit.Recorder
	locker   lock.Locker
	pruner   *retention.Pruner
	backups  *backup.Manager
	closers  []func() error
}

// newApp opens the store and lock backend and wires every component.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{config: cfg}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, err
	}
	a.tracer = tracer
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tracer.Shutdown(ctx)
	})

	s, err := openStore(cfg.Store)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)

	locker, closeLocker, err := newLocker(ctx, cfg.Lock)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.locker = locker
	if closeLocker != nil {
		a.closers = append(a.closers, closeLocker)
	}

	a.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	a.activity = activity.NewLogger(activityConfig(cfg.Webhook), activity.WithMetrics(a.metrics))
	// Drain pending events before the store closes.
	a.closers = append(a.closers, a.activity.Close)

	a.recorder = audit.NewRecorder(s,
		audit.WithNotifier(a.activity),
		audit.WithMetrics(a.metrics),
	)

	a.pruner = retention.NewPruner(s, a.recorder, locker, retentionConfig(cfg.Retention),
		retention.WithNotifier(a.activity),
		retention.WithMetrics(a.metrics),
		retention.WithTracer(tracer.Tracer("retention")),
	)

	a.backups = backup.NewManager(s, backupConfig(cfg.Backup, cfg.Store.WaitTimeout),
		backup.WithNotifier(a.activity),
		backup.WithMetrics(a.metrics),
		backup.WithAuditHook(a.recorder),
		backup.WithLocker(locker),
		backup.WithTracer(tracer.Tracer("backup")),
	)

	return a, nil
}

// Close releases components in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		slog.Warn("using in-memory record store, data does not survive restarts")
		return store.NewMemoryStorage("giftpoints"), nil
	case "sqlite":
		s, err := store.NewSQLiteStorage(&store.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			Database:     cfg.SQLite.Database,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      config.Bool(cfg.SQLite.WALMode),
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open record store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newLocker(ctx context.Context, cfg config.LockConfig) (lock.Locker, func() error, error) {
	if cfg.Backend != "redis" {
		return lock.NewLocalLocker(), nil, nil
	}

	client, err := lock.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	locker := lock.NewRedisLocker(client, lock.RedisConfig{
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.TTL,
	})
	return locker, client.Close, nil
}

func activityConfig(cfg config.WebhookConfig) *activity.Config {
	return &activity.Config{
		URL:       cfg.URL,
		Mention:   cfg.Mention,
		Username:  cfg.Username,
		Footer:    cfg.Footer,
		QueueSize: cfg.QueueSize,
		Timeout:   cfg.Timeout,
	}
}

func retentionConfig(cfg config.RetentionConfig) *retention.Config {
	rc := &retention.Config{
		Schedule:   cfg.Schedule,
		RunOnStart: config.Bool(cfg.RunOnStart),
		Classes:    make([]retention.Class, 0, len(cfg.Classes)),
	}
	for _, c := range cfg.Classes {
		rc.Classes = append(rc.Classes, retention.Class{
			Name:       c.Name,
			Collection: c.Collection,
			TimeField:  c.TimeField,
			Statuses:   c.Statuses,
			MaxAge:     time.Duration(c.MaxAgeDays) * retention.Day,
		})
	}
	return rc
}

func backupConfig(cfg config.BackupConfig, wait time.Duration) *backup.Config {
	hour := 2
	if cfg.Hour != nil {
		hour = *cfg.Hour
	}
	return &backup.Config{
		Dir:         cfg.Dir,
		Hour:        hour,
		Retention:   time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		RunOnStart:  config.Bool(cfg.RunOnStart),
		Pretty:      cfg.Pretty,
		WaitTimeout: wait,
	}
}

// newManagerForListing returns a manager that is only used to read the
// backup directory.
func newManagerForListing(cfg *config.Config) *backup.Manager {
	return backup.NewManager(nil, backupConfig(cfg.Backup, cfg.Store.WaitTimeout))
}
