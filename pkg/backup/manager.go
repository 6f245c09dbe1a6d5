package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"giftpoints/custodian/pkg/activity"
	"giftpoints/custodian/pkg/audit"
	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/store"
	"giftpoints/custodian/pkg/telemetry/logging"
	"giftpoints/custodian/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// LockName is the lock shared by backups and restores.
const LockName = "backup"

// Run results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Config contains configuration for backups.
type Config struct {
	// Dir is where manifests are written.
	// Default: "backups"
	Dir string

	// Hour is the local hour of the daily backup.
	// Default: 2
	Hour int

	// Retention is how long manifests are kept, by modification time.
	// Default: 30 days
	Retention time.Duration

	// RunOnStart takes a backup as soon as the scheduler starts.
	// Default: true
	RunOnStart bool

	// Pretty indents manifests.
	Pretty bool

	// WaitTimeout bounds how long a run waits for the store.
	// Default: store.DefaultWaitTimeout
	WaitTimeout time.Duration
}

// DefaultConfig returns the default backup configuration.
func DefaultConfig() *Config {
	return &Config{
		Dir:         "backups",
		Hour:        2,
		Retention:   30 * 24 * time.Hour,
		RunOnStart:  true,
		WaitTimeout: store.DefaultWaitTimeout,
	}
}

// Notifier receives backup and restore outcomes.
type Notifier interface {
	LogBackup(r activity.BackupReport)
	LogRestore(r activity.RestoreReport)
}

// Metrics receives backup observations.
type Metrics interface {
	RecordBackupRun(result string, duration time.Duration)
	RecordBackupSuccess(sizeBytes int64, at time.Time)
	RecordBackupRotated(n int)
	RecordRestore(result string)
}

// Result describes one completed backup.
type Result struct {
	Name        string
	Path        string
	Type        string
	Collections int
	Documents   int
	Failed      []string
	SizeBytes   int64
	Rotated     []string
	Duration    time.Duration
}

// RestoreResult describes one completed restore.
type RestoreResult struct {
	Name        string
	Actor       string
	Collections int
	Documents   int
	Skipped     []string
	Duration    time.Duration
}

// Manager creates, lists, rotates and restores manifests.
type Manager struct {
	store    store.Store
	hook     audit.Hook
	locker   lock.Locker
	config   *Config
	notifier Notifier
	metrics  Metrics
	write    WriteFunc
	tracer   trace.Tracer
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sets where outcomes are reported.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(mt Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithAuditHook sets the hook called before a restore replaces a collection.
func WithAuditHook(h audit.Hook) Option {
	return func(m *Manager) { m.hook = h }
}

// WithLocker overrides the default in-process locker.
func WithLocker(l lock.Locker) Option {
	return func(m *Manager) { m.locker = l }
}

// WithWriteFunc overrides how encoded manifests reach the temporary file.
func WithWriteFunc(w WriteFunc) Option {
	return func(m *Manager) { m.write = w }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTracer sets the tracer backups and restores are recorded with.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// NewManager creates a backup manager.
func NewManager(s store.Store, config *Config, opts ...Option) *Manager {
	if config == nil {
		config = DefaultConfig()
	}

	m := &Manager{
		store:  s,
		locker: lock.NewLocalLocker(),
		config: config,
		write:  writeAll,
		tracer: noop.NewTracerProvider().Tracer(""),
		now:    time.Now,
		logger: slog.Default().With("component", "backup"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the manager configuration.
func (m *Manager) Config() *Config {
	return m.config
}

// Create takes a backup. The backup type is the run trigger carried by ctx,
// "manual" when there is none.
func (m *Manager) Create(ctx context.Context) (*Result, error) {
	start := m.now()
	backupType := logging.GetTrigger(ctx)
	if backupType == "" {
		backupType = logging.TriggerManual
	}
	logger := logging.FromContext(ctx, m.logger)

	ctx, span := m.tracer.Start(ctx, "backup.create", trace.WithAttributes(
		attribute.String(tracing.AttrBackupType, backupType),
	))
	defer span.End()

	release, err := m.locker.TryLock(ctx, LockName)
	if err != nil {
		tracing.SetStatus(span, err)
		logger.Info("backup skipped", "reason", "lock held", "error", err)
		m.recordRun(ResultSkipped, 0)
		return nil, err
	}
	defer release()

	result, err := m.create(ctx, logger, start, backupType)
	duration := m.now().Sub(start)

	tracing.SetStatus(span, err)
	if err != nil {
		logger.Error("backup failed", "type", backupType, "error", err)
		m.recordRun(ResultFailure, duration)
		if m.notifier != nil {
			m.notifier.LogBackup(activity.BackupReport{BackupType: backupType, Duration: duration, Err: err})
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String(tracing.AttrBackupName, result.Name),
		attribute.Int(tracing.AttrDocuments, result.Documents),
		attribute.Int64(tracing.AttrSizeBytes, result.SizeBytes),
	)
	result.Duration = duration
	m.recordRun(ResultSuccess, duration)
	if m.metrics != nil {
		m.metrics.RecordBackupSuccess(result.SizeBytes, m.now())
		m.metrics.RecordBackupRotated(len(result.Rotated))
	}
	if m.notifier != nil {
		m.notifier.LogBackup(activity.BackupReport{
			FileName:    result.Name,
			BackupType:  result.Type,
			Collections: result.Collections,
			Documents:   result.Documents,
			SizeBytes:   result.SizeBytes,
			Rotated:     len(result.Rotated),
			Duration:    duration,
		})
	}

	logger.Info("backup completed",
		"file", result.Name,
		"type", result.Type,
		"collections", result.Collections,
		"documents", result.Documents,
		"failed_collections", len(result.Failed),
		"size_bytes", result.SizeBytes,
		"rotated", len(result.Rotated),
		"duration", duration,
	)
	return result, nil
}

func (m *Manager) create(ctx context.Context, logger *slog.Logger, start time.Time, backupType string) (*Result, error) {
	if err := store.WaitConnected(ctx, m.store, m.config.WaitTimeout, 0); err != nil {
		return nil, err
	}

	collections, err := m.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	sort.Strings(collections)

	manifest := &Manifest{
		Timestamp:   start.UTC(),
		Version:     Version,
		Database:    m.store.Name(),
		Collections: make(map[string]CollectionEntry, len(collections)),
		Metadata:    Metadata{BackupType: backupType},
	}

	var failed []string
	for _, name := range collections {
		docs, err := m.store.Find(ctx, name, store.Filter{})
		if err != nil {
			logger.Warn("collection not captured", "collection", name, "error", err)
			manifest.Collections[name] = CollectionEntry{Error: err.Error()}
			failed = append(failed, name)
			continue
		}
		manifest.Collections[name] = CollectionEntry{Records: docs}
	}

	data, err := manifest.finalize(m.config.Pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.MkdirAll(m.config.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	name, err := freeName(m.config.Dir, start)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(m.config.Dir, name, data, m.write); err != nil {
		return nil, err
	}

	rotated, err := m.Rotate()
	if err != nil {
		logger.Warn("rotation failed", "error", err)
	}

	return &Result{
		Name:        name,
		Path:        filepath.Join(m.config.Dir, name),
		Type:        backupType,
		Collections: manifest.Metadata.TotalCollections,
		Documents:   manifest.Metadata.TotalDocuments,
		Failed:      failed,
		SizeBytes:   int64(len(data)),
		Rotated:     rotated,
	}, nil
}

// Rotate removes manifests whose modification time is older than the
// retention window and returns their names. Staging files left by an
// interrupted write are removed on the same cutoff but not returned.
func (m *Manager) Rotate() ([]string, error) {
	infos, err := listManifests(m.config.Dir)
	if err != nil {
		return nil, err
	}

	cutoff := m.now().Add(-m.config.Retention)
	var removed []string
	var errs []error
	for _, info := range infos {
		if !info.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.config.Dir, info.Name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, info.Name)
		m.logger.Debug("old backup removed", "file", info.Name, "mod_time", info.ModTime)
	}

	temps, err := staleTemps(m.config.Dir, cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	for _, name := range temps {
		if err := os.Remove(filepath.Join(m.config.Dir, name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		m.logger.Info("stale temporary file removed", "file", name)
	}
	return removed, errors.Join(errs...)
}

// List returns the manifests in the backup directory, newest first.
func (m *Manager) List() ([]Info, error) {
	return listManifests(m.config.Dir)
}

// Restore replaces every collection captured in the named manifest with its
// records. The manifest is loaded before the store is touched, so a missing
// manifest performs no mutation. Each collection is audited, emptied and
// refilled in name order; collections captured as error markers are skipped.
func (m *Manager) Restore(ctx context.Context, name string) (*RestoreResult, error) {
	start := m.now()
	actor := logging.GetActor(ctx)
	if actor == "" {
		actor = audit.ActorSystem
	}
	logger := logging.FromContext(ctx, m.logger)

	ctx, span := m.tracer.Start(ctx, "backup.restore", trace.WithAttributes(
		attribute.String(tracing.AttrBackupName, name),
		attribute.String(tracing.AttrActor, actor),
	))
	defer span.End()

	result, err := m.restore(ctx, logger, name, actor)
	duration := m.now().Sub(start)
	tracing.SetStatus(span, err)

	if err != nil {
		logger.Error("restore failed", "file", name, "error", err)
		if m.metrics != nil && !errors.Is(err, lock.ErrLocked) {
			m.metrics.RecordRestore(ResultFailure)
		}
		if m.notifier != nil && !errors.Is(err, lock.ErrLocked) {
			m.notifier.LogRestore(activity.RestoreReport{FileName: name, Actor: actor, Duration: duration, Err: err})
		}
		return nil, err
	}

	result.Duration = duration
	if m.metrics != nil {
		m.metrics.RecordRestore(ResultSuccess)
	}
	if m.notifier != nil {
		m.notifier.LogRestore(activity.RestoreReport{
			FileName:    result.Name,
			Actor:       result.Actor,
			Collections: result.Collections,
			Documents:   result.Documents,
			Skipped:     result.Skipped,
			Duration:    duration,
		})
	}

	logger.Info("restore completed",
		"file", name,
		"collections", result.Collections,
		"documents", result.Documents,
		"skipped", len(result.Skipped),
		"duration", duration,
	)
	return result, nil
}

func (m *Manager) restore(ctx context.Context, logger *slog.Logger, name, actor string) (*RestoreResult, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	release, err := m.locker.TryLock(ctx, LockName)
	if err != nil {
		return nil, err
	}
	defer release()

	manifest, err := m.load(name)
	if err != nil {
		return nil, err
	}

	if err := store.WaitConnected(ctx, m.store, m.config.WaitTimeout, 0); err != nil {
		return nil, err
	}

	collections := make([]string, 0, len(manifest.Collections))
	for c := range manifest.Collections {
		collections = append(collections, c)
	}
	sort.Strings(collections)

	result := &RestoreResult{Name: name, Actor: actor}
	for _, c := range collections {
		entry := manifest.Collections[c]
		if entry.Failed() {
			logger.Warn("collection skipped, captured as error", "collection", c, "error", entry.Error)
			result.Skipped = append(result.Skipped, c)
			continue
		}

		m.auditReplace(ctx, logger, name, actor, c, len(entry.Records))

		if _, err := m.store.DeleteAll(ctx, c); err != nil {
			return nil, NewRestoreError(name, c, "delete", err)
		}
		if len(entry.Records) > 0 {
			if err := m.store.InsertMany(ctx, c, entry.Records); err != nil {
				return nil, NewRestoreError(name, c, "insert", err)
			}
		}

		result.Collections++
		result.Documents += len(entry.Records)
		logger.Debug("collection restored", "collection", c, "documents", len(entry.Records))
	}

	return result, nil
}

// auditReplace records that a collection is about to be replaced. Failures
// are logged and never block the restore.
func (m *Manager) auditReplace(ctx context.Context, logger *slog.Logger, name, actor, collection string, incoming int) {
	if m.hook == nil {
		return
	}

	existing := -1
	if docs, err := m.store.Find(ctx, collection, store.Filter{}); err == nil {
		existing = len(docs)
	}

	record := map[string]any{
		"collection": collection,
		"manifest":   name,
		"existing":   existing,
		"incoming":   incoming,
	}
	if _, err := m.hook.Record(ctx, actor, "collection", collection, record, audit.ReasonRestore); err != nil {
		logger.Warn("audit failed, restoring anyway", "collection", collection, "error", err)
	}
}

// load opens and decodes the named manifest.
func (m *Manager) load(name string) (*Manifest, error) {
	f, err := os.Open(filepath.Join(m.config.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, name)
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return ReadManifest(f)
}

func (m *Manager) recordRun(result string, duration time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordBackupRun(result, duration)
	}
}
