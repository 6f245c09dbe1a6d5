package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"giftpoints/custodian/pkg/activity"
	"giftpoints/custodian/pkg/audit"
	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/store"
	"giftpoints/custodian/pkg/telemetry/logging"
	"giftpoints/custodian/pkg/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// LockName is the lock shared by scheduled and manual runs.
const LockName = "retention"

// Run results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Notifier receives run outcomes.
type Notifier interface {
	LogCleanupSummary(counts map[string]int)
	LogError(err error, where string, rc *activity.RequestContext)
}

// Metrics receives run observations.
type Metrics interface {
	RecordRetentionRun(result string, duration time.Duration)
	RecordRetentionDeleted(class string, n int)
}

// Report describes one run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Skipped    bool
	SkipReason string

	// Candidates is the number of expired records found per class. Every
	// configured class is present, failed ones with the count found so far.
	Candidates map[string]int

	// Deleted is the number of records the store reported removed per class.
	Deleted map[string]int64

	// Errors holds one *ClassError per failed class.
	Errors []error
}

// Total returns the number of candidates across all classes.
func (r *Report) Total() int {
	n := 0
	for _, c := range r.Candidates {
		n += c
	}
	return n
}

// Result summarizes the run as a metrics label.
func (r *Report) Result() string {
	switch {
	case r.Skipped:
		return ResultSkipped
	case len(r.Errors) > 0:
		return ResultFailure
	default:
		return ResultSuccess
	}
}

// Pruner performs retention runs.
type Pruner struct {
	store    store.Store
	hook     audit.Hook
	locker   lock.Locker
	config   *Config
	notifier Notifier
	metrics  Metrics
	tracer   trace.Tracer
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithNotifier sets where summaries and errors are reported.
func WithNotifier(n Notifier) Option {
	return func(p *Pruner) { p.notifier = n }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(p *Pruner) { p.metrics = m }
}

// WithClock overrides the time source used for cutoffs.
func WithClock(now func() time.Time) Option {
	return func(p *Pruner) { p.now = now }
}

// WithTracer sets the tracer runs are recorded with.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pruner) { p.tracer = t }
}

// NewPruner creates a pruner. A nil locker defaults to a LocalLocker.
func NewPruner(s store.Store, hook audit.Hook, locker lock.Locker, config *Config, opts ...Option) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}

	p := &Pruner{
		store:  s,
		hook:   hook,
		locker: locker,
		config: config,
		tracer: noop.NewTracerProvider().Tracer(""),
		now:    time.Now,
		logger: slog.Default().With("component", "retention"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the pruner configuration.
func (p *Pruner) Config() *Config {
	return p.config
}

// Run performs one retention run. It returns lock.ErrLocked when another run
// is in progress and an error wrapping the ping failure when the store is not
// connected; in both cases nothing is touched. Per-class failures do not fail
// the run: they are reported in Report.Errors.
func (p *Pruner) Run(ctx context.Context) (report *Report, err error) {
	report = &Report{
		RunID:      uuid.NewString(),
		StartedAt:  p.now(),
		Candidates: make(map[string]int),
		Deleted:    make(map[string]int64),
	}
	if logging.GetRunID(ctx) == "" {
		ctx = logging.WithRunID(ctx, report.RunID)
	} else {
		report.RunID = logging.GetRunID(ctx)
	}
	logger := logging.FromContext(ctx, p.logger)

	ctx, span := p.tracer.Start(ctx, "retention.run",
		trace.WithAttributes(tracing.RunAttributes(report.RunID, logging.GetTrigger(ctx))...))
	defer func() {
		span.SetAttributes(attribute.Int(tracing.AttrCandidates, report.Total()))
		if err == nil && len(report.Errors) > 0 {
			tracing.SetStatus(span, errors.Join(report.Errors...))
		} else {
			tracing.SetStatus(span, err)
		}
		span.End()
	}()

	release, err := p.locker.TryLock(ctx, LockName)
	if err != nil {
		report.Skipped = true
		report.SkipReason = "another retention run is in progress"
		if !errors.Is(err, lock.ErrLocked) {
			report.SkipReason = "lock unavailable"
		}
		logger.Info("retention run skipped", "reason", report.SkipReason, "error", err)
		p.finish(report)
		return report, err
	}
	defer release()

	if err := p.store.Ping(ctx); err != nil {
		report.Skipped = true
		report.SkipReason = "record store not connected"
		logger.Warn("retention run skipped", "reason", report.SkipReason, "error", err)
		p.finish(report)
		return report, fmt.Errorf("retention run skipped: %w", err)
	}

	logger.Info("retention run started", "classes", len(p.config.Classes))

	for _, class := range p.config.Classes {
		report.Candidates[class.Name] = 0
		if err := p.pruneClass(ctx, logger, class, report); err != nil {
			report.Errors = append(report.Errors, err)
			logger.Error("retention class failed", "class", class.Name, "error", err)
			if p.notifier != nil {
				p.notifier.LogError(err, "retention."+class.Name, nil)
			}
		}
	}

	if report.Total() > 0 && p.notifier != nil {
		p.notifier.LogCleanupSummary(report.Candidates)
	}

	p.finish(report)

	logger.Info("retention run completed",
		"candidates", report.Total(),
		"failed_classes", len(report.Errors),
		"duration", report.Duration,
	)

	return report, nil
}

// pruneClass audits then deletes the expired records of one class.
func (p *Pruner) pruneClass(ctx context.Context, logger *slog.Logger, class Class, report *Report) (err error) {
	ctx, span := p.tracer.Start(ctx, "retention.class", trace.WithAttributes(
		attribute.String(tracing.AttrClass, class.Name),
		attribute.String(tracing.AttrCollection, class.Collection),
	))
	defer func() {
		span.SetAttributes(
			attribute.Int(tracing.AttrCandidates, report.Candidates[class.Name]),
			attribute.Int64(tracing.AttrDeleted, report.Deleted[class.Name]),
		)
		tracing.SetStatus(span, err)
		span.End()
	}()

	docs, err := p.store.Find(ctx, class.Collection, class.Filter(report.StartedAt))
	if err != nil {
		return NewClassError(class.Name, "find", err)
	}
	report.Candidates[class.Name] = len(docs)
	if len(docs) == 0 {
		logger.Debug("no expired records", "class", class.Name)
		return nil
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID()
		ids = append(ids, id)
		if p.hook == nil {
			continue
		}
		if _, err := p.hook.Record(ctx, audit.ActorSystem, class.Name, id, doc, audit.ReasonScheduledCleanup); err != nil {
			logger.Warn("audit failed, deleting anyway",
				"class", class.Name,
				"id", id,
				"error", err,
			)
		}
	}

	deleted, err := p.store.DeleteMany(ctx, class.Collection, ids)
	if err != nil {
		return NewClassError(class.Name, "delete", err)
	}
	report.Deleted[class.Name] = deleted
	if p.metrics != nil {
		p.metrics.RecordRetentionDeleted(class.Name, int(deleted))
	}

	logger.Info("expired records deleted",
		"class", class.Name,
		"candidates", len(docs),
		"deleted", deleted,
	)
	return nil
}

func (p *Pruner) finish(report *Report) {
	report.Duration = p.now().Sub(report.StartedAt)
	if p.metrics != nil {
		p.metrics.RecordRetentionRun(report.Result(), report.Duration)
	}
}
