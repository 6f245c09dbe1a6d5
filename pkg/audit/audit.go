package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"giftpoints/custodian/pkg/snapshot"
	"giftpoints/custodian/pkg/store"

	"github.com/google/uuid"
)

// Collection is where audit entries are persisted.
const Collection = "audit_logs"

// ActorSystem identifies deletions not initiated by a person.
const ActorSystem = "system"

// Reasons recorded on audit entries.
const (
	ReasonScheduledCleanup = "scheduled_cleanup"
	ReasonRestore          = "restore"
)

// Entry is one deletion audit record.
type Entry struct {
	ID         string
	Actor      string
	TargetType string
	TargetID   string
	Snapshot   string
	Reason     string
	Timestamp  time.Time
}

// Document converts the entry to its stored form.
func (e *Entry) Document() store.Document {
	return store.Document{
		store.IDField:        e.ID,
		"actor":              e.Actor,
		"targetType":         e.TargetType,
		"targetId":           e.TargetID,
		"snapshot":           e.Snapshot,
		"reason":             e.Reason,
		store.CreatedAtField: e.Timestamp,
	}
}

// Hook is called once per record strictly before the record is deleted.
type Hook interface {
	Record(ctx context.Context, actor, targetType, targetID string, record any, reason string) (*Entry, error)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, actor, targetType, targetID string, record any, reason string) (*Entry, error)

// Record implements Hook.
func (f HookFunc) Record(ctx context.Context, actor, targetType, targetID string, record any, reason string) (*Entry, error) {
	return f(ctx, actor, targetType, targetID, record, reason)
}

// Notifier mirrors audit entries to the activity channel.
type Notifier interface {
	LogDeletionAudit(actor, targetType, targetID, reason, snapshot string)
}

// Metrics receives one observation per audit attempt.
type Metrics interface {
	RecordAuditEntry(result string)
}

// Recorder is the Hook used in production.
type Recorder struct {
	store    store.Store
	notifier Notifier
	metrics  Metrics
	builder  *snapshot.Builder
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNotifier mirrors entries to n.
func WithNotifier(n Notifier) Option {
	return func(r *Recorder) { r.notifier = n }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithSnapshotBuilder overrides the snapshot limits.
func WithSnapshotBuilder(b *snapshot.Builder) Option {
	return func(r *Recorder) { r.builder = b }
}

// WithClock overrides the entry timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a recorder persisting to s. A nil store disables
// persistence and only notifies.
func NewRecorder(s store.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:   s,
		builder: snapshot.Default,
		now:     time.Now,
		logger:  slog.Default().With("component", "audit"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements Hook. The entry is always returned, together with any
// persistence error.
func (r *Recorder) Record(ctx context.Context, actor, targetType, targetID string, record any, reason string) (*Entry, error) {
	entry := &Entry{
		ID:         uuid.NewString(),
		Actor:      actor,
		TargetType: targetType,
		TargetID:   targetID,
		Snapshot:   r.builder.Build(record),
		Reason:     reason,
		Timestamp:  r.now().UTC(),
	}

	var err error
	if r.store != nil {
		if insertErr := r.store.InsertMany(ctx, Collection, []store.Document{entry.Document()}); insertErr != nil {
			err = fmt.Errorf("failed to persist audit entry for %s %s: %w", targetType, targetID, insertErr)
			r.logger.Warn("audit entry not persisted",
				"target_type", targetType,
				"target_id", targetID,
				"error", insertErr,
			)
		}
	}

	if r.notifier != nil {
		r.notifier.LogDeletionAudit(entry.Actor, entry.TargetType, entry.TargetID, entry.Reason, entry.Snapshot)
	}

	if r.metrics != nil {
		result := "success"
		if err != nil {
			result = "failure"
		}
		r.metrics.RecordAuditEntry(result)
	}

	return entry, err
}
