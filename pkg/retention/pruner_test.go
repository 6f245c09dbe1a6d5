package retention_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"giftpoints/custodian/internal/storetest"
	"giftpoints/custodian/pkg/activity"
	"giftpoints/custodian/pkg/audit"
	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/retention"
	"giftpoints/custodian/pkg/store"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * retention.Day) }

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []map[string]int
	errors    []string
}

func (n *fakeNotifier) LogCleanupSummary(counts map[string]int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := make(map[string]int, len(counts))
	for k, v := range counts {
		c[k] = v
	}
	n.summaries = append(n.summaries, c)
}

func (n *fakeNotifier) LogError(err error, where string, _ *activity.RequestContext) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, where+": "+err.Error())
}

type fakeMetrics struct {
	runs    map[string]int
	deleted map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{runs: map[string]int{}, deleted: map[string]int{}}
}

func (m *fakeMetrics) RecordRetentionRun(result string, _ time.Duration) { m.runs[result]++ }
func (m *fakeMetrics) RecordRetentionDeleted(class string, n int)       { m.deleted[class] += n }

// loggingHook appends "audit:<class>:<id>" to the store log.
func loggingHook(log *storetest.Log) audit.Hook {
	return audit.HookFunc(func(_ context.Context, actor, targetType, targetID string, _ any, reason string) (*audit.Entry, error) {
		log.Append("audit:%s:%s", targetType, targetID)
		return &audit.Entry{Actor: actor, TargetType: targetType, TargetID: targetID, Reason: reason}, nil
	})
}

func newPruner(t *testing.T, s store.Store, hook audit.Hook, opts ...retention.Option) (*retention.Pruner, *fakeNotifier, *fakeMetrics) {
	t.Helper()
	notifier := &fakeNotifier{}
	metrics := newFakeMetrics()
	opts = append([]retention.Option{
		retention.WithNotifier(notifier),
		retention.WithMetrics(metrics),
		retention.WithClock(clock),
	}, opts...)
	return retention.NewPruner(s, hook, lock.NewLocalLocker(), retention.DefaultConfig(), opts...), notifier, metrics
}

func TestPruner_EndToEndExample(t *testing.T) {
	s := store.NewMemoryStorage("giftpoints")
	ctx := context.Background()
	if err := s.InsertMany(ctx, "orders", []store.Document{
		{"_id": "o-old", "status": "accepted", "updatedAt": daysAgo(8)},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertMany(ctx, "attempts", []store.Document{
		{"_id": "a-young", "createdAt": daysAgo(10)},
	}); err != nil {
		t.Fatal(err)
	}

	recorder := audit.NewRecorder(s, audit.WithClock(clock))
	p, notifier, _ := newPruner(t, s, recorder)

	report, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if s.GetByID("orders", "o-old") != nil {
		t.Error("expired order was not deleted")
	}
	if s.GetByID("attempts", "a-young") == nil {
		t.Error("10-day attempt was deleted")
	}
	if got := s.Size(audit.Collection); got != 1 {
		t.Errorf("audit entries = %d, want 1", got)
	}

	want := []map[string]int{{"orders": 1, "attempts": 0}}
	if diff := cmp.Diff(want, notifier.summaries); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}
	if report.Deleted["orders"] != 1 {
		t.Errorf("Deleted[orders] = %d, want 1", report.Deleted["orders"])
	}
}

func TestPruner_AuditsBeforeDelete(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.Seed("orders",
		store.Document{"_id": "o-1", "status": "accepted", "updatedAt": daysAgo(9)},
		store.Document{"_id": "o-2", "status": "rejected", "updatedAt": daysAgo(30)},
		store.Document{"_id": "o-3", "status": "pending", "updatedAt": daysAgo(30)},
	)

	p, _, _ := newPruner(t, s, loggingHook(s.Log))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := s.Log.Events()
	del := s.Log.Index("delete_many:orders:o-1,o-2")
	if del < 0 {
		t.Fatalf("delete not found in %v", events)
	}
	for _, id := range []string{"o-1", "o-2"} {
		idx := s.Log.Index("audit:orders:" + id)
		if idx < 0 || idx > del {
			t.Errorf("audit of %s at %d, delete at %d: %v", id, idx, del, events)
		}
	}
	if s.Log.Index("audit:orders:o-3") >= 0 {
		t.Error("pending order was audited")
	}
	if s.GetByID("orders", "o-3") == nil {
		t.Error("pending order was deleted")
	}
	if got := s.Log.Count("delete_many:"); got != 1 {
		t.Errorf("delete calls = %d, want 1", got)
	}
}

func TestPruner_NothingExpired(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.Seed("orders", store.Document{"_id": "o-1", "status": "accepted", "updatedAt": daysAgo(1)})
	s.Seed("attempts", store.Document{"_id": "a-1", "createdAt": daysAgo(13)})

	p, notifier, metrics := newPruner(t, s, loggingHook(s.Log))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if events := s.Log.Events(); len(events) != 0 {
		t.Errorf("unexpected store calls: %v", events)
	}
	if len(notifier.summaries) != 0 {
		t.Errorf("summary emitted with no candidates: %v", notifier.summaries)
	}
	if report.Total() != 0 {
		t.Errorf("Total() = %d, want 0", report.Total())
	}
	if metrics.runs[retention.ResultSuccess] != 1 {
		t.Errorf("runs = %v", metrics.runs)
	}
}

func TestPruner_Boundaries(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		doc        store.Document
		wantDelete bool
	}{
		{
			name:       "order exactly at cutoff",
			collection: "orders",
			doc:        store.Document{"_id": "x", "status": "accepted", "updatedAt": daysAgo(7)},
			wantDelete: true,
		},
		{
			name:       "order one minute younger than cutoff",
			collection: "orders",
			doc:        store.Document{"_id": "x", "status": "rejected", "updatedAt": daysAgo(7).Add(time.Minute)},
			wantDelete: false,
		},
		{
			name:       "old order without terminal status",
			collection: "orders",
			doc:        store.Document{"_id": "x", "status": "pending", "updatedAt": daysAgo(100)},
			wantDelete: false,
		},
		{
			name:       "order without timestamp",
			collection: "orders",
			doc:        store.Document{"_id": "x", "status": "accepted"},
			wantDelete: false,
		},
		{
			name:       "attempt older than 14 days",
			collection: "attempts",
			doc:        store.Document{"_id": "x", "createdAt": daysAgo(15)},
			wantDelete: true,
		},
		{
			name:       "attempt timestamp as RFC 3339 string",
			collection: "attempts",
			doc:        store.Document{"_id": "x", "createdAt": daysAgo(20).Format(time.RFC3339)},
			wantDelete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStorage("test")
			if err := s.InsertMany(context.Background(), tt.collection, []store.Document{tt.doc}); err != nil {
				t.Fatal(err)
			}

			p, _, _ := newPruner(t, s, nil)
			if _, err := p.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			deleted := s.GetByID(tt.collection, "x") == nil
			if deleted != tt.wantDelete {
				t.Errorf("deleted = %v, want %v", deleted, tt.wantDelete)
			}
		})
	}
}

func TestPruner_ClassFailureIsolated(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.Seed("orders", store.Document{"_id": "o-1", "status": "accepted", "updatedAt": daysAgo(8)})
	s.Seed("attempts", store.Document{"_id": "a-1", "createdAt": daysAgo(20)})
	s.FailOn("find", "orders", errors.New("cursor closed"))

	p, notifier, metrics := newPruner(t, s, loggingHook(s.Log))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %v, want 1", report.Errors)
	}
	var classErr *retention.ClassError
	if !errors.As(report.Errors[0], &classErr) || classErr.Class != "orders" {
		t.Errorf("error = %v, want ClassError for orders", report.Errors[0])
	}

	if s.GetByID("attempts", "a-1") != nil {
		t.Error("attempts class did not run after orders failed")
	}
	if s.GetByID("orders", "o-1") == nil {
		t.Error("failed class deleted records")
	}
	if len(notifier.errors) != 1 || !strings.HasPrefix(notifier.errors[0], "retention.orders") {
		t.Errorf("errors reported = %v", notifier.errors)
	}
	if diff := cmp.Diff([]map[string]int{{"orders": 0, "attempts": 1}}, notifier.summaries); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}
	if metrics.runs[retention.ResultFailure] != 1 {
		t.Errorf("runs = %v", metrics.runs)
	}
}

func TestPruner_DeleteFailure(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.Seed("attempts", store.Document{"_id": "a-1", "createdAt": daysAgo(20)})
	s.FailOn("delete_many", "attempts", errors.New("write conflict"))

	p, _, _ := newPruner(t, s, loggingHook(s.Log))
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var classErr *retention.ClassError
	if len(report.Errors) != 1 || !errors.As(report.Errors[0], &classErr) || classErr.Operation != "delete" {
		t.Fatalf("Errors = %v, want delete ClassError", report.Errors)
	}
	if s.Log.Index("audit:attempts:a-1") < 0 {
		t.Error("candidate was not audited before the failed delete")
	}
}

func TestPruner_AuditFailureDoesNotBlockDelete(t *testing.T) {
	s := store.NewMemoryStorage("test")
	if err := s.InsertMany(context.Background(), "attempts", []store.Document{
		{"_id": "a-1", "createdAt": daysAgo(20)},
	}); err != nil {
		t.Fatal(err)
	}

	failing := audit.HookFunc(func(context.Context, string, string, string, any, string) (*audit.Entry, error) {
		return nil, errors.New("audit store down")
	})

	p, _, _ := newPruner(t, s, failing)
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.GetByID("attempts", "a-1") != nil {
		t.Error("record kept after audit failure")
	}
}

func TestPruner_StoreNotConnected(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.Seed("attempts", store.Document{"_id": "a-1", "createdAt": daysAgo(20)})
	s.SetConnected(false)

	p, notifier, metrics := newPruner(t, s, loggingHook(s.Log))
	report, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want ping failure")
	}

	if !report.Skipped {
		t.Error("report not marked skipped")
	}
	if events := s.Log.Events(); len(events) != 0 {
		t.Errorf("store touched while disconnected: %v", events)
	}
	if len(notifier.summaries) != 0 {
		t.Error("summary emitted for skipped run")
	}
	if metrics.runs[retention.ResultSkipped] != 1 {
		t.Errorf("runs = %v", metrics.runs)
	}
}

func TestPruner_Locked(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.Seed("attempts", store.Document{"_id": "a-1", "createdAt": daysAgo(20)})

	locker := lock.NewLocalLocker()
	release, err := locker.TryLock(context.Background(), retention.LockName)
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	p := retention.NewPruner(s, loggingHook(s.Log), locker, nil, retention.WithClock(clock))
	report, err := p.Run(context.Background())
	if !errors.Is(err, lock.ErrLocked) {
		t.Fatalf("Run() error = %v, want ErrLocked", err)
	}
	if !report.Skipped {
		t.Error("report not marked skipped")
	}
	if events := s.Log.Events(); len(events) != 0 {
		t.Errorf("store touched while locked: %v", events)
	}

	release()
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() after release error = %v", err)
	}
	if locker.Held(retention.LockName) {
		t.Error("lock not released after run")
	}
}

func TestPruner_Spans(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.Seed("attempts", store.Document{"_id": "a-1", "createdAt": daysAgo(20)})
	s.FailOn("find", "orders", errors.New("cursor closed"))

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	p, _, _ := newPruner(t, s, loggingHook(s.Log), retention.WithTracer(tp.Tracer("test")))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("ended spans = %d, want 3", len(spans))
	}

	status := map[string]codes.Code{}
	for _, span := range spans[:2] {
		if span.Name() != "retention.class" {
			t.Errorf("span name = %q, want retention.class", span.Name())
		}
		for _, attr := range span.Attributes() {
			if attr.Key == "custodian.retention.class" {
				status[attr.Value.AsString()] = span.Status().Code
			}
		}
	}
	want := map[string]codes.Code{"orders": codes.Error, "attempts": codes.Ok}
	if diff := cmp.Diff(want, status); diff != "" {
		t.Errorf("class span status mismatch (-want +got):\n%s", diff)
	}

	run := spans[2]
	if run.Name() != "retention.run" {
		t.Errorf("root span = %q, want retention.run", run.Name())
	}
	if run.Status().Code != codes.Error {
		t.Errorf("run status = %v, want Error", run.Status().Code)
	}
	if spans[0].Parent().SpanID() != run.SpanContext().SpanID() {
		t.Error("class span is not a child of the run span")
	}
}
