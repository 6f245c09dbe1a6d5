package audit_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"giftpoints/custodian/internal/storetest"
	"giftpoints/custodian/pkg/audit"
	"giftpoints/custodian/pkg/snapshot"
	"giftpoints/custodian/pkg/store"
)

type fakeNotifier struct {
	calls []string
}

func (n *fakeNotifier) LogDeletionAudit(actor, targetType, targetID, reason, snapshot string) {
	n.calls = append(n.calls, strings.Join([]string{actor, targetType, targetID, reason, snapshot}, "|"))
}

type fakeMetrics map[string]int

func (m fakeMetrics) RecordAuditEntry(result string) { m[result]++ }

func TestRecorder_Record(t *testing.T) {
	s := store.NewMemoryStorage("test")
	notifier := &fakeNotifier{}
	metrics := fakeMetrics{}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	r := audit.NewRecorder(s,
		audit.WithNotifier(notifier),
		audit.WithMetrics(metrics),
		audit.WithClock(func() time.Time { return now }),
	)

	record := store.Document{"_id": "o-1", "status": "accepted"}
	entry, err := r.Record(context.Background(), audit.ActorSystem, "order", "o-1", record, audit.ReasonScheduledCleanup)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("entry has no ID")
	}
	if !entry.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", entry.Timestamp, now)
	}
	if entry.Snapshot != snapshot.Build(record) {
		t.Errorf("Snapshot = %q", entry.Snapshot)
	}

	stored := s.GetByID(audit.Collection, entry.ID)
	if stored == nil {
		t.Fatal("entry not persisted")
	}
	if stored["targetId"] != "o-1" || stored["reason"] != audit.ReasonScheduledCleanup {
		t.Errorf("stored entry = %v", stored)
	}

	if len(notifier.calls) != 1 || !strings.HasPrefix(notifier.calls[0], "system|order|o-1|scheduled_cleanup|") {
		t.Errorf("notifier calls = %v", notifier.calls)
	}
	if metrics["success"] != 1 {
		t.Errorf("metrics = %v", metrics)
	}
}

func TestRecorder_PersistFailureStillNotifies(t *testing.T) {
	s := storetest.NewRecordingStore("test")
	s.FailOn("insert_many", audit.Collection, errors.New("disk full"))
	notifier := &fakeNotifier{}
	metrics := fakeMetrics{}

	r := audit.NewRecorder(s, audit.WithNotifier(notifier), audit.WithMetrics(metrics))

	entry, err := r.Record(context.Background(), "admin", "attempt", "a-9", nil, audit.ReasonRestore)
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if entry == nil || entry.Snapshot != "null" {
		t.Errorf("entry = %+v, want snapshot of nil record", entry)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifier calls = %d, want 1", len(notifier.calls))
	}
	if metrics["failure"] != 1 {
		t.Errorf("metrics = %v", metrics)
	}
}

func TestRecorder_CyclicRecordDoesNotPanic(t *testing.T) {
	r := audit.NewRecorder(nil)

	cyclic := map[string]any{"_id": "x"}
	cyclic["self"] = cyclic

	entry, err := r.Record(context.Background(), audit.ActorSystem, "order", "x", cyclic, audit.ReasonScheduledCleanup)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !strings.Contains(entry.Snapshot, "[Circular]") {
		t.Errorf("Snapshot = %q, want circular marker", entry.Snapshot)
	}
}

func TestHookFunc(t *testing.T) {
	var got string
	hook := audit.HookFunc(func(_ context.Context, actor, targetType, targetID string, _ any, reason string) (*audit.Entry, error) {
		got = actor + "/" + targetType + "/" + targetID + "/" + reason
		return &audit.Entry{}, nil
	})

	var h audit.Hook = hook
	if _, err := h.Record(context.Background(), "a", "b", "c", nil, "d"); err != nil {
		t.Fatal(err)
	}
	if got != "a/b/c/d" {
		t.Errorf("got %q", got)
	}
}
