package retention_test

import (
	"context"
	"testing"
	"time"

	"giftpoints/custodian/pkg/lock"
	"giftpoints/custodian/pkg/retention"
	"giftpoints/custodian/pkg/store"
)

func TestScheduler_RunOnStart(t *testing.T) {
	s := store.NewMemoryStorage("test")
	if err := s.InsertMany(context.Background(), "attempts", []store.Document{
		{"_id": "a-1", "createdAt": daysAgo(20)},
	}); err != nil {
		t.Fatal(err)
	}

	config := retention.DefaultConfig()
	p := retention.NewPruner(s, nil, lock.NewLocalLocker(), config, retention.WithClock(clock))
	sched := retention.NewScheduler(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !sched.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if next := sched.NextRun(); next == nil || !next.After(time.Now()) {
		t.Errorf("NextRun() = %v, want a future time", next)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.GetByID("attempts", "a-1") != nil {
		if time.Now().After(deadline) {
			t.Fatal("startup run did not delete the expired attempt")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sched.Stop()
	if sched.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	config := retention.DefaultConfig()
	config.Schedule = "every tuesday"
	p := retention.NewPruner(store.NewMemoryStorage("test"), nil, nil, config)

	if err := retention.NewScheduler(p).Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want invalid schedule error")
	}
}

func TestScheduler_EmptyScheduleDisabled(t *testing.T) {
	config := retention.DefaultConfig()
	config.Schedule = ""
	sched := retention.NewScheduler(retention.NewPruner(store.NewMemoryStorage("test"), nil, nil, config))

	if err := sched.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sched.IsRunning() {
		t.Error("scheduler running with empty schedule")
	}
	if sched.NextRun() != nil {
		t.Error("NextRun() != nil with empty schedule")
	}
}

func TestScheduler_TriggerNow(t *testing.T) {
	s := store.NewMemoryStorage("test")
	if err := s.InsertMany(context.Background(), "orders", []store.Document{
		{"_id": "o-1", "status": "rejected", "updatedAt": daysAgo(8)},
	}); err != nil {
		t.Fatal(err)
	}

	config := retention.DefaultConfig()
	config.RunOnStart = false
	sched := retention.NewScheduler(retention.NewPruner(s, nil, nil, config, retention.WithClock(clock)))

	report, err := sched.TriggerNow(context.Background())
	if err != nil {
		t.Fatalf("TriggerNow() error = %v", err)
	}
	if report.Candidates["orders"] != 1 {
		t.Errorf("Candidates = %v", report.Candidates)
	}
}
