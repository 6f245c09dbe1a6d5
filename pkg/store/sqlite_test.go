package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// newTestSQLite opens a store on the pure Go driver so tests run without cgo.
func newTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()

	cfg := DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "giftpoints.db")
	cfg.Driver = DriverPure

	s, err := NewSQLiteStorage(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_Name(t *testing.T) {
	s := newTestSQLite(t)
	if s.Name() != "giftpoints" {
		t.Errorf("Name() = %q, want giftpoints", s.Name())
	}
}

func TestSQLiteStorage_UnknownDriver(t *testing.T) {
	cfg := DefaultSQLiteConfig()
	cfg.Path = filepath.Join(t.TempDir(), "x.db")
	cfg.Driver = "postgres"

	if _, err := NewSQLiteStorage(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSQLiteStorage_InsertFindDelete(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() failed: %v", err)
	}

	err := s.InsertMany(ctx, "orders", []Document{
		{IDField: "o1", StatusField: "accepted", UpdatedAtField: now.AddDate(0, 0, -8), "points": 5},
		{IDField: "o2", StatusField: "pending", UpdatedAtField: now.AddDate(0, 0, -8)},
		{IDField: "o3", StatusField: "rejected", UpdatedAtField: now.AddDate(0, 0, -1)},
	})
	if err != nil {
		t.Fatalf("InsertMany() failed: %v", err)
	}
	_ = s.InsertMany(ctx, "attempts", []Document{
		{IDField: "a1", CreatedAtField: now.AddDate(0, 0, -20)},
	})

	cutoff := now.AddDate(0, 0, -7)
	found, err := s.Find(ctx, "orders", Filter{
		TimeField: UpdatedAtField,
		Before:    &cutoff,
		Statuses:  []string{"accepted", "rejected"},
	})
	if err != nil {
		t.Fatalf("Find() failed: %v", err)
	}
	if len(found) != 1 || found[0].ID() != "o1" {
		t.Fatalf("expected [o1], got %v", found)
	}
	if _, ok := found[0].Time(UpdatedAtField); !ok {
		t.Error("expected decoded updatedAt to parse")
	}

	names, err := s.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections() failed: %v", err)
	}
	if len(names) != 2 || names[0] != "attempts" || names[1] != "orders" {
		t.Errorf("ListCollections() = %v", names)
	}

	deleted, err := s.DeleteMany(ctx, "orders", []string{"o1", "o3"})
	if err != nil {
		t.Fatalf("DeleteMany() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	remaining, _ := s.Find(ctx, "orders", Filter{})
	if len(remaining) != 1 || remaining[0].ID() != "o2" {
		t.Errorf("expected [o2] remaining, got %v", remaining)
	}
}

func TestSQLiteStorage_DeleteAllAndDuplicate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_ = s.InsertMany(ctx, "users", []Document{{IDField: "u1"}, {IDField: "u2"}})

	if err := s.InsertMany(ctx, "users", []Document{{IDField: "u1"}}); err == nil {
		t.Error("expected duplicate id insert to fail")
	}

	deleted, err := s.DeleteAll(ctx, "users")
	if err != nil {
		t.Fatalf("DeleteAll() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	if err := s.InsertMany(ctx, "users", []Document{{IDField: "u1"}}); err != nil {
		t.Errorf("re-insert after DeleteAll failed: %v", err)
	}
}

func TestSQLiteStorage_DeleteManyEmpty(t *testing.T) {
	s := newTestSQLite(t)

	deleted, err := s.DeleteMany(context.Background(), "orders", nil)
	if err != nil || deleted != 0 {
		t.Errorf("DeleteMany(nil) = %d, %v", deleted, err)
	}
}
