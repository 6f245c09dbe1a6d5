// Package storetest provides store doubles that record call order and inject
// failures.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"giftpoints/custodian/pkg/store"
)

// Log is an ordered, concurrency-safe list of call descriptions shared
// between a RecordingStore and test hooks.
type Log struct {
	mu     sync.Mutex
	events []string
}

// Append records one event.
func (l *Log) Append(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded events.
func (l *Log) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// Count returns how many events start with prefix.
func (l *Log) Count(prefix string) int {
	n := 0
	for _, e := range l.Events() {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

// Index returns the position of the first event equal to e, or -1.
func (l *Log) Index(e string) int {
	for i, got := range l.Events() {
		if got == e {
			return i
		}
	}
	return -1
}

// RecordingStore wraps a MemoryStorage, logging every mutating call as
// "<op>:<collection>" (DeleteMany also appends the ids) and failing
// calls registered with FailOn.
type RecordingStore struct {
	*store.MemoryStorage
	Log *Log

	mu       sync.Mutex
	failures map[string]error
}

// NewRecordingStore creates a recording store over a fresh memory store.
func NewRecordingStore(name string) *RecordingStore {
	return &RecordingStore{
		MemoryStorage: store.NewMemoryStorage(name),
		Log:           &Log{},
		failures:      make(map[string]error),
	}
}

// FailOn makes every call to op on collection return err. Ops are "find",
// "delete_many", "delete_all", "insert_many" and "list_collections" (with an
// empty collection).
func (s *RecordingStore) FailOn(op, collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+":"+collection] = err
}

func (s *RecordingStore) failure(op, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failures[op+":"+collection]; ok {
		return store.NewStoreError("memory", op, collection, err)
	}
	return nil
}

// Seed inserts docs without logging.
func (s *RecordingStore) Seed(collection string, docs ...store.Document) {
	if err := s.MemoryStorage.InsertMany(context.Background(), collection, docs); err != nil {
		panic(err)
	}
}

// ListCollections implements store.Store.
func (s *RecordingStore) ListCollections(ctx context.Context) ([]string, error) {
	if err := s.failure("list_collections", ""); err != nil {
		return nil, err
	}
	return s.MemoryStorage.ListCollections(ctx)
}

// Find implements store.Store.
func (s *RecordingStore) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Document, error) {
	if err := s.failure("find", collection); err != nil {
		return nil, err
	}
	return s.MemoryStorage.Find(ctx, collection, filter)
}

// DeleteMany implements store.Store.
func (s *RecordingStore) DeleteMany(ctx context.Context, collection string, ids []string) (int64, error) {
	s.Log.Append("delete_many:%s:%s", collection, strings.Join(ids, ","))
	if err := s.failure("delete_many", collection); err != nil {
		return 0, err
	}
	return s.MemoryStorage.DeleteMany(ctx, collection, ids)
}

// DeleteAll implements store.Store.
func (s *RecordingStore) DeleteAll(ctx context.Context, collection string) (int64, error) {
	s.Log.Append("delete_all:%s", collection)
	if err := s.failure("delete_all", collection); err != nil {
		return 0, err
	}
	return s.MemoryStorage.DeleteAll(ctx, collection)
}

// InsertMany implements store.Store.
func (s *RecordingStore) InsertMany(ctx context.Context, collection string, docs []store.Document) error {
	s.Log.Append("insert_many:%s", collection)
	if err := s.failure("insert_many", collection); err != nil {
		return err
	}
	return s.MemoryStorage.InsertMany(ctx, collection, docs)
}
