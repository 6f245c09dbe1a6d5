package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage implements Store using in-memory maps.
// It is intended for tests and dry runs.
type MemoryStorage struct {
	name        string
	collections map[string]map[string]Document
	connected   bool
	mu          sync.RWMutex
}

// NewMemoryStorage creates a connected in-memory store.
func NewMemoryStorage(name string) *MemoryStorage {
	if name == "" {
		name = "memory"
	}
	return &MemoryStorage{
		name:        name,
		collections: make(map[string]map[string]Document),
		connected:   true,
	}
}

// Name returns the database name.
func (s *MemoryStorage) Name() string {
	return s.name
}

// SetConnected toggles simulated connectivity (for testing).
func (s *MemoryStorage) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// Ping returns ErrNotConnected while the store is marked disconnected.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return ErrNotConnected
	}
	return ctx.Err()
}

// ListCollections returns all non-empty collection names, sorted.
func (s *MemoryStorage) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, NewStoreError("memory", "list_collections", "", ErrNotConnected)
	}

	names := make([]string, 0, len(s.collections))
	for name, docs := range s.collections {
		if len(docs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Find returns copies of the matching documents ordered by id.
func (s *MemoryStorage) Find(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return nil, NewStoreError("memory", "find", collection, ErrNotConnected)
	}

	results := []Document{}
	for _, doc := range s.collections[collection] {
		if filter.Match(doc) {
			results = append(results, doc.Clone())
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID() < results[j].ID()
	})
	return results, nil
}

// DeleteMany removes documents by id.
func (s *MemoryStorage) DeleteMany(ctx context.Context, collection string, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return 0, NewStoreError("memory", "delete_many", collection, ErrNotConnected)
	}

	docs := s.collections[collection]
	var deleted int64
	for _, id := range ids {
		if _, ok := docs[id]; ok {
			delete(docs, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteAll empties a collection.
func (s *MemoryStorage) DeleteAll(ctx context.Context, collection string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return 0, NewStoreError("memory", "delete_all", collection, ErrNotConnected)
	}

	deleted := int64(len(s.collections[collection]))
	delete(s.collections, collection)
	return deleted, nil
}

// InsertMany stores copies of the documents.
func (s *MemoryStorage) InsertMany(ctx context.Context, collection string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return NewStoreError("memory", "insert_many", collection, ErrNotConnected)
	}

	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]Document)
		s.collections[collection] = coll
	}
	for _, doc := range docs {
		c := doc.Clone()
		if c == nil {
			c = Document{}
		}
		if c.ID() == "" {
			c[IDField] = uuid.NewString()
		}
		coll[c.ID()] = c
	}
	return nil
}

// Close drops all data.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]map[string]Document)
	return nil
}

// Size returns the number of documents in a collection (for testing).
func (s *MemoryStorage) Size(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// GetByID returns a copy of a single document, or nil (for testing).
func (s *MemoryStorage) GetByID(collection, id string) Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collections[collection][id].Clone()
}
