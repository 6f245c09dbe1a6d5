package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Well-known document fields.
const (
	IDField        = "_id"
	StatusField    = "status"
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
)

// Document is a single schemaless record.
type Document map[string]any

// ID returns the document identifier as a string, or "" if absent.
func (d Document) ID() string {
	switch v := d[IDField].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Status returns the lifecycle status, or "" if absent.
func (d Document) Status() string {
	if s, ok := d[StatusField].(string); ok {
		return s
	}
	return ""
}

// Time returns the timestamp stored under field. Values decoded from JSON
// arrive as RFC 3339 strings and are parsed transparently.
func (d Document) Time(field string) (time.Time, bool) {
	switch v := d[field].(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	case float64:
		return time.UnixMilli(int64(v)), true
	case int64:
		return time.UnixMilli(v), true
	}
	return time.Time{}, false
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	c := make(Document, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// Filter selects documents within a collection. Zero-valued fields do not
// constrain the result.
type Filter struct {
	// TimeField is the timestamp field compared against Before.
	// Defaults to CreatedAtField.
	TimeField string

	// Before matches documents whose timestamp is at or before this instant.
	// Documents without a parseable timestamp never match a time bound.
	Before *time.Time

	// Statuses matches documents whose status is one of the listed values.
	Statuses []string

	// IDs matches documents whose identifier is one of the listed values.
	IDs []string
}

// timeField returns the effective timestamp field.
func (f Filter) timeField() string {
	if f.TimeField == "" {
		return CreatedAtField
	}
	return f.TimeField
}

// Match reports whether the document satisfies every constraint.
func (f Filter) Match(d Document) bool {
	if f.Before != nil {
		t, ok := d.Time(f.timeField())
		if !ok || t.After(*f.Before) {
			return false
		}
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, d.Status()) {
		return false
	}
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, d.ID()) {
		return false
	}
	return true
}

// Store is the record store boundary. Implementations must be safe for
// concurrent use; atomicity is guaranteed per call only.
type Store interface {
	// Name returns the database name recorded in backup manifests.
	Name() string

	// Ping returns nil when the backend is connected and usable.
	Ping(ctx context.Context) error

	// ListCollections returns the names of all non-empty collections, sorted.
	ListCollections(ctx context.Context) ([]string, error)

	// Find returns documents in collection matching filter, ordered by id.
	Find(ctx context.Context, collection string, filter Filter) ([]Document, error)

	// DeleteMany removes the documents with the given ids and returns the
	// number removed.
	DeleteMany(ctx context.Context, collection string, ids []string) (int64, error)

	// DeleteAll removes every document in collection.
	DeleteAll(ctx context.Context, collection string) (int64, error)

	// InsertMany adds documents to collection. Documents without an id are
	// assigned a generated one.
	InsertMany(ctx context.Context, collection string, docs []Document) error

	// Close releases resources held by the backend.
	Close() error
}
