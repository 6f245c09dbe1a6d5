// Package store provides the record store boundary used by the retention,
// backup and audit subsystems.
//
// # Documents and Collections
//
// Records are schemaless documents grouped into named collections, mirroring
// the document database the web application persists into:
//
//	doc := store.Document{
//	    "_id":       "order-42",
//	    "status":    "accepted",
//	    "updatedAt": time.Now(),
//	}
//
// Three fields carry meaning for this subsystem: "_id" (identity), "status"
// (lifecycle state) and the timestamp fields "createdAt" / "updatedAt".
//
// # Backends
//
//   - MemoryStorage: in-process map, used by tests and dry runs
//   - SQLiteStorage: one documents table keyed by (collection, id), with
//     either the cgo driver (mattn/go-sqlite3) or the pure Go driver
//     (modernc.org/sqlite)
//
// # Filtering
//
// Find accepts a Filter selecting documents whose timestamp field is at or
// before a cutoff, whose status is in a set, or whose id is in a set:
//
//	cutoff := time.Now().AddDate(0, 0, -7)
//	docs, err := s.Find(ctx, "orders", store.Filter{
//	    TimeField: store.UpdatedAtField,
//	    Before:    &cutoff,
//	    Statuses:  []string{"accepted", "rejected"},
//	})
//
// # Availability
//
// Ping reports whether the backend is currently reachable. WaitConnected polls
// Ping until it succeeds or a bounded timeout elapses, returning
// ErrConnectTimeout in the latter case.
package store
