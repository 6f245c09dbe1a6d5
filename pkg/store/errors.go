package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when the backend is not reachable.
	ErrNotConnected = errors.New("record store not connected")

	// ErrConnectTimeout is returned by WaitConnected when the store does not
	// become available within the allotted time.
	ErrConnectTimeout = errors.New("timed out waiting for record store connection")
)

// StoreError represents an error from a storage backend.
type StoreError struct {
	Backend    string // Backend type ("sqlite", "memory")
	Operation  string // Operation that failed ("find", "delete_many", ...)
	Collection string // Collection involved, if any
	Cause      error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("store error [backend=%s, operation=%s, collection=%s]: %v",
			e.Backend, e.Operation, e.Collection, e.Cause)
	}
	return fmt.Sprintf("store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation, collection string, cause error) *StoreError {
	return &StoreError{
		Backend:    backend,
		Operation:  operation,
		Collection: collection,
		Cause:      cause,
	}
}
