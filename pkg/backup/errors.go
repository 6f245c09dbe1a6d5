package backup

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestNotFound is returned when the named manifest does not exist.
	ErrManifestNotFound = errors.New("backup manifest not found")

	// ErrInvalidName is returned for names that are not manifest file names.
	ErrInvalidName = errors.New("invalid backup name")
)

// RestoreError represents a failure part way through a restore.
type RestoreError struct {
	Name       string // Manifest file name
	Collection string // Collection being restored
	Operation  string // "delete" or "insert"
	Cause      error  // Underlying error
}

// Error implements the error interface.
func (e *RestoreError) Error() string {
	return fmt.Sprintf("restore error [manifest=%s, collection=%s, operation=%s]: %v",
		e.Name, e.Collection, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RestoreError) Unwrap() error {
	return e.Cause
}

// NewRestoreError creates a new RestoreError.
func NewRestoreError(name, collection, operation string, cause error) *RestoreError {
	return &RestoreError{
		Name:       name,
		Collection: collection,
		Operation:  operation,
		Cause:      cause,
	}
}
