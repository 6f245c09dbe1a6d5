package retention

import "fmt"

// ClassError is returned when a class cannot be scanned or deleted.
type ClassError struct {
	Class     string // Class name
	Operation string // "find" or "delete"
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *ClassError) Error() string {
	return fmt.Sprintf("retention class %s: %s failed: %v", e.Class, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ClassError) Unwrap() error {
	return e.Cause
}

// NewClassError creates a new ClassError.
func NewClassError(class, operation string, cause error) *ClassError {
	return &ClassError{
		Class:     class,
		Operation: operation,
		Cause:     cause,
	}
}
