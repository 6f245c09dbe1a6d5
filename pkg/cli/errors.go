package cli

import (
	"errors"
	"fmt"

	"giftpoints/custodian/pkg/backup"
	"giftpoints/custodian/pkg/config"
	"giftpoints/custodian/pkg/lock"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitLocked   = 3
	ExitNotFound = 4
)

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	var validationErr config.ValidationError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &validationErr):
		return ExitConfig
	case errors.Is(err, lock.ErrLocked):
		return ExitLocked
	case errors.Is(err, backup.ErrManifestNotFound):
		return ExitNotFound
	default:
		return ExitFailure
	}
}
