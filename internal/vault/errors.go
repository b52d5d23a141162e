package vault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolFailure is matched by every failed sync pass.
	ErrToolFailure = errors.New("sync tool failed")
	// ErrLocked is returned when another run holds the lock file.
	ErrLocked = errors.New("another vaultsync run is in progress")
)

// ToolError describes a sync pass that could not start or exited non-zero.
type ToolError struct {
	Pass       int
	Invocation Invocation
	ExitCode   int
	Stderr     string
	Err        error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("sync pass %d (%s -> %s) failed", e.Pass, e.Invocation.Source, e.Invocation.Destination)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailure
}
