package clifford

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrClosed indicates the process output closed while a wait was
	// pending. Returned errors are *PrematureCloseError.
	ErrClosed = errors.New("clifford: output closed")

	// ErrTimeout indicates a wait gave up after its read timeout.
	// Returned errors are *TimeoutError.
	ErrTimeout = errors.New("clifford: timed out")
)

// SpawnError reports that the command could not be found or started.
// It is never retried.
type SpawnError struct {
	Command string
	Args    []string
	Err     error
}

func (e *SpawnError) Error() string {
	msg := "clifford: spawn " + e.Command
	if len(e.Args) > 0 {
		msg += " " + strings.Join(e.Args, " ")
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// PrematureCloseError is returned by a wait whose matcher had not matched
// when the process output closed.
//
// ExitCode is the process exit status when known, -1 otherwise (killed by
// a signal, or the Reader was not attached to a process).
type PrematureCloseError struct {
	Matcher  string
	Screen   string
	ExitCode int
	Err      error // read error that ended the stream, if any
}

func (e *PrematureCloseError) Error() string {
	msg := "clifford: output closed while waiting for " + e.Matcher
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PrematureCloseError) Is(target error) bool { return target == ErrClosed }

func (e *PrematureCloseError) Unwrap() error { return e.Err }

// TimeoutError is returned by a wait that hit its read timeout.
type TimeoutError struct {
	Matcher string
	Timeout time.Duration
	Screen  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("clifford: timed out after %v waiting for %s", e.Timeout, e.Matcher)
}

// Is matches ErrTimeout and context.DeadlineExceeded.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == context.DeadlineExceeded
}
