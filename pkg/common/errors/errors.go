// Package errors defines the failure kinds observed across the goshell library.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed indicates that an operation was attempted on a released resource
	ErrClosed = errors.New("resource is closed")

	// ErrConsumed indicates that a single-use stream was iterated a second time
	ErrConsumed = errors.New("stream already consumed")

	// ErrNoInput indicates that a command requiring input was run without one
	ErrNoInput = errors.New("command requires input")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ExitError reports a process that exited with a non-zero code.
type ExitError struct {
	Pid  int
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process %d exited with code %d", e.Pid, e.Code)
}

// SignalError reports a process terminated by a signal.
type SignalError struct {
	Pid    int
	Signal string
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("process %d terminated by signal: %s", e.Pid, e.Signal)
}

// UpstreamError wraps a failure that originated earlier in a pipeline, so a
// consumer of the downstream process can still observe the root cause.
type UpstreamError struct {
	Cause error
}

func (e *UpstreamError) Error() string {
	return "upstream failure: " + e.Cause.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Upstream wraps err as an UpstreamError. Wrapping nil returns nil.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Cause: err}
}

// Chain builds a generic chained failure carrying an optional cause.
// With a nil cause it behaves like errors.New.
func Chain(msg string, cause error) error {
	if cause == nil {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", msg, cause)
}

// ExitCode extracts the exit code from an error chain containing an ExitError.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}

// IsUpstream reports whether the error chain contains an UpstreamError.
func IsUpstream(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr)
}
