package core

import (
	"errors"
	"fmt"
)

// Usage errors are returned synchronously to the caller of the offending
// operation. Task failures are never reported through these.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrAlreadyRunning       = errors.New("manager is already running")
	ErrNotRunning           = errors.New("manager is not running")
	ErrTerminated           = errors.New("manager has been stopped and cannot be restarted")
	ErrQueueFull            = errors.New("task queue is full")
	ErrNilTask              = errors.New("task must not be nil")
)

// ErrTaskAbandoned is delivered to the future of a task that was still queued
// or running when a drain deadline forced cancellation.
var ErrTaskAbandoned = errors.New("task abandoned by forced shutdown")

// PanicError is the failure recorded for a task body that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// DrainOutcome reports how a drain (AwaitCompletion or Stop) ended.
type DrainOutcome int

const (
	// DrainedCompletely means every admitted task reached a terminal state
	// before the deadline.
	DrainedCompletely DrainOutcome = iota

	// DrainTimedOutForced means the deadline elapsed and the remaining tasks
	// were cancelled and abandoned.
	DrainTimedOutForced
)

func (o DrainOutcome) String() string {
	switch o {
	case DrainedCompletely:
		return "drained"
	case DrainTimedOutForced:
		return "timed_out_forced"
	default:
		return "unknown"
	}
}
