package taskmanager

import "github.com/Swind/go-task-manager/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskmanager package for most use cases.

// Task is the unit of work
type Task = core.Task

// ValueTask is a task producing a value
type ValueTask[T any] = core.ValueTask[T]

// Manager executes tasks on a bounded worker pool
type Manager = core.Manager

// Config holds the manager options
type Config = core.Config

// Future is the completion handle of a value producing task
type Future[T any] = core.Future[T]

// Handle is the completion handle of a fire-and-forget task
type Handle = core.Handle

// StatisticsSnapshot is a point-in-time copy of the manager counters
type StatisticsSnapshot = core.StatisticsSnapshot

// DrainOutcome reports how a drain ended
type DrainOutcome = core.DrainOutcome

// Observer receives statistics snapshots and task failures
type Observer = core.Observer

// TaskDecorator wraps every admitted task
type TaskDecorator = core.TaskDecorator

// RetryPolicy configures WithRetry
type RetryPolicy = core.RetryPolicy

// Drain outcomes
const (
	DrainedCompletely   = core.DrainedCompletely
	DrainTimedOutForced = core.DrainTimedOutForced
)

// Errors
var (
	ErrInvalidConfiguration = core.ErrInvalidConfiguration
	ErrAlreadyRunning       = core.ErrAlreadyRunning
	ErrNotRunning           = core.ErrNotRunning
	ErrTerminated           = core.ErrTerminated
	ErrQueueFull            = core.ErrQueueFull
	ErrTaskAbandoned        = core.ErrTaskAbandoned
	ErrNilTask              = core.ErrNilTask
)

// Convenience functions
var (
	DefaultConfig      = core.DefaultConfig
	DefaultRetryPolicy = core.DefaultRetryPolicy
	WithRetry          = core.WithRetry
)

// New creates a manager running at most capacity tasks at once.
func New(capacity int) (*Manager, error) {
	return core.New(capacity)
}

// NewManager creates a manager from cfg.
func NewManager(cfg Config) (*Manager, error) {
	return core.NewManager(cfg)
}

// SubmitValue queues a value producing task on m.
func SubmitValue[T any](m *Manager, task ValueTask[T]) (*Future[T], error) {
	return core.SubmitValue(m, task)
}

// SubmitValueNamed queues a named value producing task on m.
func SubmitValueNamed[T any](m *Manager, name string, task ValueTask[T]) (*Future[T], error) {
	return core.SubmitValueNamed(m, name, task)
}
