package core

import (
	"context"

	"github.com/google/uuid"
)

// Task is the unit of work (Closure). A returned error or a panic marks the
// task as failed.
type Task func(ctx context.Context) error

// ValueTask is a unit of work that produces a value.
type ValueTask[T any] func(ctx context.Context) (T, error)

// TaskID identifies a task admitted by a Manager.
type TaskID uuid.UUID

// GenerateTaskID returns a new random TaskID.
func GenerateTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero value.
func (id TaskID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

// TaskInfo describes an admitted task to decorators and observers.
type TaskInfo struct {
	ID      TaskID
	Name    string
	Manager string
}

// TaskDecorator wraps a task at admission time. Decorators are applied in
// configuration order, so the first decorator is the outermost wrapper.
type TaskDecorator func(info TaskInfo, next Task) Task

// TaskOutcome is the terminal state of a task.
type TaskOutcome int

const (
	TaskOutcomeCompleted TaskOutcome = iota
	TaskOutcomeFailed
	TaskOutcomeAbandoned
)

func (o TaskOutcome) String() string {
	switch o {
	case TaskOutcomeCompleted:
		return "completed"
	case TaskOutcomeFailed:
		return "failed"
	case TaskOutcomeAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// =============================================================================
// Context Helper
// =============================================================================
type taskInfoKeyType struct{}

var taskInfoKey taskInfoKeyType

// CurrentTaskInfo returns the TaskInfo of the task executing with ctx.
func CurrentTaskInfo(ctx context.Context) (TaskInfo, bool) {
	if v := ctx.Value(taskInfoKey); v != nil {
		return v.(TaskInfo), true
	}
	return TaskInfo{}, false
}
