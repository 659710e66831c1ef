package core

import (
	"fmt"
	"time"
)

// State is the lifecycle state of a Manager.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	// StateDraining is a running manager that no longer accepts submissions.
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StatisticsSnapshot is a point-in-time copy of a Manager's counters.
// Each counter is read independently; fields are not mutually atomic.
type StatisticsSnapshot struct {
	Name  string
	State State

	// ActiveCount is the number of admitted tasks that have not reached a
	// terminal state, queued ones included.
	ActiveCount int64
	// RunningCount is the number of task bodies executing right now.
	RunningCount int64

	PoolSize     int
	CorePoolSize int
	MaxPoolSize  int

	CompletedCount int64
	FailedCount    int64
	AbandonedCount int64
	RejectedCount  int64
	SubmittedCount int64

	// QueueSize is the number of admitted tasks not yet picked up by a worker.
	QueueSize int

	Uptime       time.Duration
	UptimeMillis int64
	CapturedAt   time.Time
}

// Terminated returns the number of tasks that reached a terminal state.
func (s StatisticsSnapshot) Terminated() int64 {
	return s.CompletedCount + s.FailedCount + s.AbandonedCount
}

func (s StatisticsSnapshot) String() string {
	return fmt.Sprintf("%s[%s] active=%d running=%d queued=%d pool=%d/%d completed=%d failed=%d abandoned=%d uptime=%dms",
		s.Name, s.State, s.ActiveCount, s.RunningCount, s.QueueSize, s.PoolSize, s.MaxPoolSize,
		s.CompletedCount, s.FailedCount, s.AbandonedCount, s.UptimeMillis)
}
