package core

import (
	"time"
)

// =============================================================================
// Observer: Sink for statistics snapshots and task failures
// =============================================================================

// TaskFailure describes a task body that returned an error or panicked.
type TaskFailure struct {
	Info     TaskInfo
	Err      error
	Panicked bool
	// Stack is the goroutine stack at the time of the panic; nil for returned errors.
	Stack []byte
}

// Observer receives the manager's periodic statistics and per-task failures.
// It is the only place the manager produces output.
//
// Implementations should be thread-safe as OnTaskFailure may be called
// concurrently from several workers.
type Observer interface {
	// OnStatistics is called on every monitor tick. Ticks never overlap.
	OnStatistics(stats StatisticsSnapshot)

	// OnTaskFailure is called once per failed task, from the worker that ran it.
	OnTaskFailure(failure TaskFailure)
}

// LoggingObserver writes snapshots and failures through a Logger.
type LoggingObserver struct {
	Logger Logger
}

// NewLoggingObserver creates a LoggingObserver; a nil logger discards output.
func NewLoggingObserver(logger Logger) *LoggingObserver {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &LoggingObserver{Logger: logger}
}

// OnStatistics logs the snapshot at info level.
func (o *LoggingObserver) OnStatistics(stats StatisticsSnapshot) {
	o.Logger.Info("task manager status",
		F("manager", stats.Name),
		F("state", stats.State.String()),
		F("active", stats.ActiveCount),
		F("running", stats.RunningCount),
		F("queued", stats.QueueSize),
		F("completed", stats.CompletedCount),
		F("failed", stats.FailedCount),
		F("abandoned", stats.AbandonedCount),
		F("terminated", stats.Terminated()),
		F("uptime", stats.Uptime),
	)
}

// OnTaskFailure logs the failure at error level.
func (o *LoggingObserver) OnTaskFailure(failure TaskFailure) {
	fields := []Field{
		F("manager", failure.Info.Manager),
		F("task_id", failure.Info.ID.String()),
		F("task", failure.Info.Name),
		F("error", failure.Err),
	}
	if failure.Panicked {
		fields = append(fields, F("stack", string(failure.Stack)))
	}
	o.Logger.Error("task failed", fields...)
}

// ObserverFuncs adapts plain functions to the Observer interface.
// Nil fields are skipped.
type ObserverFuncs struct {
	Statistics func(StatisticsSnapshot)
	Failure    func(TaskFailure)
}

func (o ObserverFuncs) OnStatistics(stats StatisticsSnapshot) {
	if o.Statistics != nil {
		o.Statistics(stats)
	}
}

func (o ObserverFuncs) OnTaskFailure(failure TaskFailure) {
	if o.Failure != nil {
		o.Failure(failure)
	}
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting task execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting task execution performance.
type Metrics interface {
	// RecordTaskDuration records how long a task body took and how it ended.
	RecordTaskDuration(managerName string, outcome TaskOutcome, duration time.Duration)

	// RecordTaskFailure records a task that returned an error or panicked.
	RecordTaskFailure(managerName string, panicked bool)

	// RecordQueueDepth records the current queue depth.
	// This is called on every monitor tick.
	RecordQueueDepth(managerName string, depth int)

	// RecordTaskRejected records that a submission was refused.
	//
	// Parameters:
	// - managerName: The name of the manager
	// - reason: Why the task was rejected (e.g., "not_running", "queue_full")
	RecordTaskRejected(managerName string, reason string)

	// RecordTaskAbandoned records tasks given up by a forced drain.
	RecordTaskAbandoned(managerName string, count int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskDuration is a no-op.
func (m *NilMetrics) RecordTaskDuration(managerName string, outcome TaskOutcome, duration time.Duration) {
}

// RecordTaskFailure is a no-op.
func (m *NilMetrics) RecordTaskFailure(managerName string, panicked bool) {
}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(managerName string, depth int) {
}

// RecordTaskRejected is a no-op.
func (m *NilMetrics) RecordTaskRejected(managerName string, reason string) {
}

// RecordTaskAbandoned is a no-op.
func (m *NilMetrics) RecordTaskAbandoned(managerName string, count int) {
}
