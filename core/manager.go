package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	taskQueued int32 = iota
	taskRunning
	taskDone
	taskAbandoned
)

// taskItem is an admitted task. state moves queued -> running -> done, or to
// abandoned from queued or running; whoever wins the transition owns the
// task's counter updates and completes its future.
type taskItem struct {
	info     TaskInfo
	run      Task
	complete func(err error)
	abandon  func()
	state    atomic.Int32
}

// Manager executes submitted tasks on a bounded pool of workers, keeps
// lifecycle counters and reports periodic statistics.
//
// A Manager goes NotStarted -> Running -> (Draining) -> Stopped and cannot be
// restarted. All methods are safe for concurrent use.
type Manager struct {
	cfg      Config
	logger   Logger
	observer Observer
	metrics  Metrics

	queue     *taskQueue
	pool      *workerPool
	monitor   *monitor
	admission *semaphore.Weighted // nil for BackpressureUnbounded
	history   *executionHistory

	stateMu   sync.RWMutex
	state     State
	stopping  bool
	startedAt time.Time
	stoppedAt time.Time

	inflightMu sync.Mutex
	inflight   map[TaskID]*taskItem
	idle       chan struct{}

	forced atomic.Bool

	submitted atomic.Int64
	active    atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	abandoned atomic.Int64
	rejected  atomic.Int64
}

// New creates a Manager with DefaultConfig(capacity).
func New(capacity int) (*Manager, error) {
	return NewManager(DefaultConfig(capacity))
}

// NewManager creates a Manager from cfg. The workers and the monitor are idle
// until Start. Returns an error wrapping ErrInvalidConfiguration when cfg
// does not validate.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:      cfg,
		logger:   cfg.Logger,
		observer: cfg.Observer,
		metrics:  cfg.Metrics,
		queue:    newTaskQueue(),
		history:  newExecutionHistory(cfg.HistorySize),
		inflight: make(map[TaskID]*taskItem),
	}
	if cfg.Backpressure != BackpressureUnbounded {
		m.admission = semaphore.NewWeighted(int64(cfg.MaxQueueSize))
	}
	m.pool = newWorkerPool(cfg.Capacity, m.queue, m.execute)
	m.monitor = newMonitor(cfg.MonitorInterval, m.reportStatistics)
	return m, nil
}

// Name returns the configured manager name.
func (m *Manager) Name() string {
	return m.cfg.Name
}

// Capacity returns the maximum number of concurrently executing tasks.
func (m *Manager) Capacity() int {
	return m.cfg.Capacity
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// IsRunning reports whether Start has been called and Stop has not finished.
func (m *Manager) IsRunning() bool {
	s := m.State()
	return s == StateRunning || s == StateDraining
}

// Start starts the workers and the statistics monitor. Task bodies receive a
// context derived from ctx that carries its values but not its cancellation;
// the workers live until Stop or a forced drain.
//
// Starting a running manager logs a warning and returns ErrAlreadyRunning
// without changing anything. A stopped manager returns ErrTerminated.
func (m *Manager) Start(ctx context.Context) error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	switch m.state {
	case StateRunning, StateDraining:
		m.logger.Warn("start ignored, manager already running", F("manager", m.cfg.Name))
		return ErrAlreadyRunning
	case StateStopped:
		return ErrTerminated
	}

	m.state = StateRunning
	m.startedAt = time.Now()
	base := context.WithoutCancel(ctx)
	m.pool.Start(base)
	m.monitor.Start(base)

	m.logger.Info("task manager started",
		F("manager", m.cfg.Name),
		F("capacity", m.cfg.Capacity),
		F("monitor_interval", m.cfg.MonitorInterval),
	)
	return nil
}

// Submit queues a fire-and-forget task.
func (m *Manager) Submit(task Task) (*Handle, error) {
	return m.SubmitContext(context.Background(), "", task)
}

// SubmitNamed queues a task with a display name used in logs, metrics and history.
func (m *Manager) SubmitNamed(name string, task Task) (*Handle, error) {
	return m.SubmitContext(context.Background(), name, task)
}

// SubmitContext queues a task. ctx only bounds the wait for queue room under
// BackpressureBlock; it is not passed to the task body.
func (m *Manager) SubmitContext(ctx context.Context, name string, task Task) (*Handle, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	fut := newFuture[struct{}](GenerateTaskID(), resolveTaskName(task, name))
	item := m.newItem(fut.id, fut.name, task)
	item.complete = func(err error) { fut.complete(struct{}{}, err) }
	item.abandon = func() { fut.complete(struct{}{}, ErrTaskAbandoned) }

	if err := m.admit(ctx, item); err != nil {
		return nil, err
	}
	return fut, nil
}

// SubmitBatch submits each task in order. A refused task leaves a nil entry
// at its position and does not stop the remaining submissions; the refusals
// are returned joined.
func (m *Manager) SubmitBatch(tasks []Task) ([]*Handle, error) {
	handles := make([]*Handle, len(tasks))
	var errs []error
	for i, task := range tasks {
		h, err := m.Submit(task)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", i, err))
			continue
		}
		handles[i] = h
	}
	return handles, errors.Join(errs...)
}

// AwaitCompletion closes the manager to new submissions and waits up to
// timeout for every admitted task to finish. When the deadline passes first,
// the remaining tasks are cancelled and abandoned and DrainTimedOutForced is
// returned. The manager stays in the Draining state until Stop.
func (m *Manager) AwaitCompletion(timeout time.Duration) (DrainOutcome, error) {
	m.stateMu.Lock()
	if m.state != StateRunning && m.state != StateDraining {
		m.stateMu.Unlock()
		return DrainedCompletely, ErrNotRunning
	}
	m.state = StateDraining
	m.stateMu.Unlock()

	return m.drain(timeout), nil
}

// Stop stops the monitor, drains with the configured StopTimeout (forcing on
// timeout) and shuts the workers down. Stopping a manager that is not
// running, or is already stopping, logs a warning and does nothing.
func (m *Manager) Stop() DrainOutcome {
	m.stateMu.Lock()
	if (m.state != StateRunning && m.state != StateDraining) || m.stopping {
		m.stateMu.Unlock()
		m.logger.Warn("stop ignored, manager not running", F("manager", m.cfg.Name))
		return DrainedCompletely
	}
	m.stopping = true
	m.state = StateDraining
	m.stateMu.Unlock()

	m.monitor.Stop()
	outcome := m.drain(m.cfg.StopTimeout)

	// Workers stuck in abandoned task bodies cannot be joined
	m.pool.Stop(!m.forced.Load())

	m.stateMu.Lock()
	m.state = StateStopped
	m.stoppedAt = time.Now()
	m.stateMu.Unlock()

	stats := m.Statistics()
	m.logger.Info("task manager stopped",
		F("manager", m.cfg.Name),
		F("outcome", outcome.String()),
		F("completed", stats.CompletedCount),
		F("failed", stats.FailedCount),
		F("abandoned", stats.AbandonedCount),
	)
	return outcome
}

// Statistics returns a snapshot of the manager's counters.
func (m *Manager) Statistics() StatisticsSnapshot {
	m.stateMu.RLock()
	state := m.state
	startedAt := m.startedAt
	stoppedAt := m.stoppedAt
	m.stateMu.RUnlock()

	now := time.Now()
	var uptime time.Duration
	switch {
	case startedAt.IsZero():
	case !stoppedAt.IsZero():
		uptime = stoppedAt.Sub(startedAt)
	default:
		uptime = now.Sub(startedAt)
	}

	return StatisticsSnapshot{
		Name:           m.cfg.Name,
		State:          state,
		ActiveCount:    m.active.Load(),
		RunningCount:   m.running.Load(),
		PoolSize:       m.pool.AliveCount(),
		CorePoolSize:   m.pool.WorkerCount(),
		MaxPoolSize:    m.pool.WorkerCount(),
		CompletedCount: m.completed.Load(),
		FailedCount:    m.failed.Load(),
		AbandonedCount: m.abandoned.Load(),
		RejectedCount:  m.rejected.Load(),
		SubmittedCount: m.submitted.Load(),
		QueueSize:      m.queue.Len(),
		Uptime:         uptime,
		UptimeMillis:   uptime.Milliseconds(),
		CapturedAt:     now,
	}
}

// RecentTasks returns terminal task records in newest-first order.
func (m *Manager) RecentTasks(limit int) []TaskExecutionRecord {
	return m.history.Recent(limit)
}

// =============================================================================
// Admission
// =============================================================================

func (m *Manager) newItem(id TaskID, name string, task Task) *taskItem {
	info := TaskInfo{ID: id, Name: name, Manager: m.cfg.Name}
	run := task
	for i := len(m.cfg.Decorators) - 1; i >= 0; i-- {
		if wrapped := m.cfg.Decorators[i](info, run); wrapped != nil {
			run = wrapped
		}
	}
	return &taskItem{info: info, run: run}
}

func (m *Manager) admit(ctx context.Context, item *taskItem) error {
	if m.State() != StateRunning {
		return m.reject(m.notRunningError(), "not_running")
	}

	if m.admission != nil {
		switch m.cfg.Backpressure {
		case BackpressureReject:
			if !m.admission.TryAcquire(1) {
				return m.reject(ErrQueueFull, "queue_full")
			}
		case BackpressureBlock:
			if err := m.admission.Acquire(ctx, 1); err != nil {
				return m.reject(err, "canceled")
			}
		}
	}

	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.state != StateRunning {
		m.releaseSlot()
		return m.reject(m.notRunningErrorLocked(), "not_running")
	}

	m.submitted.Add(1)
	m.active.Add(1)
	m.track(item)
	m.pool.Post(item)
	return nil
}

func (m *Manager) reject(err error, reason string) error {
	m.rejected.Add(1)
	m.metrics.RecordTaskRejected(m.cfg.Name, reason)
	return err
}

func (m *Manager) notRunningError() error {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.notRunningErrorLocked()
}

func (m *Manager) notRunningErrorLocked() error {
	if m.state == StateDraining {
		return fmt.Errorf("%w: submissions are closed", ErrNotRunning)
	}
	return ErrNotRunning
}

func (m *Manager) releaseSlot() {
	if m.admission != nil {
		m.admission.Release(1)
	}
}

// =============================================================================
// In-flight tracking
// =============================================================================

func (m *Manager) track(item *taskItem) {
	m.inflightMu.Lock()
	m.inflight[item.info.ID] = item
	m.inflightMu.Unlock()
}

func (m *Manager) untrack(id TaskID) {
	m.inflightMu.Lock()
	delete(m.inflight, id)
	if len(m.inflight) == 0 && m.idle != nil {
		close(m.idle)
		m.idle = nil
	}
	m.inflightMu.Unlock()
}

// idleChan returns a channel closed once no task is in flight.
func (m *Manager) idleChan() <-chan struct{} {
	m.inflightMu.Lock()
	defer m.inflightMu.Unlock()

	if len(m.inflight) == 0 {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	if m.idle == nil {
		m.idle = make(chan struct{})
	}
	return m.idle
}

// =============================================================================
// Execution
// =============================================================================

// execute is the worker pool's executor.
func (m *Manager) execute(ctx context.Context, workerID int, item *taskItem) {
	// The task has left the queue
	m.releaseSlot()

	if !item.state.CompareAndSwap(taskQueued, taskRunning) {
		// Abandoned while queued
		return
	}

	m.running.Add(1)
	startedAt := time.Now()
	panicked, err := m.runBody(ctx, item)
	finishedAt := time.Now()
	m.running.Add(-1)

	if !item.state.CompareAndSwap(taskRunning, taskDone) {
		// Abandoned while running; no longer counted
		return
	}

	outcome := TaskOutcomeCompleted
	if err != nil {
		outcome = TaskOutcomeFailed
		m.failed.Add(1)
		m.metrics.RecordTaskFailure(m.cfg.Name, panicked)

		failure := TaskFailure{Info: item.info, Err: err, Panicked: panicked}
		var pe *PanicError
		if panicked && errors.As(err, &pe) {
			failure.Stack = pe.Stack
		}
		m.notifyFailure(failure)
	} else {
		m.completed.Add(1)
	}
	m.active.Add(-1)

	duration := finishedAt.Sub(startedAt)
	m.metrics.RecordTaskDuration(m.cfg.Name, outcome, duration)
	m.history.Add(TaskExecutionRecord{
		TaskID:     item.info.ID,
		Name:       item.info.Name,
		Manager:    m.cfg.Name,
		Outcome:    outcome,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   duration,
		Panicked:   panicked,
	})

	m.untrack(item.info.ID)
	item.complete(err)
}

// runBody executes the task, converting a panic into a *PanicError.
func (m *Manager) runBody(ctx context.Context, item *taskItem) (panicked bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()

	taskCtx := context.WithValue(ctx, taskInfoKey, item.info)
	return false, item.run(taskCtx)
}

func (m *Manager) notifyFailure(failure TaskFailure) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("observer panicked handling task failure",
				F("manager", m.cfg.Name),
				F("panic", rec),
			)
		}
	}()
	m.observer.OnTaskFailure(failure)
}

// reportStatistics is the monitor tick.
func (m *Manager) reportStatistics() {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("observer panicked handling statistics",
				F("manager", m.cfg.Name),
				F("panic", rec),
			)
		}
	}()

	stats := m.Statistics()
	m.metrics.RecordQueueDepth(m.cfg.Name, stats.QueueSize)
	m.observer.OnStatistics(stats)
}

// =============================================================================
// Drain and forced cancellation
// =============================================================================

// drain waits up to timeout for all in-flight tasks, then abandons the rest.
// Callers must have closed submissions. The outcome is DrainTimedOutForced
// whenever a task was abandoned while this drain waited, including by a
// concurrent drain.
func (m *Manager) drain(timeout time.Duration) DrainOutcome {
	abandonedBefore := m.abandoned.Load()
	idle := m.idleChan()

	outcome := func() DrainOutcome {
		if m.abandoned.Load() > abandonedBefore {
			return DrainTimedOutForced
		}
		return DrainedCompletely
	}

	select {
	case <-idle:
		return outcome()
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-idle:
		return outcome()
	case <-timer.C:
	}

	n := m.abandonOutstanding()
	if n == 0 {
		return outcome()
	}

	m.logger.Warn("drain timed out, outstanding tasks abandoned",
		F("manager", m.cfg.Name),
		F("timeout", timeout),
		F("abandoned", n),
	)
	return DrainTimedOutForced
}

// abandonOutstanding cancels running task bodies, drops queued tasks and
// stops tracking everything still in flight. It returns the number of tasks
// abandoned.
func (m *Manager) abandonOutstanding() int {
	for range m.queue.Clear() {
		m.releaseSlot()
	}

	m.inflightMu.Lock()
	items := make([]*taskItem, 0, len(m.inflight))
	for _, item := range m.inflight {
		items = append(items, item)
	}
	m.inflightMu.Unlock()

	if len(items) == 0 {
		return 0
	}

	m.forced.Store(true)
	m.pool.Cancel()

	now := time.Now()
	n := 0
	for _, item := range items {
		if !item.state.CompareAndSwap(taskQueued, taskAbandoned) &&
			!item.state.CompareAndSwap(taskRunning, taskAbandoned) {
			// Finished in the meantime
			continue
		}
		n++
		m.abandoned.Add(1)
		m.active.Add(-1)
		m.history.Add(TaskExecutionRecord{
			TaskID:     item.info.ID,
			Name:       item.info.Name,
			Manager:    m.cfg.Name,
			Outcome:    TaskOutcomeAbandoned,
			FinishedAt: now,
		})
		m.untrack(item.info.ID)
		item.abandon()
	}

	if n > 0 {
		m.metrics.RecordTaskAbandoned(m.cfg.Name, n)
	}
	return n
}
