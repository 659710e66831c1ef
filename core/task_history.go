package core

import (
	"reflect"
	"runtime"
	"sync"
	"time"
)

// TaskExecutionRecord captures a task that reached a terminal state.
type TaskExecutionRecord struct {
	TaskID     TaskID
	Name       string
	Manager    string
	Outcome    TaskOutcome
	StartedAt  time.Time // zero when abandoned before it started
	FinishedAt time.Time
	Duration   time.Duration
	Panicked   bool
}

// executionHistory keeps the last len(ring) records. next is the slot the
// following Add overwrites; filled stops growing once the ring wraps.
type executionHistory struct {
	mu     sync.Mutex
	ring   []TaskExecutionRecord
	next   int
	filled int
}

func newExecutionHistory(size int) *executionHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &executionHistory{ring: make([]TaskExecutionRecord, size)}
}

func (h *executionHistory) Add(record TaskExecutionRecord) {
	h.mu.Lock()
	h.ring[h.next] = record
	h.next++
	if h.next == len(h.ring) {
		h.next = 0
	}
	h.filled = min(h.filled+1, len(h.ring))
	h.mu.Unlock()
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (h *executionHistory) Recent(limit int) []TaskExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.filled
	if n == 0 {
		return nil
	}
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]TaskExecutionRecord, n)
	idx := h.next
	for i := range out {
		idx--
		if idx < 0 {
			idx = len(h.ring) - 1
		}
		out[i] = h.ring[idx]
	}
	return out
}

const anonymousTask = "anonymous"

// resolveTaskName returns explicit, or the runtime name of the task function.
func resolveTaskName(task any, explicit string) string {
	if explicit != "" {
		return explicit
	}
	v := reflect.ValueOf(task)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return anonymousTask
	}
	if fn := runtime.FuncForPC(v.Pointer()); fn != nil && fn.Name() != "" {
		return fn.Name()
	}
	return anonymousTask
}
