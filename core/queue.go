package core

import (
	"sync"
)

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// taskQueue is the FIFO of admitted tasks waiting for a worker.
// It is unbounded; admission limits are enforced by the Manager.
type taskQueue struct {
	mu    sync.Mutex
	tasks []*taskItem
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks: make([]*taskItem, 0, defaultQueueCap),
	}
}

func (q *taskQueue) Push(item *taskItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, item)
}

func (q *taskQueue) Pop() (*taskItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	item := q.tasks[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.maybeCompactLocked()

	return item, true
}

func (q *taskQueue) maybeCompactLocked() {
	n := len(q.tasks)
	c := cap(q.tasks)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.tasks = make([]*taskItem, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]*taskItem, n, newCap)
	copy(newSlice, q.tasks)
	q.tasks = newSlice
}

func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Clear removes all tasks from the queue and returns them in FIFO order.
func (q *taskQueue) Clear() []*taskItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := q.tasks
	// Create a new slice to release all task references
	q.tasks = make([]*taskItem, 0, defaultQueueCap)
	return removed
}
