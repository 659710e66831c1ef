package core

import (
	"context"
	"sync"
	"sync/atomic"
)

// taskExecutor runs one dequeued task on behalf of a worker.
type taskExecutor func(ctx context.Context, workerID int, item *taskItem)

// workerPool manages a fixed set of worker goroutines.
// Workers pull tasks from the queue and hand them to the executor, so at
// most `workers` tasks run at once.
type workerPool struct {
	workers int
	queue   *taskQueue
	signal  chan struct{}
	exec    taskExecutor

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex

	alive atomic.Int32
}

func newWorkerPool(workers int, queue *taskQueue, exec taskExecutor) *workerPool {
	return &workerPool{
		workers: workers,
		queue:   queue,
		signal:  make(chan struct{}, workers*2),
		exec:    exec,
	}
}

// Start starts all worker goroutines
func (p *workerPool) Start(ctx context.Context) {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()

	if p.running {
		return // Already running
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		p.alive.Add(1)
		go p.workerLoop(i, p.ctx)
	}
}

// Post queues a task and wakes an idle worker.
func (p *workerPool) Post(item *taskItem) {
	p.queue.Push(item)

	select {
	case p.signal <- struct{}{}:
	default:
		// Signal channel full, but task is already queued
		// This is not an error, just a optimization hint
	}
}

// Cancel cancels the context seen by running task bodies and makes workers
// exit once their current task returns.
func (p *workerPool) Cancel() {
	p.runningMu.RLock()
	cancel := p.cancel
	p.runningMu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Stop cancels the workers. With wait set it also joins them, which only
// returns once every running task body has returned.
func (p *workerPool) Stop(wait bool) {
	p.runningMu.Lock()
	if !p.running {
		p.runningMu.Unlock()
		return
	}
	p.running = false
	p.runningMu.Unlock()

	p.Cancel()
	if wait {
		p.Join()
	}
}

// Join waits for all worker goroutines to finish
func (p *workerPool) Join() {
	p.wg.Wait()
}

// WorkerCount returns the configured number of workers
func (p *workerPool) WorkerCount() int {
	return p.workers
}

// AliveCount returns the number of worker goroutines that have not exited.
func (p *workerPool) AliveCount() int {
	return int(p.alive.Load())
}

// workerLoop is the main loop for each worker
func (p *workerPool) workerLoop(id int, ctx context.Context) {
	defer func() {
		p.alive.Add(-1)
		p.wg.Done()
	}()

	for {
		item, ok := p.getWork(ctx.Done())
		if !ok {
			// Context canceled
			return
		}
		p.exec(ctx, id, item)
	}
}

func (p *workerPool) getWork(stopCh <-chan struct{}) (*taskItem, bool) {
	for {
		select {
		case <-stopCh:
			return nil, false
		default:
		}

		if item, ok := p.queue.Pop(); ok {
			return item, true
		}

		select {
		case <-p.signal:
			continue
		case <-stopCh:
			return nil, false
		}
	}
}
