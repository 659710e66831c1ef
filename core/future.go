package core

import (
	"context"
	"sync"
)

// Future represents the eventual result of a submitted task.
// It is completed exactly once, by the worker that ran the task or by a
// forced shutdown that abandoned it.
type Future[T any] struct {
	id   TaskID
	name string

	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// Handle is the future of a fire-and-forget Task.
type Handle = Future[struct{}]

func newFuture[T any](id TaskID, name string) *Future[T] {
	return &Future[T]{
		id:   id,
		name: name,
		done: make(chan struct{}),
	}
}

// ID returns the task ID assigned at admission.
func (f *Future[T]) ID() TaskID {
	return f.id
}

// Name returns the task display name.
func (f *Future[T]) Name() string {
	return f.name
}

// Done is closed once the task reaches a terminal state.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx is done.
// The context error is returned only when ctx ends first; the task itself
// keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryResult returns the result without blocking. The bool is false while the task
// is still outstanding.
func (f *Future[T]) TryResult() (T, bool, error) {
	select {
	case <-f.done:
		return f.val, true, f.err
	default:
		var zero T
		return zero, false, nil
	}
}

func (f *Future[T]) complete(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}
