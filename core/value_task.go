package core

import (
	"context"
)

// SubmitValue queues a value producing task on m. On success the value is
// delivered through the returned future; on failure the future carries the
// error and the manager's failed count is incremented once.
func SubmitValue[T any](m *Manager, task ValueTask[T]) (*Future[T], error) {
	return SubmitValueContext(context.Background(), m, "", task)
}

// SubmitValueNamed is SubmitValue with a display name.
func SubmitValueNamed[T any](m *Manager, name string, task ValueTask[T]) (*Future[T], error) {
	return SubmitValueContext(context.Background(), m, name, task)
}

// SubmitValueContext is SubmitValue where ctx bounds the wait for queue room
// under BackpressureBlock.
func SubmitValueContext[T any](ctx context.Context, m *Manager, name string, task ValueTask[T]) (*Future[T], error) {
	if task == nil {
		return nil, ErrNilTask
	}

	fut := newFuture[T](GenerateTaskID(), resolveTaskName(task, name))

	// val is written and read by the worker running the task only
	var val T
	body := func(ctx context.Context) error {
		v, err := task(ctx)
		val = v
		return err
	}

	item := m.newItem(fut.id, fut.name, body)
	item.complete = func(err error) {
		if err != nil {
			var zero T
			fut.complete(zero, err)
			return
		}
		fut.complete(val, nil)
	}
	item.abandon = func() {
		var zero T
		fut.complete(zero, ErrTaskAbandoned)
	}

	if err := m.admit(ctx, item); err != nil {
		return nil, err
	}
	return fut, nil
}
