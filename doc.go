// Package taskmanager provides a bounded, in-memory task execution manager for Go.
//
// A Manager runs submitted tasks on a fixed number of worker goroutines,
// queues the rest in FIFO order, keeps lifecycle counters and reports
// periodic statistics snapshots to an Observer.
//
// # Quick Start
//
//	m, err := taskmanager.New(4) // at most 4 tasks run at once
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := m.Start(context.Background()); err != nil {
//		log.Fatal(err)
//	}
//	defer m.Stop()
//
//	h, _ := m.Submit(func(ctx context.Context) error {
//		// Your code here
//		return nil
//	})
//	_, err = h.Wait(context.Background())
//
// # Key Concepts
//
// Manager: Owns the worker pool, the queue and the counters. It moves from
// NotStarted to Running, optionally to Draining after AwaitCompletion, and
// finally to Stopped. A stopped manager cannot be restarted.
//
// Future: Every submission returns a Future that completes exactly once with
// the task's value or error. Task errors and panics never escape a worker;
// they are delivered to the future and to the Observer, and counted once.
//
// Draining: AwaitCompletion and Stop close submissions and wait for admitted
// tasks up to a deadline. When it passes, running task contexts are cancelled,
// queued tasks are dropped and their futures fail with ErrTaskAbandoned.
//
// # Counters
//
// At any moment completed + failed + abandoned + active equals the number of
// admitted tasks, and the number of running task bodies never exceeds the
// manager's capacity.
//
// # Example
//
//	import (
//		"context"
//		taskmanager "github.com/Swind/go-task-manager"
//	)
//
//	func main() {
//		m, _ := taskmanager.New(4)
//		m.Start(context.Background())
//
//		for i := 0; i < 20; i++ {
//			m.Submit(func(ctx context.Context) error {
//				time.Sleep(50 * time.Millisecond)
//				return nil
//			})
//		}
//
//		outcome, _ := m.AwaitCompletion(5 * time.Second)
//		fmt.Println(outcome, m.Statistics())
//		m.Stop()
//	}
//
// For more details, see https://github.com/Swind/go-task-manager
package taskmanager
