package taskmanager_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	taskmanager "github.com/Swind/go-task-manager"
	"github.com/Swind/go-task-manager/core"
)

// ExampleNew demonstrates the basic usage with only one import.
func ExampleNew() {
	cfg := taskmanager.DefaultConfig(2)
	cfg.Logger = core.NewNoOpLogger()
	m, err := taskmanager.NewManager(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	_ = m.Start(context.Background())

	for i := 0; i < 5; i++ {
		_, _ = m.Submit(func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			return nil
		})
	}

	outcome, _ := m.AwaitCompletion(time.Second)
	stats := m.Statistics()
	fmt.Println(outcome)
	fmt.Println("completed:", stats.CompletedCount, "active:", stats.ActiveCount)
	m.Stop()

	// Output:
	// drained
	// completed: 5 active: 0
}

// ExampleSubmitValue demonstrates reading a task's result through its future.
func ExampleSubmitValue() {
	cfg := taskmanager.DefaultConfig(1)
	cfg.Logger = core.NewNoOpLogger()
	m, _ := taskmanager.NewManager(cfg)
	_ = m.Start(context.Background())
	defer m.Stop()

	f, _ := taskmanager.SubmitValue(m, func(ctx context.Context) (int, error) {
		return 6 * 7, nil
	})
	v, err := f.Wait(context.Background())
	fmt.Println(v, err)

	// Output:
	// 42 <nil>
}

// Example_failure demonstrates that failures stay with the task.
func Example_failure() {
	cfg := taskmanager.DefaultConfig(1)
	cfg.Logger = core.NewNoOpLogger()
	m, _ := taskmanager.NewManager(cfg)
	_ = m.Start(context.Background())
	defer m.Stop()

	errBoom := errors.New("boom")
	h, _ := m.Submit(func(ctx context.Context) error { return errBoom })
	_, err := h.Wait(context.Background())

	m.AwaitCompletion(time.Second)
	fmt.Println(errors.Is(err, errBoom), m.Statistics().FailedCount)

	// Output:
	// true 1
}
