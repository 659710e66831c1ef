package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestFuture_CompleteOnce verifies only the first completion is kept
// Given: A fresh future
// When: It is completed twice
// Then: Wait and TryResult report the first value
func TestFuture_CompleteOnce(t *testing.T) {
	// Arrange
	f := newFuture[int](GenerateTaskID(), "once")
	if _, done, _ := f.TryResult(); done {
		t.Fatal("TryResult() done = true before completion")
	}

	// Act
	f.complete(1, nil)
	f.complete(2, errors.New("late"))

	// Assert
	v, err := f.Wait(context.Background())
	if v != 1 || err != nil {
		t.Errorf("Wait() = %d, %v, want 1, nil", v, err)
	}
	if v, done, err := f.TryResult(); !done || v != 1 || err != nil {
		t.Errorf("TryResult() = %d, %v, %v, want 1, true, nil", v, done, err)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done() not closed after completion")
	}
}

// TestFuture_WaitHonoursContext verifies Wait gives up with the context
func TestFuture_WaitHonoursContext(t *testing.T) {
	f := newFuture[string](GenerateTaskID(), "pending")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestPanicError_Unwrap(t *testing.T) {
	inner := errors.New("inner")

	if !errors.Is(&PanicError{Value: inner}, inner) {
		t.Error("PanicError with error value should unwrap to it")
	}
	if (&PanicError{Value: "text"}).Unwrap() != nil {
		t.Error("PanicError with non-error value should unwrap to nil")
	}
}
