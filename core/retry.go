package core

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryPolicy describes how WithRetry re-runs a task body that returned an error.
//
// The n-th wait (0-indexed) is InitialDelay * BackoffRatio^n, capped at
// MaxDelay when MaxDelay is positive.
type RetryPolicy struct {
	MaxRetries   int // extra attempts after the first; 0 disables retrying
	InitialDelay time.Duration
	MaxDelay     time.Duration
	BackoffRatio float64
}

// DefaultRetryPolicy retries three times starting at 100ms, doubling up to 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		BackoffRatio: 2,
	}
}

// NoRetry runs the task body exactly once.
func NoRetry() RetryPolicy {
	return RetryPolicy{BackoffRatio: 1}
}

func (p RetryPolicy) calculateDelay(attempt int) time.Duration {
	if p.InitialDelay <= 0 {
		return 0
	}
	ratio := p.BackoffRatio
	if ratio < 1 {
		ratio = 1
	}
	delay := float64(p.InitialDelay) * math.Pow(ratio, float64(attempt))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// WithRetry wraps task so that a returned error is retried according to policy.
// The manager sees a single task: only the final attempt's error counts as a
// failure. Panics are not retried. Waits between attempts end early when ctx
// is cancelled.
func WithRetry(policy RetryPolicy, task Task) Task {
	if task == nil {
		return nil
	}
	return func(ctx context.Context) error {
		_, err := retryLoop(ctx, policy, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, task(ctx)
		})
		return err
	}
}

// WithRetryValue is WithRetry for value producing tasks.
func WithRetryValue[T any](policy RetryPolicy, task ValueTask[T]) ValueTask[T] {
	if task == nil {
		return nil
	}
	return func(ctx context.Context) (T, error) {
		return retryLoop(ctx, policy, task)
	}
}

func retryLoop[T any](ctx context.Context, policy RetryPolicy, task ValueTask[T]) (T, error) {
	var errs []error
	for attempt := 0; ; attempt++ {
		val, err := task(ctx)
		if err == nil {
			return val, nil
		}
		errs = append(errs, err)

		if attempt >= policy.MaxRetries {
			return val, errors.Join(errs...)
		}

		if delay := policy.calculateDelay(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				errs = append(errs, ctx.Err())
				var zero T
				return zero, errors.Join(errs...)
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			var zero T
			return zero, errors.Join(errs...)
		}
	}
}
