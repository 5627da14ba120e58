package routing

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds a retried operation. Attempts and backoff are always finite.
type RetryPolicy struct {
	MaxAttempts int
	// AttemptTimeout time-boxes each attempt; zero means no per-attempt limit.
	AttemptTimeout time.Duration
	// Backoff returns the wait after the given failed attempt (1-based).
	Backoff func(attempt int) time.Duration
}

// LinearBackoff waits step × attempt.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return step * time.Duration(attempt)
	}
}

// SessionSavePolicy: 3 attempts, 2s each, 300ms × n between them.
var SessionSavePolicy = RetryPolicy{
	MaxAttempts:    3,
	AttemptTimeout: 2 * time.Second,
	Backoff:        LinearBackoff(300 * time.Millisecond),
}

// SessionRestorePolicy: 5 attempts, 3s each, 300ms × n between them.
var SessionRestorePolicy = RetryPolicy{
	MaxAttempts:    5,
	AttemptTimeout: 3 * time.Second,
	Backoff:        LinearBackoff(300 * time.Millisecond),
}

// AttemptFunc is one try. attempt is 1-based.
type AttemptFunc func(ctx context.Context, attempt int) error

// Retry runs fn until it succeeds or the policy is exhausted. Each attempt
// gets its own timeout derived from ctx. Cancelling ctx stops the loop,
// including during a backoff wait.
func Retry(ctx context.Context, policy RetryPolicy, fn AttemptFunc) error {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := runAttempt(ctx, policy.AttemptTimeout, attempt, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("attempt %d: %w", attempt, ctx.Err())
		}
		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if policy.Backoff != nil {
			delay = policy.Backoff(attempt)
		}
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("attempt %d: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

// runAttempt enforces the per-attempt timeout even when fn ignores its
// context: a late result is abandoned.
func runAttempt(parent context.Context, timeout time.Duration, attempt int, fn AttemptFunc) error {
	if timeout <= 0 {
		return fn(parent, attempt)
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx, attempt)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("attempt %d timed out after %v: %w", attempt, timeout, ctx.Err())
	}
}
