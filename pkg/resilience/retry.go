package resilience

import (
	"context"
	"time"
)

// RetriableFunc reports whether an error is worth retrying.
// Returning false stops the retry loop immediately.
type RetriableFunc func(error) bool

// Retry runs fn up to maxAttempts times, sleeping per the backoff
// strategy between attempts. It returns nil on the first success, the
// last error once attempts are exhausted, or early when retriable
// reports false or the context is cancelled.
func Retry(ctx context.Context, maxAttempts int, backoff BackoffStrategy, retriable RetriableFunc, fn func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff.NextDelay(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retriable != nil && !retriable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
