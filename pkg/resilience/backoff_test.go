package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSourceBackoff(t *testing.T) {
	backoff := SourceBackoff()

	if backoff.BaseDelay != 250*time.Millisecond {
		t.Errorf("Expected BaseDelay = 250ms, got %v", backoff.BaseDelay)
	}
	if backoff.MaxDelay != 5*time.Second {
		t.Errorf("Expected MaxDelay = 5s, got %v", backoff.MaxDelay)
	}
	if backoff.Multiplier != 2.0 {
		t.Errorf("Expected Multiplier = 2.0, got %f", backoff.Multiplier)
	}
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{5, 2 * time.Second}, // capped at MaxDelay
		{10, 2 * time.Second},
	}

	for _, tt := range tests {
		delay := backoff.NextDelay(tt.attempt)
		if delay != tt.expected {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, delay, tt.expected)
		}
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, &FixedBackoff{Delay: time.Millisecond}, nil, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetry_StopsOnNonRetriable(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), 5, &FixedBackoff{Delay: time.Millisecond},
		func(err error) bool { return false },
		func(ctx context.Context) error {
			calls++
			return permanent
		})
	if !errors.Is(err, permanent) {
		t.Fatalf("Expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, &FixedBackoff{Delay: time.Millisecond}, nil, func(ctx context.Context) error {
		calls++
		return errors.New("still failing")
	})
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 3, &FixedBackoff{Delay: 10 * time.Millisecond}, nil, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation stops retries, got %d", calls)
	}
}
