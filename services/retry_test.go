package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3}, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_RecoversAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("quote endpoint down")
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3}, func() error {
		calls++
		return sentinel
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestWithRetry_FixedPauseBetweenAttempts(t *testing.T) {
	start := time.Now()
	calls := 0
	WithRetry(context.Background(), RetryConfig{MaxAttempts: 3, Pause: 20 * time.Millisecond}, func() error {
		calls++
		return errors.New("always fails")
	})
	elapsed := time.Since(start)
	if elapsed < 40*time.Millisecond {
		t.Errorf("elapsed %v, want at least two 20ms pauses", elapsed)
	}
}

func TestWithRetry_CancelledDuringPause(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	err := WithRetry(ctx, RetryConfig{MaxAttempts: 3, Pause: time.Second}, func() error {
		calls++
		return errors.New("transient")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (pause should be interrupted)", calls)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap the context error, got %v", err)
	}
}

func TestWithRetry_ZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	WithRetry(context.Background(), RetryConfig{}, func() error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
