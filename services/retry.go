package services

import (
	"context"
	"fmt"
	"time"

	"nse-pulse/observability"
)

// RetryConfig controls the fixed-pause retry loop used for live quote
// fetches. MaxAttempts counts the first call.
type RetryConfig struct {
	MaxAttempts int
	Pause       time.Duration
}

// DefaultRetryConfig matches the pipeline contract: up to 3 attempts with a
// one-second pause between them.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	Pause:       1 * time.Second,
}

// WithRetry runs fn up to config.MaxAttempts times, pausing between attempts
// and honoring context cancellation during the pause. Returns nil on the
// first success, or the last error once attempts are exhausted.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(config.Pause):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt < attempts {
			observability.Debug("retrying after failure",
				"attempt", attempt,
				"max_attempts", attempts,
				"error", err)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
