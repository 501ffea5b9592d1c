package pipeline

import (
	"context"
	"sync"

	"nse-pulse/models"
	"nse-pulse/observability"
)

// RunCache memoizes the scheduler's output until explicitly invalidated.
// There is no TTL: the presentation layer reads through this cache and an
// operator action is the only thing that discards a run.
//
// The recompute is single-flight: a caller arriving while a run is already
// in flight waits for that run's result instead of starting a second one.
type RunCache struct {
	mu       sync.Mutex
	result   *models.RunResult
	inflight chan struct{}
	compute  func(ctx context.Context) (*models.RunResult, error)
}

// NewRunCache creates a RunCache around the given compute function,
// typically a closure over Scheduler.Run.
func NewRunCache(compute func(ctx context.Context) (*models.RunResult, error)) *RunCache {
	return &RunCache{compute: compute}
}

// Get returns the cached run, computing it first when the cache is empty.
// Concurrent callers during a recompute block until it finishes and then
// share its result. If the in-flight computation fails, one waiter takes
// over and retries.
func (c *RunCache) Get(ctx context.Context) (*models.RunResult, error) {
	metrics := observability.GetMetrics()

	c.mu.Lock()
	for {
		if c.result != nil {
			result := c.result
			c.mu.Unlock()
			metrics.RecordCacheHit()
			return result, nil
		}
		if c.inflight == nil {
			break
		}
		done := c.inflight
		c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		c.mu.Lock()
	}

	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	metrics.RecordCacheMiss()
	result, err := c.compute(ctx)

	c.mu.Lock()
	c.inflight = nil
	if err == nil {
		c.result = result
	}
	c.mu.Unlock()
	close(done)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// Peek returns the cached run without triggering a recompute, or nil when
// the cache is empty.
func (c *RunCache) Peek() *models.RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Invalidate discards the cached run. The next Get recomputes from scratch;
// an in-flight computation is unaffected and will still populate the cache.
func (c *RunCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
}
