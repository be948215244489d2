package health

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CheckFunc reports whether a dependency is healthy. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// CheckOption tunes a single registered check.
type CheckOption func(*check)

// WithThresholds overrides how many consecutive failures mark the check
// unhealthy and how many successes mark it healthy again. Defaults are 3 and 1.
func WithThresholds(failure, success int) CheckOption {
	return func(c *check) {
		c.failureThreshold = max(failure, 1)
		c.successThreshold = max(success, 1)
	}
}

// check is a named CheckFunc plus its debounced state.
//
// run is only called from the check's own ticker goroutine, so the streak
// counters need no locking. healthy and lastErr are read by HTTP handlers.
type check struct {
	name             string
	timeout          time.Duration
	fn               CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails     int
	successes int
}

func newCheck(name string, timeout time.Duration, fn CheckFunc, opts []CheckOption) *check {
	c := &check{
		name:             name,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	// Healthy until proven otherwise.
	c.healthy.Store(true)
	return c
}

// err returns the error of the last run, nil when it passed or never ran.
func (c *check) err() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once and flips its state when a streak reaches the
// configured threshold. Flips are logged.
func (c *check) run(ctx context.Context, lg *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.successes = 0
		c.fails++
		if c.fails >= c.failureThreshold && c.healthy.Swap(false) {
			lg.Warn("Health check failing",
				zap.String("check", c.name),
				zap.Int("consecutive_failures", c.fails),
				zap.Error(err),
			)
		}
		return
	}

	c.fails = 0
	c.successes++
	if c.successes >= c.successThreshold && !c.healthy.Swap(true) {
		lg.Info("Health check recovered", zap.String("check", c.name))
	}
}

// loop runs the check immediately and then at every tick until ctx is done.
func (c *check) loop(ctx context.Context, lg *zap.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx, lg)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx, lg)
		}
	}
}
