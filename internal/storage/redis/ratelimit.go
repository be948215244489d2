package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/fzokart/pkg/httpmiddleware"
)

const rateKeyPrefix = "fzokart:ratelimit:"

// fixedWindow increments the counter of the current window and sets its
// expiry on first hit. Returns {count, ttl_ms}.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {count, ttl}
`)

var _ httpmiddleware.Limiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window request counter shared by every API replica.
type RateLimiter struct {
	c      redis.Scripter
	max    int
	window time.Duration
}

// NewRateLimiter allows max requests per key in each window.
func NewRateLimiter(c redis.Scripter, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{c: c, max: max, window: window}
}

// Allow implements httpmiddleware.Limiter.
func (l *RateLimiter) Allow(ctx context.Context, key string, now time.Time) (httpmiddleware.Quota, error) {
	res, err := fixedWindow.Run(ctx, l.c, []string{rateKeyPrefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return httpmiddleware.Quota{}, errors.Wrap(err, "run rate limit script")
	}
	if len(res) != 2 {
		return httpmiddleware.Quota{}, errors.Errorf("unexpected rate limit reply %v", res)
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}

	q := httpmiddleware.Quota{
		Remaining: max(l.max-count, 0),
		ResetAt:   now.Add(ttl),
		Allowed:   count <= l.max,
	}
	return q, nil
}
