package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	Max int
	// Window is the duration of each window.
	Window time.Duration
	// KeyFunc extracts the rate limit key from a request.
	// If nil, the client IP address is used.
	KeyFunc func(*http.Request) string
	// Message is the error message sent with 429 responses.
	Message string
	// Limiter counts requests. Nil means an in-process sliding window.
	Limiter Limiter
}

// Quota is the outcome of a single Limiter.Allow call.
type Quota struct {
	Remaining int
	ResetAt   time.Time
	Allowed   bool
}

// Limiter decides whether one more request for key fits into the window.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Quota, error)
}

func (cfg *RateLimitConfig) setDefaults() {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = defaultKeyFunc
	}
	if cfg.Message == "" {
		cfg.Message = "Too many requests from this IP, please try again later."
	}
}

// slidingWindow counts requests of one client in the current and the
// previous fixed window. The previous count is weighted by how much of it
// still overlaps the sliding window.
type slidingWindow struct {
	start time.Time
	curr  float64
	prev  float64
}

// estimate returns the weighted request count at now.
func (sw *slidingWindow) estimate(now time.Time, size time.Duration) float64 {
	overlap := 1 - float64(now.Sub(sw.start))/float64(size)
	return sw.prev*max(overlap, 0) + sw.curr
}

// advance rotates the window when now has left it.
func (sw *slidingWindow) advance(now time.Time, size time.Duration) {
	switch elapsed := now.Sub(sw.start); {
	case elapsed >= 2*size:
		sw.prev, sw.curr = 0, 0
		sw.start = now.Truncate(size)
	case elapsed >= size:
		sw.prev, sw.curr = sw.curr, 0
		sw.start = now.Truncate(size)
	}
}

// memoryLimiter is the in-process Limiter. Counts are per replica.
type memoryLimiter struct {
	max  float64
	size time.Duration

	mu      sync.Mutex
	windows map[string]*slidingWindow
}

func newMemoryLimiter(cfg RateLimitConfig) *memoryLimiter {
	return &memoryLimiter{
		max:     float64(cfg.Max),
		size:    cfg.Window,
		windows: make(map[string]*slidingWindow),
	}
}

// Allow implements Limiter. It never fails.
func (ml *memoryLimiter) Allow(_ context.Context, key string, now time.Time) (Quota, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	sw, ok := ml.windows[key]
	if !ok {
		sw = &slidingWindow{start: now}
		ml.windows[key] = sw
	}
	sw.advance(now, ml.size)

	q := Quota{ResetAt: sw.start.Add(ml.size)}
	count := sw.estimate(now, ml.size)
	if count >= ml.max {
		return q, nil
	}
	sw.curr++
	q.Allowed = true
	q.Remaining = max(int(ml.max-count-1), 0)
	return q, nil
}

// evict drops clients idle for two full windows.
func (ml *memoryLimiter) evict(now time.Time) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	for key, sw := range ml.windows {
		if now.Sub(sw.start) >= 2*ml.size {
			delete(ml.windows, key)
		}
	}
}

// evictLoop runs evict every two windows until ctx is done.
func (ml *memoryLimiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * ml.size)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ml.evict(now)
		}
	}
}

// RateLimit returns a middleware that enforces a per-key rate limit. When the
// limit is exceeded, it responds with 429 Too Many Requests and a "fail"
// error envelope. Every response includes X-RateLimit-Limit,
// X-RateLimit-Remaining, and X-RateLimit-Reset headers.
//
// Without cfg.Limiter the in-process sliding window is used and no cleanup
// goroutine is started. Use RateLimitWithCleanup for automatic eviction.
func RateLimit(cfg RateLimitConfig) Middleware {
	cfg.setDefaults()
	if cfg.Limiter == nil {
		cfg.Limiter = newMemoryLimiter(cfg)
	}
	return rateLimitMiddleware(cfg)
}

// RateLimitWithCleanup is like RateLimit but, for the in-process limiter,
// starts a background goroutine that evicts expired entries every 2x the
// window duration. The goroutine stops when ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	cfg.setDefaults()
	if cfg.Limiter == nil {
		ml := newMemoryLimiter(cfg)
		go ml.evictLoop(ctx)
		cfg.Limiter = ml
	}
	return rateLimitMiddleware(cfg)
}

func rateLimitMiddleware(cfg RateLimitConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := cfg.KeyFunc(r)
			now := time.Now()

			q, err := cfg.Limiter.Allow(ctx, key, now)
			if err != nil {
				// Fail open: a broken limiter backend must not take the API down.
				zctx.From(ctx).Warn("Rate limiter failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(q.ResetAt.Unix(), 10))

			if !q.Allowed {
				retryAfter := q.ResetAt.Sub(now)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				writeError(w, http.StatusTooManyRequests, cfg.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// defaultKeyFunc extracts the client IP from the request, checking
// X-Forwarded-For first, then X-Real-IP, then falling back to RemoteAddr.
func defaultKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For may contain a comma-separated list; use the first.
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
