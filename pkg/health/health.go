// Package health serves the /livez and /readyz probes of the API server.
//
// Every check runs in its own goroutine. A check is debounced: it turns
// unhealthy after failureThreshold consecutive failures and healthy again
// after successThreshold consecutive passes.
package health

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// probe is an ordered set of checks answering one endpoint.
type probe struct {
	mu     sync.RWMutex
	checks []*check
}

func (p *probe) add(c *check) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks = append(p.checks, c)
}

func (p *probe) list() []*check {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.checks)
}

func (p *probe) healthy() bool {
	for _, c := range p.list() {
		if !c.healthy.Load() {
			return false
		}
	}
	return true
}

// report maps every check to "ok" or its failure message and tells whether
// any check is unhealthy.
func (p *probe) report() (map[string]string, bool) {
	out := make(map[string]string)
	failing := false
	for _, c := range p.list() {
		if c.healthy.Load() {
			out[c.name] = "ok"
			continue
		}
		failing = true
		if err := c.err(); err != nil {
			out[c.name] = err.Error()
		} else {
			out[c.name] = "check is unhealthy"
		}
	}
	return out, failing
}

// Health owns the liveness and readiness probes of a process.
type Health struct {
	lg        *zap.Logger
	ready     atomic.Bool
	liveness  probe
	readiness probe

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Option configures a Health.
type Option func(*Health)

// WithLogger sets the logger used to report check state changes.
func WithLogger(lg *zap.Logger) Option {
	return func(h *Health) { h.lg = lg }
}

// New creates a Health in the not-ready state. Call SetReady(true) once the
// process has finished initialization.
func New(opts ...Option) *Health {
	h := &Health{lg: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddLivenessCheck registers a check that decides whether the process should
// be restarted, e.g. goroutine count or GC pauses.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...CheckOption) {
	h.liveness.add(newCheck(name, timeout, fn, opts))
}

// AddReadinessCheck registers a check that decides whether the process can
// take traffic, e.g. PostgreSQL or Redis reachability.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc, opts ...CheckOption) {
	h.readiness.add(newCheck(name, timeout, fn, opts))
}

// Start runs all registered checks in the background at the given interval
// until ctx is done or Stop is called. Register checks before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	for _, c := range append(h.liveness.list(), h.readiness.list()...) {
		go c.loop(ctx, h.lg, interval)
	}
}

// Stop cancels the background checks. It is safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the process ready after startup, or not ready when it
// starts draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the process is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	return h.ready.Load() && h.readiness.healthy()
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while all liveness checks
// pass, 503 {"status":"unhealthy","checks":{...}} otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	checks, failing := h.liveness.report()
	writeResponse(w, r, checks, failing)
}

// ReadyEndpoint serves /readyz. It fails while the process is not marked
// ready, in addition to failing readiness checks.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	checks, failing := h.readiness.report()
	if !h.ready.Load() {
		checks["_readiness"] = "service is not ready"
		failing = true
	}
	writeResponse(w, r, checks, failing)
}

// writeResponse lists failing checks in name order. With ?verbose the
// passing checks are listed too.
func writeResponse(w http.ResponseWriter, r *http.Request, checks map[string]string, failing bool) {
	status, code := "ok", http.StatusOK
	if failing {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	verbose := r.URL.Query().Has("verbose")

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(status) })
		if !failing && !verbose {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range slices.Sorted(maps.Keys(checks)) {
					if checks[name] == "ok" && !verbose {
						continue
					}
					e.Field(name, func(e *jx.Encoder) { e.Str(checks[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
