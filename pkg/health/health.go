// Package health serves liveness and readiness probes.
//
// Each check runs in its own goroutine at a fixed interval. A check turns
// unhealthy after failureThreshold consecutive failures and healthy again
// after successThreshold consecutive passes, so a single slow storage ping
// does not flip readiness.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

const (
	failureThreshold = 3
	successThreshold = 1
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// check is one registered CheckFunc plus its state. run is only ever called
// from one goroutine, so the counters are unsynchronised; healthy and lastErr
// are read concurrently by probe handlers.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	c.oks++
	if c.oks >= successThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "check is unhealthy", true
}

// Probe is a named set of checks answered by one endpoint.
type Probe struct {
	mu     sync.RWMutex
	checks []*check

	// gate, when set, must report true for the probe to pass.
	gate func() bool
}

// Add registers a check. Checks start healthy until proven otherwise.
func (p *Probe) Add(name string, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	p.mu.Lock()
	p.checks = append(p.checks, c)
	p.mu.Unlock()
}

func (p *Probe) snapshot() []*check {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*check(nil), p.checks...)
}

// Failures returns check name to error message for every unhealthy check.
func (p *Probe) Failures() map[string]string {
	failures := make(map[string]string)
	for _, c := range p.snapshot() {
		if msg, failed := c.failure(); failed {
			failures[c.name] = msg
		}
	}
	if p.gate != nil && !p.gate() {
		failures["_readiness"] = "service is not ready"
	}
	return failures
}

// ServeHTTP answers 200 {"status":"ok"} when every check passes, otherwise
// 503 {"status":"unhealthy","checks":{...}}.
func (p *Probe) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	failures := p.Failures()

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	status := http.StatusOK
	if len(failures) == 0 {
		e.Str("ok")
	} else {
		status = http.StatusServiceUnavailable
		e.Str("unhealthy")
		e.FieldStart("checks")
		e.ObjStart()
		for name, msg := range failures {
			e.FieldStart(name)
			e.Str(msg)
		}
		e.ObjEnd()
	}
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// Health owns the liveness and readiness probes of a service.
type Health struct {
	Live  *Probe
	Ready *Probe

	ready atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Health in the not-ready state; call SetReady(true) once
// initialisation has finished.
func New() *Health {
	h := &Health{Live: &Probe{}, Ready: &Probe{}}
	h.Ready.gate = h.ready.Load
	return h
}

// SetReady flips the manual readiness gate, typically to false at the start
// of a graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check passes.
func (h *Health) IsReady() bool {
	return len(h.Ready.Failures()) == 0
}

// Start runs every registered check immediately and then at interval until
// Stop is called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.cancel = cancel
	h.mu.Unlock()

	for _, c := range append(h.Live.snapshot(), h.Ready.snapshot()...) {
		go runCheck(ctx, c, interval)
	}
}

func runCheck(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
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
