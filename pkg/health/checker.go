package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout      = 2 * time.Second
	DefaultDegradeAfter = 500 * time.Millisecond
)

// Summary aggregates named reports. Status is the worst of them.
type Summary struct {
	Status Status            `json:"status"`
	Checks map[string]Report `json:"checks"`
}

type namedCheck struct {
	name string
	fn   CheckFunc
}

// Checker runs a set of named checks concurrently.
type Checker struct {
	timeout      time.Duration
	degradeAfter time.Duration

	mu     sync.RWMutex
	checks []namedCheck
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the per-check timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.timeout = d }
}

// WithDegradeAfter sets the latency above which a passing check is Degraded.
func WithDegradeAfter(d time.Duration) Option {
	return func(c *Checker) { c.degradeAfter = d }
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{timeout: DefaultTimeout, degradeAfter: DefaultDegradeAfter}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a named check, replacing any check with the same name.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.checks {
		if c.checks[i].name == name {
			c.checks[i].fn = fn
			return
		}
	}
	c.checks = append(c.checks, namedCheck{name: name, fn: fn})
}

// Names returns the registered check names in sorted order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for _, check := range c.checks {
		names = append(names, check.name)
	}
	sort.Strings(names)
	return names
}

// Run executes every check. With no checks registered the summary is
// Healthy.
func (c *Checker) Run(ctx context.Context) Summary {
	c.mu.RLock()
	checks := append([]namedCheck(nil), c.checks...)
	c.mu.RUnlock()

	reports := make([]Report, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		g.Go(func() error {
			reports[i] = Check(ctx, check.fn, c.timeout, c.degradeAfter)
			return nil
		})
	}
	_ = g.Wait()

	summary := Summary{Status: Healthy, Checks: make(map[string]Report, len(checks))}
	for i, check := range checks {
		summary.Checks[check.name] = reports[i]
		if reports[i].Status > summary.Status {
			summary.Status = reports[i].Status
		}
	}
	return summary
}

// Handler serves the summary as JSON. It answers 503 when any check is
// Offline and 200 otherwise.
func Handler(c *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary := c.Run(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if summary.Status == Offline {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(summary)
	}
}
