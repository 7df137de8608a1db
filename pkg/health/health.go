package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type CheckFunc func(ctx context.Context) error

// Checker runs named dependency checks for the status and readiness endpoints.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	service string
	version string
	timeout time.Duration
	now     func() time.Time
}

func NewChecker(service, version string) *Checker {
	return &Checker{
		checks:  make(map[string]CheckFunc),
		service: service,
		version: version,
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

type CheckResult struct {
	Status    Status            `json:"status"`
	Service   string            `json:"service,omitempty"`
	Version   string            `json:"version,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// Check runs every registered check under a shared timeout.
func (c *Checker) Check(ctx context.Context) CheckResult {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	checks := c.checks
	c.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := CheckResult{
		Status:    StatusHealthy,
		Service:   c.service,
		Version:   c.version,
		Timestamp: c.now().UTC(),
		Details:   make(map[string]string, len(names)),
	}
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Details[name] = err.Error()
		} else {
			result.Details[name] = "ok"
		}
	}
	return result
}

// StatusHandler reports overall health with a 200 regardless of the outcome;
// it is the public GET / endpoint and must not expose dependency errors.
func (c *Checker) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := c.Check(r.Context())
		result.Details = nil
		writeJSON(w, http.StatusOK, result)
	}
}

func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := c.Check(r.Context())
		code := http.StatusOK
		if result.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, result)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
