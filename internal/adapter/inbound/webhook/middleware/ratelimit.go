package middleware

import (
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/pkg/apierror"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimitTable is a fixed-capacity fixed-window counter per key. Expired
// windows are only removed by Prune.
type RateLimitTable struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	capacity int
	entries  map[string]*rateWindow
}

func NewRateLimitTable(limit int, window time.Duration, capacity int) *RateLimitTable {
	return &RateLimitTable{
		limit:    limit,
		window:   window,
		capacity: capacity,
		entries:  make(map[string]*rateWindow),
	}
}

// Allow counts one request for key at now and reports whether it is within
// the limit. A full table prunes once; new keys are refused if it stays full.
func (t *RateLimitTable) Allow(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.entries[key]
	if !ok {
		if len(t.entries) >= t.capacity {
			t.pruneLocked(now)
			if len(t.entries) >= t.capacity {
				return false
			}
		}
		t.entries[key] = &rateWindow{start: now, count: 1}
		return true
	}

	if now.Sub(w.start) >= t.window {
		w.start = now
		w.count = 1
		return true
	}
	if w.count >= t.limit {
		return false
	}
	w.count++
	return true
}

// Prune drops every entry whose window has expired and returns how many
// were removed.
func (t *RateLimitTable) Prune(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pruneLocked(now)
}

func (t *RateLimitTable) pruneLocked(now time.Time) int {
	removed := 0
	for k, w := range t.entries {
		if now.Sub(w.start) >= t.window {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

func (t *RateLimitTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

type RateLimitOptions struct {
	// PruneChance is the probability that a request triggers Prune.
	PruneChance float64
	// Sample returns a value in [0,1); defaults to math/rand.
	Sample func() float64
	Now    func() time.Time
	// OnLimited is called for each rejected request.
	OnLimited func(r *http.Request)
}

// RateLimit rejects clients over the table's limit with 429, keyed by
// client IP.
func RateLimit(table *RateLimitTable, opts RateLimitOptions) func(http.Handler) http.Handler {
	if opts.Sample == nil {
		opts.Sample = rand.Float64
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := opts.Now()
			if opts.PruneChance > 0 && opts.Sample() < opts.PruneChance {
				table.Prune(now)
			}

			if !table.Allow(ClientIP(r), now) {
				if opts.OnLimited != nil {
					opts.OnLimited(r)
				}
				w.Header().Set("Retry-After", "60")
				apierror.Write(w, apierror.TooManyRequests())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP prefers the address recorded in the security context, then
// RemoteAddr with the port stripped. X-Forwarded-For is only honoured through
// chi's RealIP middleware.
func ClientIP(r *http.Request) string {
	if sc, ok := model.SecurityContextFrom(r.Context()); ok && sc.ClientIP != "" {
		return sc.ClientIP
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
