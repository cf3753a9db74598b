// Package ratelimit throttles write requests per client IP.
//
// Each client gets a fixed one-minute window. Reads are exempt so a busy
// dashboard never locks an operator out of logging deliveries.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Config sizes a Limiter. Zero fields take the DefaultConfig value.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// IdleAfter is how long a client may stay silent before its window is
	// forgotten.
	IdleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		IdleAfter:         10 * time.Minute,
	}
}

type bucket struct {
	opened time.Time
	seen   time.Time
	count  int
}

// Limiter counts writes per client in fixed windows.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	rejected atomic.Int64
	quit     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter with a background sweeper. Call Stop to end it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}

	l := &Limiter{
		cfg:     cfg,
		buckets: map[string]*bucket{},
		now:     time.Now,
		quit:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// WithClock replaces the time source.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
	return l
}

// Allow records one write from ip and reports whether it is within budget.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	b := l.buckets[ip]
	if b == nil || t.Sub(b.opened) >= window {
		l.buckets[ip] = &bucket{opened: t, seen: t, count: 1}
		return true
	}
	b.seen = t
	b.count++
	if b.count <= l.cfg.RequestsPerMinute {
		return true
	}
	l.rejected.Add(1)
	return false
}

func (l *Limiter) sweep() {
	tick := time.NewTicker(l.cfg.CleanupInterval)
	defer tick.Stop()
	for {
		select {
		case <-l.quit:
			return
		case <-tick.C:
			l.cleanupStaleEntries()
		}
	}
}

// cleanupStaleEntries drops clients idle longer than IdleAfter and returns
// how many were dropped.
func (l *Limiter) cleanupStaleEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.cfg.IdleAfter)
	n := 0
	for ip, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, ip)
			n++
		}
	}
	return n
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Metrics is reported by the readiness probe.
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   l.rejected.Load(),
		ClientCount: int64(l.ActiveClients()),
	}
}

func readOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// Middleware applies Allow to every non-read request. onLimit writes the
// rejection body; nil falls back to a plain-text 429.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}
	}
	retry := strconv.Itoa(int(window / time.Second))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if readOnly(r.Method) || l.Allow(extractIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", retry)
			onLimit(w, r)
		})
	}
}
