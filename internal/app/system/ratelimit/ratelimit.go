// internal/app/system/ratelimit/ratelimit.go

// Package ratelimit provides a fixed-window request limiter keyed by an
// arbitrary string, used to throttle login attempts per client IP.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key within a rolling window. Safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration

	lastPrune time.Time
}

type bucket struct {
	hits    int
	resetAt time.Time
}

// New returns a limiter allowing at most limit requests per key within
// each window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		buckets:   make(map[string]*bucket),
		limit:     limit,
		window:    window,
		lastPrune: time.Now(),
	}
}

// Allow records one request for key and reports whether it is within
// the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.pruneLocked(now)

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		l.buckets[key] = &bucket{hits: 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.hits >= l.limit {
		return false
	}
	b.hits++
	return true
}

// Reset forgets all recorded requests for key. Called after a
// successful login so earlier failed attempts stop counting.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// pruneLocked drops expired buckets. Runs at most once per window so a
// burst of distinct keys cannot grow the map unbounded between logins.
func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	for key, b := range l.buckets {
		if now.After(b.resetAt) {
			delete(l.buckets, key)
		}
	}
	l.lastPrune = now
}

// ClientIP returns the originating client IP for a request, preferring
// the X-Forwarded-For and X-Real-IP headers set by reverse proxies and
// falling back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
