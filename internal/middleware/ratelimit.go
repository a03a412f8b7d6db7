// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxTrackedClients bounds each limiter table.
	maxTrackedClients = 10000
	// limiterIdleTTL is how long an untouched client keeps its bucket.
	limiterIdleTTL = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters keeps one token bucket per client key.
type ipLimiters struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func newIPLimiters(rps float64, burst int) *ipLimiters {
	return &ipLimiters{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// allow spends a token for key. When the bucket is empty it reports how long
// the client should wait.
func (l *ipLimiters) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= maxTrackedClients {
			l.evictLocked(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// evictIdle drops buckets that have not been used for limiterIdleTTL and
// returns how many were removed.
func (l *ipLimiters) evictIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.evictLocked(l.now())
}

// evictLocked removes idle buckets. If the table is still full afterwards
// it is reset.
func (l *ipLimiters) evictLocked(now time.Time) int {
	before := len(l.entries)
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(l.entries, key)
		}
	}
	if len(l.entries) >= maxTrackedClients {
		slog.Info("rate limiter state reset", "max_clients", maxTrackedClients)
		l.entries = make(map[string]*limiterEntry)
	}
	return before - len(l.entries)
}

func (l *ipLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// GlobalRateLimiter limits API requests per client IP.
type GlobalRateLimiter struct {
	limiters *ipLimiters
}

// NewGlobalRateLimiter allows rps requests per second per IP with the given
// burst.
func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{limiters: newIPLimiters(rps, burst)}
}

// Middleware rejects clients over their budget with a JSON 429.
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if ok, wait := rl.limiters.allow(ip); !ok {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "category", "security")
				writeTooManyRequests(w, wait, "rate_limit_exceeded", "Rate limit exceeded. Please slow down.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
