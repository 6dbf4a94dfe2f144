// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"coursemart/internal/apperr"
)

// Counter records one hit for key in the current fixed window. It returns
// the number of hits in the window so far and the time until it resets.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (hits int64, reset time.Duration, err error)
}

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	Scope  string // key namespace, e.g. "auth"
	Limit  int    // requests allowed per window
	Window time.Duration
	// TrustProxy makes the limiter key on X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

// RateLimiter limits requests per client IP in fixed windows. Counts live
// in a Counter, so several API instances can share one Valkey budget.
type RateLimiter struct {
	counter Counter
	cfg     RateLimitConfig
}

// NewRateLimiter creates a rate limiter over counter.
func NewRateLimiter(counter Counter, cfg RateLimitConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{counter: counter, cfg: cfg}
}

// Middleware returns an HTTP middleware enforcing the limit. Rejected
// requests get a JSON 429 with a Retry-After hint. If the counter fails
// the request is let through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	limit := int64(rl.cfg.Limit)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP(r)
		hits, reset, err := rl.counter.Hit(r.Context(), rl.cfg.Scope+":"+ip, rl.cfg.Window)
		if err != nil {
			slog.Warn("rate limiter unavailable", "scope", rl.cfg.Scope, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(limit-hits, 0)
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if hits > limit {
			slog.Warn("rate limit exceeded", "scope", rl.cfg.Scope, "ip", ip, "hits", hits)
			w.Header().Set("Retry-After", retryAfter(reset))
			apperr.WriteJSON(w, http.StatusTooManyRequests, apperr.Body{Message: "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter renders d as whole seconds, at least 1.
func retryAfter(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}

// clientIP returns the address requests are counted against.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.cfg.TrustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// memorySweepSize is the number of tracked keys above which expired
// windows are dropped.
const memorySweepSize = 1024

// MemoryCounter is an in-process Counter for single-instance deployments
// and tests.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	hits    int64
	resetAt time.Time
}

// NewMemoryCounter creates an empty MemoryCounter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]memoryWindow), now: time.Now}
}

// Hit implements Counter.
func (c *MemoryCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.resetAt) {
		if len(c.windows) >= memorySweepSize {
			c.sweep(now)
		}
		w = memoryWindow{resetAt: now.Add(window)}
	}
	w.hits++
	c.windows[key] = w
	return w.hits, w.resetAt.Sub(now), nil
}

// sweep drops expired windows. The caller holds c.mu.
func (c *MemoryCounter) sweep(now time.Time) {
	for k, w := range c.windows {
		if !now.Before(w.resetAt) {
			delete(c.windows, k)
		}
	}
}
