// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

// fakeClock returns a MemoryCounter whose time is advanced by hand.
func fakeClock() (*MemoryCounter, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCounter()
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCounterWindows(t *testing.T) {
	c, now := fakeClock()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		hits, reset, _ := c.Hit(ctx, "auth:10.0.0.1", time.Minute)
		if hits != want {
			t.Fatalf("hit %d: got %d", want, hits)
		}
		if reset != time.Minute {
			t.Errorf("reset: got %v, want 1m", reset)
		}
	}

	if hits, _, _ := c.Hit(ctx, "auth:10.0.0.2", time.Minute); hits != 1 {
		t.Errorf("other key: got %d hits, want 1", hits)
	}

	*now = now.Add(40 * time.Second)
	if hits, reset, _ := c.Hit(ctx, "auth:10.0.0.1", time.Minute); hits != 4 || reset != 20*time.Second {
		t.Errorf("same window: got %d hits, reset %v", hits, reset)
	}

	*now = now.Add(20 * time.Second)
	if hits, _, _ := c.Hit(ctx, "auth:10.0.0.1", time.Minute); hits != 1 {
		t.Errorf("new window: got %d hits, want 1", hits)
	}
}

func TestMemoryCounterSweepsExpiredWindows(t *testing.T) {
	c, now := fakeClock()
	ctx := context.Background()

	for i := range memorySweepSize {
		c.Hit(ctx, "k"+strconv.Itoa(i), time.Second)
	}
	*now = now.Add(2 * time.Second)
	c.Hit(ctx, "fresh", time.Second)

	if len(c.windows) != 1 {
		t.Errorf("windows after sweep: got %d, want 1", len(c.windows))
	}
}

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiterMiddleware(t *testing.T) {
	counter, now := fakeClock()
	handler := limitedHandler(NewRateLimiter(counter, RateLimitConfig{Scope: "auth", Limit: 2, Window: 30 * time.Second}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i, remaining := range []string{"1", "0"} {
		rr := send()
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rr.Code)
		}
		if got := rr.Header().Get("X-RateLimit-Remaining"); got != remaining {
			t.Errorf("request %d: remaining %q, want %q", i+1, got, remaining)
		}
	}

	*now = now.Add(10 * time.Second)
	rr := send()
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "20" {
		t.Errorf("Retry-After: got %q, want %q", got, "20")
	}
	if !strings.Contains(rr.Body.String(), `"message":"too many requests"`) {
		t.Errorf("body: got %q", rr.Body.String())
	}

	*now = now.Add(20 * time.Second)
	if rr := send(); rr.Code != http.StatusOK {
		t.Errorf("after window: got status %d, want 200", rr.Code)
	}
}

type failingCounter struct{}

func (failingCounter) Hit(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("valkey down")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	handler := limitedHandler(NewRateLimiter(failingCounter{}, RateLimitConfig{Scope: "auth", Limit: 1}))

	for range 3 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rr.Code)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "1"},
		{300 * time.Millisecond, "1"},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
		{time.Minute, "60"},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.d); got != tt.want {
			t.Errorf("retryAfter(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"forwarded for, trusted", true, "10.0.0.1, 172.16.0.1", "", "192.168.1.1:1234", "10.0.0.1"},
		{"real ip, trusted", true, "", "10.0.0.2", "192.168.1.1:1234", "10.0.0.2"},
		{"forwarded for, untrusted", false, "10.0.0.1", "10.0.0.2", "192.168.1.1:1234", "192.168.1.1"},
		{"remote addr only", false, "", "", "192.168.1.1:1234", "192.168.1.1"},
		{"ipv6 remote addr", false, "", "", "[2001:db8::1]:443", "2001:db8::1"},
		{"remote addr without port", false, "", "", "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(NewMemoryCounter(), RateLimitConfig{TrustProxy: tt.trustProxy})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := rl.clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
