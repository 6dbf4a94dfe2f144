// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the route table, the guard wiring, and the
// health endpoint.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/auth"
	"coursemart/internal/handlers"
	"coursemart/internal/identity"
	"coursemart/internal/middleware"
	"coursemart/internal/models"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*identity.Claims, error) {
	if uid, ok := strings.CutPrefix(token, "token-"); ok {
		return &identity.Claims{UID: uid}, nil
	}
	return nil, apperr.InvalidCredential(errors.New("bad token"))
}

type stubUsers map[string]*models.User

func (s stubUsers) FindByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return s[uid], nil
}

// testHandlers builds handler groups without backing stores. Only routes
// the guard rejects may be exercised with them.
func testHandlers() Handlers {
	return Handlers{
		Health:   handlers.NewHealth(nil),
		Auth:     handlers.NewAuth(stubVerifier{}, nil, nil),
		Catalog:  handlers.NewCatalog(nil, nil, nil, nil, nil),
		Lessons:  handlers.NewLessons(nil, nil, nil, nil, nil),
		Learning: handlers.NewLearning(nil, nil, nil),
		Commerce: handlers.NewCommerce(nil, nil, nil, nil),
		Admin:    handlers.NewAdmin(nil),
	}
}

func testRouter(limiter *middleware.RateLimiter) http.Handler {
	users := stubUsers{
		"learner": {ID: uuid.New(), FirebaseUID: "learner", Role: models.RoleUser},
	}
	gate := auth.NewGate(stubVerifier{}, users)
	return New(gate, limiter, Routes(testHandlers()), Options{Logger: slog.New(slog.DiscardHandler)})
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	testRouter(nil).ServeHTTP(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content-type: got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Error("security headers missing")
	}
}

func TestRouteTable(t *testing.T) {
	seen := map[string]bool{}
	for _, rt := range Routes(testHandlers()) {
		key := rt.Method + " " + rt.Pattern
		if seen[key] {
			t.Errorf("duplicate route %s", key)
		}
		seen[key] = true

		if rt.Handler == nil {
			t.Errorf("%s has no handler", key)
		}
		if strings.HasPrefix(rt.Pattern, "/admin") && (rt.Public || len(rt.Roles) == 0) {
			t.Errorf("%s must be admin-only", key)
		}
		if strings.HasPrefix(rt.Pattern, "/auth") != rt.RateLimited {
			t.Errorf("%s: rate limited = %v", key, rt.RateLimited)
		}
		if rt.Public && rt.Method != http.MethodGet && !strings.HasPrefix(rt.Pattern, "/auth") {
			t.Errorf("%s: public write route", key)
		}
	}

	for _, key := range []string{
		"POST /courses/{courseId}/lessons/{lessonId}/complete",
		"GET /courses/{courseId}/progress",
		"PATCH /admin/users/{userId}/role",
		"POST /orders/checkout",
	} {
		if !seen[key] {
			t.Errorf("missing route %s", key)
		}
	}
}

func TestGuardedRoutes(t *testing.T) {
	router := testRouter(nil)
	id := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"no token", http.MethodPost, "/courses/" + id + "/lessons/" + id + "/complete", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/courses/" + id + "/progress", "forged", http.StatusUnauthorized},
		{"unregistered", http.MethodGet, "/enrollments", "token-stranger", http.StatusUnauthorized},
		{"learner creating course", http.MethodPost, "/courses", "token-learner", http.StatusForbidden},
		{"learner on admin", http.MethodGet, "/admin/users", "token-learner", http.StatusForbidden},
		{"unknown route", http.MethodGet, "/nowhere", "", http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/health", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body.String())
			}
			var body apperr.Body
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body.Message == "" {
				t.Errorf("expected JSON error message, got %q", w.Body.String())
			}
		})
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.NewMemoryCounter(), middleware.RateLimitConfig{
		Scope:  "auth",
		Limit:  1,
		Window: time.Minute,
	})
	router := testRouter(limiter)

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes[i] = w.Code
	}

	if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [401 429]", codes)
	}

	// Other routes are not limited.
	for range 3 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("health status = %d", w.Code)
		}
	}
}
