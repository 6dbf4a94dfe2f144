package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Health serves GET /health.
type Health struct {
	checks map[string]HealthCheck
}

// NewHealth creates the health handler. Checks are keyed by service name.
func NewHealth(checks map[string]HealthCheck) *Health {
	return &Health{checks: checks}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Check runs every check concurrently under one shared deadline and
// answers 503 if any fails. A failing check does not cancel the others, so
// each service is reported on its own.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		errs := make([]error, len(names))

		var g errgroup.Group
		for i, name := range names {
			check := h.checks[name]
			g.Go(func() error {
				if err := check(ctx); err != nil {
					errs[i] = err
					return fmt.Errorf("%s: %w", name, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			resp.Status = "degraded"
		}

		resp.Checks = make(map[string]string, len(names))
		for i, name := range names {
			if errs[i] != nil {
				slog.Warn("health check failed", "service", name, "error", errs[i])
				resp.Checks[name] = "unavailable"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
