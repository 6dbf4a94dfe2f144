package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// captureLogger returns a JSON logger that writes every level into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &rec); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return rec
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		level  string
	}{
		{"success", "/courses", http.StatusOK, "INFO"},
		{"created", "/cart", http.StatusCreated, "INFO"},
		{"client error", "/courses/x", http.StatusNotFound, "WARN"},
		{"server error", "/orders/checkout", http.StatusInternalServerError, "ERROR"},
		{"health check", "/health", http.StatusOK, "DEBUG"},
		{"failing health check", "/health", http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := RequestLogger(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != tt.status {
				t.Errorf("status: got %d, want %d", rr.Code, tt.status)
			}
			rec := lastRecord(t, &buf)
			if rec["level"] != tt.level {
				t.Errorf("level: got %v, want %s", rec["level"], tt.level)
			}
			if int(rec["status"].(float64)) != tt.status {
				t.Errorf("logged status: got %v, want %d", rec["status"], tt.status)
			}
		})
	}
}

func TestRequestLoggerImplicitStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Body.String() != "hello" {
		t.Errorf("body: got %q, want %q", rr.Body.String(), "hello")
	}
	rec := lastRecord(t, &buf)
	if rec["status"] != float64(200) {
		t.Errorf("status: got %v, want 200", rec["status"])
	}
	if rec["bytes"] != float64(5) {
		t.Errorf("bytes: got %v, want 5", rec["bytes"])
	}
}

func TestRequestLoggerRouteAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestLogger(captureLogger(&buf)))
	r.Get("/courses/{courseId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/courses/go-basics", nil))

	rec := lastRecord(t, &buf)
	if rec["route"] != "/courses/{courseId}" {
		t.Errorf("route: got %v", rec["route"])
	}
	if rec["path"] != "/courses/go-basics" {
		t.Errorf("path: got %v", rec["path"])
	}
	if id, _ := rec["request_id"].(string); id == "" {
		t.Error("request_id should be logged")
	}
}

func TestRequestLoggerNilUsesDefault(t *testing.T) {
	h := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/cart", nil))
	if rr.Code != http.StatusAccepted {
		t.Errorf("status: got %d, want 202", rr.Code)
	}
}
