// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"coursemart/internal/apperr"
)

// Recoverer turns a handler panic into a logged stack trace and a JSON
// 500. If the handler already started the response, only the log line is
// written.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"route", routePattern(r),
					"request_id", middleware.GetReqID(r.Context()),
					"response_started", ww.Status() != 0,
					"stack", string(debug.Stack()),
				)
				if ww.Status() == 0 {
					apperr.WriteJSON(ww, http.StatusInternalServerError, apperr.Body{Message: "internal server error"})
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
