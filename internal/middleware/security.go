// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

const hstsValue = "max-age=63072000; includeSubDomains"

// SecureHeaders sets response headers for a JSON-only API: nothing may
// frame it or load sub-resources from it, and responses carrying account
// or learner data are never stored by shared caches. Public catalog reads
// may be cached by the client. HSTS is sent only when hsts is true, which
// production deployments behind TLS enable.
func SecureHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")

			if isCredentialed(r) {
				h.Set("Cache-Control", "no-store")
			} else {
				h.Set("Cache-Control", "no-cache")
			}
			if hsts {
				h.Set("Strict-Transport-Security", hstsValue)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isCredentialed reports whether the request carries an identity token or
// changes state.
func isCredentialed(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}
	if r.Header.Get("Authorization") != "" {
		return true
	}
	_, err := r.Cookie("firebase_token")
	return err == nil
}
