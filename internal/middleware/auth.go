// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"

	"coursemart/internal/apperr"
	"coursemart/internal/auth"
	"coursemart/internal/models"
)

// Guard is the single authorization gate for a route. Public routes pass
// straight through. Otherwise the credential is extracted, verified and
// resolved to a local user, the user's role is checked against roles, and
// the identity is attached to the request context. Every protected request
// re-verifies its token.
func Guard(gate *auth.Gate, public bool, roles []models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if public {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := gate.Authenticate(r.Context(), auth.ExtractToken(r))
			if err == nil {
				err = auth.Authorize(id, roles)
			}
			if err != nil {
				if apperr.StatusOf(err) == http.StatusForbidden {
					slog.Warn("access denied",
						"path", r.URL.Path,
						"role", id.Role,
						"required", roles,
					)
				}
				apperr.Write(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
