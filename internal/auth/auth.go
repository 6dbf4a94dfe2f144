// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth resolves bearer credentials into local identities and
// decides whether an identity may access a route. It is the only place
// that combines the identity provider with the local users table.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/identity"
	"coursemart/internal/models"
)

// TokenCookie is the fallback cookie carrying the ID token when no
// Authorization header is present.
const TokenCookie = "firebase_token"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UID           string      `json:"uid"`
	Email         string      `json:"email"`
	EmailVerified bool        `json:"emailVerified"`
	Name          string      `json:"name"`
	DBID          uuid.UUID   `json:"dbId"`
	Role          models.Role `json:"role"`
}

// IsAdmin returns true if the caller holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// UserLookup finds a local user by identity-provider subject. It returns
// (nil, nil) when no such user exists.
type UserLookup interface {
	FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
}

// Gate verifies credentials and resolves them to local users.
type Gate struct {
	verifier identity.Verifier
	users    UserLookup
}

// NewGate creates a Gate over the given verifier and user lookup.
func NewGate(verifier identity.Verifier, users UserLookup) *Gate {
	return &Gate{verifier: verifier, users: users}
}

// Verify runs only the identity-provider step. The login and register
// endpoints use it because the local user may not exist yet.
func (g *Gate) Verify(ctx context.Context, token string) (*identity.Claims, error) {
	if token == "" {
		return nil, apperr.ErrInvalidCredential
	}
	return g.verifier.Verify(ctx, token)
}

// Authenticate verifies token with the identity provider and resolves the
// subject to a local user. Users are never provisioned here; only the
// login endpoint syncs new accounts.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Identity, error) {
	claims, err := g.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByFirebaseUID(ctx, claims.UID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotRegistered
	}

	return &Identity{
		UID:           claims.UID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		DBID:          user.ID,
		Role:          user.Role,
	}, nil
}

// Authorize checks id against a route's required roles. An empty set
// admits any authenticated caller and admins are always admitted.
func Authorize(id *Identity, required []models.Role) error {
	if id == nil {
		return apperr.ErrInvalidCredential
	}
	if len(required) == 0 || id.IsAdmin() {
		return nil
	}
	for _, r := range required {
		if id.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("insufficient role")
}

// ExtractToken reads the bearer token from the Authorization header and
// falls back to the token cookie when the header is absent or is not a
// Bearer credential. Returns "" when neither yields a token.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
