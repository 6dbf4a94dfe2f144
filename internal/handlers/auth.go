// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"coursemart/internal/apperr"
	"coursemart/internal/auth"
	"coursemart/internal/identity"
	"coursemart/internal/models"
	"coursemart/internal/store"
)

// resetMessage is returned by the password reset endpoint whether or not
// the account exists.
const resetMessage = "if an account exists for that email, a reset link has been sent"

var (
	errAlreadyRegistered = apperr.Conflict("user already registered")
	errEmailTaken        = apperr.Conflict("email address is already used by another account")
)

// CredentialVerifier runs the identity-provider step of authentication.
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Claims, error)
}

// Auth groups the account endpoints under /auth.
type Auth struct {
	verifier CredentialVerifier
	users    UserRepository
	resets   identity.PasswordResetSender // nil disables reset emails
}

// NewAuth creates a new Auth handler group. resets may be nil.
func NewAuth(verifier CredentialVerifier, users UserRepository, resets identity.PasswordResetSender) *Auth {
	return &Auth{verifier: verifier, users: users, resets: resets}
}

type registerRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,max=100"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

type meResponse struct {
	*auth.Identity
	User *models.User `json:"user"`
}

// Register creates the local account for a verified identity. It fails
// with Conflict if the account already exists.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := a.verifier.Verify(ctx, auth.ExtractToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req registerRequest
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	existing, err := a.users.FindByFirebaseUID(ctx, claims.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing != nil {
		writeError(w, r, errAlreadyRegistered)
		return
	}
	if claims.Email == "" {
		writeError(w, r, apperr.BadRequest("identity has no email address"))
		return
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = displayNameFor(claims)
	}

	user, err := a.users.Create(ctx, claims.UID, claims.Email, name, models.RoleUser)
	if errors.Is(err, store.ErrDuplicate) {
		existing, err = a.users.FindByFirebaseUID(ctx, claims.UID)
		switch {
		case err != nil:
			writeError(w, r, err)
		case existing != nil:
			writeError(w, r, errAlreadyRegistered)
		default:
			writeError(w, r, errEmailTaken)
		}
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	writeJSON(w, http.StatusCreated, user)
}

// Login syncs the local account with the identity provider on sign-in:
// the account is created on first login and its email refreshed when the
// provider reports a new one.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := a.verifier.Verify(ctx, auth.ExtractToken(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.FindByFirebaseUID(ctx, claims.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if user == nil {
		if claims.Email == "" {
			writeError(w, r, apperr.BadRequest("identity has no email address"))
			return
		}
		created, err := a.users.Create(ctx, claims.UID, claims.Email, displayNameFor(claims), models.RoleUser)
		if err == nil {
			slog.Info("user created on first login", "user_id", created.ID)
			writeJSON(w, http.StatusCreated, created)
			return
		}
		if !errors.Is(err, store.ErrDuplicate) {
			writeError(w, r, err)
			return
		}
		// A concurrent first login may have created the account.
		user, err = a.users.FindByFirebaseUID(ctx, claims.UID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if user == nil {
			writeError(w, r, errEmailTaken)
			return
		}
	}

	if claims.Email != "" && !strings.EqualFold(claims.Email, user.Email) {
		err := a.users.UpdateEmail(ctx, user.ID, claims.Email)
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, r, errEmailTaken)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		user.Email = claims.Email
	}

	writeJSON(w, http.StatusOK, user)
}

// Me returns the caller's identity and profile.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	id, err := identityOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.users.FindByID(r.Context(), id.DBID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, apperr.ErrUserNotRegistered)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{Identity: id, User: user})
}

// PasswordReset asks the identity provider to email a reset link. The
// response is identical whether or not the account exists.
func (a *Auth) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	user, err := a.users.FindByEmail(ctx, req.Email)
	switch {
	case err != nil:
		slog.Error("password reset lookup failed", "error", err)
	case user == nil:
		slog.Debug("password reset for unknown email")
	case a.resets == nil:
		slog.Warn("password reset requested but no identity provider API key is configured")
	default:
		if err := a.resets.SendPasswordReset(ctx, user.Email); err != nil {
			slog.Error("send password reset failed", "user_id", user.ID, "error", err)
		}
	}

	writeMessage(w, http.StatusOK, resetMessage)
}

// displayNameFor picks a display name from the provider's claims.
func displayNameFor(c *identity.Claims) string {
	if n := strings.TrimSpace(c.Name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(c.Email, "@")
	return local
}
