// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package identity talks to the external identity provider (Firebase
// Authentication). It verifies bearer ID tokens and triggers
// provider-side account emails; it knows nothing about local users.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"coursemart/internal/apperr"
)

const (
	// firebaseIssuerPrefix is the token issuer for a Firebase project.
	firebaseIssuerPrefix = "https://securetoken.google.com/"

	// firebaseJWKSURL serves the public keys Firebase signs ID tokens with.
	firebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// Claims are the identity attributes extracted from a verified token.
type Claims struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier checks a raw bearer token against the identity provider.
// Any failure (malformed, expired, wrong audience, bad signature) is
// reported as apperr.ErrInvalidCredential.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// tokenClaims mirrors the JSON payload of a Firebase ID token.
type tokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OIDCVerifier verifies ID tokens with go-oidc.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewFirebaseVerifier builds a verifier for the given Firebase project.
// Keys are fetched lazily from Google's JWKS endpoint and cached by
// go-oidc. When issuerURL is non-empty the issuer is discovered through
// its OpenID configuration instead, which is how local emulators and
// other OIDC providers are plugged in.
func NewFirebaseVerifier(ctx context.Context, projectID, issuerURL string) (*OIDCVerifier, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase verifier: project id is required")
	}

	cfg := &oidc.Config{ClientID: projectID}

	if issuerURL != "" {
		provider, err := oidc.NewProvider(ctx, issuerURL)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery %s: %w", issuerURL, err)
		}
		return &OIDCVerifier{verifier: provider.Verifier(cfg)}, nil
	}

	keySet := oidc.NewRemoteKeySet(ctx, firebaseJWKSURL)
	return NewVerifierWithKeySet(firebaseIssuerPrefix+projectID, projectID, keySet, nil), nil
}

// NewVerifierWithKeySet builds a verifier from an explicit key set. now
// overrides the clock used for expiry checks and may be nil.
func NewVerifierWithKeySet(issuer, audience string, keySet oidc.KeySet, now func() time.Time) *OIDCVerifier {
	cfg := &oidc.Config{ClientID: audience, Now: now}
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keySet, cfg)}
}

// Verify validates rawToken and returns its identity claims.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, apperr.ErrInvalidCredential
	}

	tok, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, apperr.InvalidCredential(err)
	}

	var tc tokenClaims
	if err := tok.Claims(&tc); err != nil {
		return nil, apperr.InvalidCredential(fmt.Errorf("decode claims: %w", err))
	}
	if tok.Subject == "" {
		return nil, apperr.InvalidCredential(fmt.Errorf("token has no subject"))
	}

	return &Claims{
		UID:           tok.Subject,
		Email:         tc.Email,
		EmailVerified: tc.EmailVerified,
		Name:          tc.Name,
	}, nil
}
