// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"coursemart/internal/apperr"
	"coursemart/internal/identity"
	"coursemart/internal/models"
)

// stubVerifier accepts a fixed set of tokens.
type stubVerifier struct {
	tokens map[string]*identity.Claims
	calls  int
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*identity.Claims, error) {
	s.calls++
	c, ok := s.tokens[token]
	if !ok {
		return nil, apperr.InvalidCredential(errors.New("unknown token"))
	}
	return c, nil
}

// stubUsers is an in-memory UserLookup keyed by firebase uid.
type stubUsers struct {
	byUID map[string]*models.User
	err   error
}

func (s *stubUsers) FindByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byUID[uid], nil
}

func newTestGate() (*Gate, *models.User) {
	u := &models.User{ID: uuid.New(), FirebaseUID: "uid-1", Email: "u@x.io", Role: models.RoleInstructor}
	v := &stubVerifier{tokens: map[string]*identity.Claims{
		"good":     {UID: "uid-1", Email: "u@x.io", EmailVerified: true, Name: "U"},
		"stranger": {UID: "uid-unknown", Email: "s@x.io"},
	}}
	users := &stubUsers{byUID: map[string]*models.User{"uid-1": u}}
	return NewGate(v, users), u
}

func TestAuthenticate(t *testing.T) {
	gate, user := newTestGate()

	t.Run("missing token", func(t *testing.T) {
		_, err := gate.Authenticate(context.Background(), "")
		if !errors.Is(err, apperr.ErrInvalidCredential) {
			t.Errorf("got %v, want InvalidCredential", err)
		}
	})

	t.Run("rejected token", func(t *testing.T) {
		_, err := gate.Authenticate(context.Background(), "forged")
		if !errors.Is(err, apperr.ErrInvalidCredential) {
			t.Errorf("got %v, want InvalidCredential", err)
		}
	})

	t.Run("valid token without local user", func(t *testing.T) {
		_, err := gate.Authenticate(context.Background(), "stranger")
		if !errors.Is(err, apperr.ErrUserNotRegistered) {
			t.Errorf("got %v, want UserNotRegistered", err)
		}
	})

	t.Run("valid token with local user", func(t *testing.T) {
		id, err := gate.Authenticate(context.Background(), "good")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if id.DBID != user.ID {
			t.Errorf("DBID: got %s, want %s", id.DBID, user.ID)
		}
		if id.Role != models.RoleInstructor {
			t.Errorf("Role: got %q", id.Role)
		}
		if id.UID != "uid-1" || !id.EmailVerified || id.Name != "U" {
			t.Errorf("claims not copied: %+v", id)
		}
	})
}

func TestAuthenticateLookupError(t *testing.T) {
	v := &stubVerifier{tokens: map[string]*identity.Claims{"good": {UID: "uid-1"}}}
	gate := NewGate(v, &stubUsers{err: errors.New("db down")})

	_, err := gate.Authenticate(context.Background(), "good")
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.StatusOf(err) != http.StatusInternalServerError {
		t.Errorf("lookup failure should be internal, got status %d", apperr.StatusOf(err))
	}
}

func TestAuthenticateReverifiesEveryCall(t *testing.T) {
	gate, _ := newTestGate()
	v := gate.verifier.(*stubVerifier)

	for i := 0; i < 3; i++ {
		if _, err := gate.Authenticate(context.Background(), "good"); err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
	}
	if v.calls != 3 {
		t.Errorf("verifier calls: got %d, want 3", v.calls)
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		role     models.Role
		required []models.Role
		wantErr  bool
	}{
		{"no roles required", models.RoleUser, nil, false},
		{"role matches", models.RoleInstructor, []models.Role{models.RoleInstructor}, false},
		{"one of many", models.RoleUser, []models.Role{models.RoleInstructor, models.RoleUser}, false},
		{"role mismatch", models.RoleUser, []models.Role{models.RoleInstructor}, true},
		{"instructor on admin route", models.RoleInstructor, []models.Role{models.RoleAdmin}, true},
		{"admin bypasses instructor route", models.RoleAdmin, []models.Role{models.RoleInstructor}, false},
		{"admin bypasses user route", models.RoleAdmin, []models.Role{models.RoleUser}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(&Identity{Role: tt.role}, tt.required)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrForbidden) {
					t.Errorf("got %v, want Forbidden", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	if err := Authorize(nil, nil); !errors.Is(err, apperr.ErrInvalidCredential) {
		t.Errorf("nil identity: got %v, want InvalidCredential", err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer abc.def", "", "abc.def"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"header wins over cookie", "Bearer from-header", "from-cookie", "from-header"},
		{"cookie fallback", "", "from-cookie", "from-cookie"},
		{"non-bearer header falls back", "Basic dXNlcjpwYXNz", "from-cookie", "from-cookie"},
		{"empty bearer falls back", "Bearer ", "from-cookie", "from-cookie"},
		{"nothing", "", "", ""},
		{"basic only", "Basic dXNlcjpwYXNz", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}
			if got := ExtractToken(r); got != tt.want {
				t.Errorf("ExtractToken: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("expected nil identity on empty context")
	}
	id := &Identity{UID: "x", Role: models.RoleUser}
	ctx := WithIdentity(context.Background(), id)
	if FromContext(ctx) != id {
		t.Error("expected identity from context")
	}
}
