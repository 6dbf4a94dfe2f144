package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coursemart/internal/apperr"
)

type sampleRequest struct {
	Title string `json:"title" validate:"required,max=10"`
	Email string `json:"email" validate:"omitempty,email"`
	Level string `json:"level" validate:"omitempty,oneof=BEGINNER ADVANCED"`
	Price int64  `json:"priceCents" validate:"min=0"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"title":"Go","priceCents":100}`, ""},
		{"empty body", ``, "request body is required"},
		{"malformed", `{"title":`, "malformed JSON body"},
		{"missing title", `{"priceCents":1}`, "title is required"},
		{"title too long", `{"title":"` + strings.Repeat("a", 11) + `"}`, "title must be at most 10 characters"},
		{"bad email", `{"title":"Go","email":"nope"}`, "email must be a valid email address"},
		{"bad level", `{"title":"Go","level":"EXPERT"}`, "level must be one of: BEGINNER ADVANCED"},
		{"negative price", `{"title":"Go","priceCents":-1}`, "priceCents must be at least 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst sampleRequest
			err := decode(httptest.NewRecorder(), req, &dst)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrBadRequest) {
				t.Fatalf("got %v, want BadRequest", err)
			}
			if got := apperr.MessageOf(err); got != tt.wantErr {
				t.Errorf("message: got %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestDecodeRejectsOversizedBody(t *testing.T) {
	body := `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst sampleRequest
	err := decode(httptest.NewRecorder(), req, &dst)
	if apperr.MessageOf(err) != "request body is too large" {
		t.Errorf("got %v", err)
	}
}
