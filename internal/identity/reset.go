// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultToolkitURL is the Identity Toolkit REST base used by Firebase Auth.
const DefaultToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// PasswordResetSender asks the identity provider to email a reset link.
type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email string) error
}

// FirebaseResetSender calls the accounts:sendOobCode endpoint.
type FirebaseResetSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFirebaseResetSender returns a sender using the project's web API key.
// An empty baseURL selects DefaultToolkitURL.
func NewFirebaseResetSender(apiKey, baseURL string) *FirebaseResetSender {
	if baseURL == "" {
		baseURL = DefaultToolkitURL
	}
	return &FirebaseResetSender{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

// SendPasswordReset requests a PASSWORD_RESET email for the address.
func (s *FirebaseResetSender) SendPasswordReset(ctx context.Context, email string) error {
	if s.apiKey == "" {
		return fmt.Errorf("password reset: firebase api key not configured")
	}

	payload, err := json.Marshal(oobRequest{RequestType: "PASSWORD_RESET", Email: email})
	if err != nil {
		return fmt.Errorf("password reset marshal: %w", err)
	}

	url := s.baseURL + "/accounts:sendOobCode?key=" + s.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("password reset request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("password reset http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("password reset API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
