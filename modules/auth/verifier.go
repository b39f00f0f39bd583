// Package auth signs the site administrator in and out using a
// browser-supplied identity assertion verified by an external service,
// and stores the resulting principal in the session.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrAssertionRejected is returned when the verification service
	// does not vouch for the assertion.
	ErrAssertionRejected = errors.New("auth.assertion_rejected")
	// ErrVerifierUnavailable is returned when the verification service
	// cannot be reached or answers with garbage.
	ErrVerifierUnavailable = errors.New("auth.verifier_unavailable")
)

// Verifier exchanges an identity assertion for the email address it
// vouches for.
type Verifier interface {
	Verify(ctx context.Context, assertion string) (string, error)
}

// HTTPVerifier verifies assertions against a remote verification
// endpoint using a form POST.
type HTTPVerifier struct {
	endpoint string
	audience string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier for the given endpoint. audience
// must be the scheme://host[:port] the assertion was issued for.
func NewHTTPVerifier(endpoint, audience string) *HTTPVerifier {
	return &HTTPVerifier{
		endpoint: endpoint,
		audience: audience,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type verifierResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Verify posts the assertion and audience to the verification endpoint
// and returns the vouched email on success.
func (v *HTTPVerifier) Verify(ctx context.Context, assertion string) (string, error) {
	form := url.Values{
		"assertion": {assertion},
		"audience":  {v.audience},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Join(ErrVerifierUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", errors.Join(ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrVerifierUnavailable, resp.StatusCode)
	}

	var body verifierResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Join(ErrVerifierUnavailable, err)
	}
	if body.Status != "okay" || body.Email == "" {
		if body.Reason != "" {
			return "", fmt.Errorf("%w: %s", ErrAssertionRejected, body.Reason)
		}
		return "", ErrAssertionRejected
	}
	return body.Email, nil
}
