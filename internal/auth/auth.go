// Package auth implements the identity gate for attune.
//
// Every request carries a bearer credential that is exchanged with an
// external identity provider for a verified subject identifier. The core
// never trusts anything inside the token itself for authorization; the
// provider's answer is the only source of truth. Decoded-but-unverified
// claims are logged for diagnostics only (see claims.go).
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/attuneapp/attune/internal/log"
)

// ErrUnauthorized indicates a missing, malformed, or rejected credential.
var ErrUnauthorized = errors.New("unauthorized")

// maxVerifyResponseSize bounds the identity provider response body (64 KB).
const maxVerifyResponseSize = 64 * 1024

// defaultVerifyTimeout bounds a single verification round trip.
const defaultVerifyTimeout = 10 * time.Second

// Verifier exchanges a bearer token for a verified subject identifier.
type Verifier interface {
	Verify(ctx context.Context, token string) (subject string, err error)
}

// subjectKey uses an empty struct for a zero-allocation context key.
type subjectKey struct{}

// ContextWithSubject stores the verified subject in the context.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext retrieves the verified subject from the context.
// Returns the empty string when the request was not authenticated.
// Callers must treat that as "not signed in", never as a valid identity.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey{}).(string)
	return subject
}

// BearerToken extracts the credential from an Authorization header value.
// Fails closed on a missing header or a missing "Bearer " prefix.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing Authorization header", ErrUnauthorized)
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", fmt.Errorf("%w: malformed Authorization header", ErrUnauthorized)
	}
	return token, nil
}

// HTTPVerifier verifies tokens against an external identity provider's
// verification endpoint. The endpoint receives the token in an
// Authorization header and answers 200 with {"sub": "..."} on success.
type HTTPVerifier struct {
	verifyURL string
	client    *http.Client
	logger    log.Logger
}

// NewHTTPVerifier creates a verifier for the given endpoint.
func NewHTTPVerifier(verifyURL string, logger log.Logger) (*HTTPVerifier, error) {
	if verifyURL == "" {
		return nil, fmt.Errorf("verify URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &HTTPVerifier{
		verifyURL: verifyURL,
		client:    &http.Client{Timeout: defaultVerifyTimeout},
		logger:    logger,
	}, nil
}

// Verify exchanges the token with the identity provider.
// On rejection it logs the token's unverified claims as a diagnostic side
// channel; they never influence the returned error or any authorization.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, nil)
	if err != nil {
		return "", fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerifyResponseSize))
	if err != nil {
		return "", fmt.Errorf("reading verify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		v.logRejectedToken(token, resp.StatusCode)
		return "", fmt.Errorf("%w: identity provider returned %d", ErrUnauthorized, resp.StatusCode)
	}

	var verified struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(body, &verified); err != nil {
		return "", fmt.Errorf("parsing verify response: %w", err)
	}
	if verified.Sub == "" {
		return "", fmt.Errorf("%w: identity provider returned empty subject", ErrUnauthorized)
	}

	return verified.Sub, nil
}

// logRejectedToken logs decoded-but-unverified claims when verification
// fails. Diagnostics only: the claims are untrusted and must never feed
// back into control flow.
func (v *HTTPVerifier) logRejectedToken(token string, status int) {
	claims, err := UnverifiedClaims(token)
	if err != nil {
		v.logger.Debug("token rejected, claims undecodable", "status", status, "error", err)
		return
	}
	v.logger.Debug("token rejected by identity provider",
		"status", status,
		"unverified_sub", claims.Subject,
		"unverified_iss", claims.Issuer,
		"unverified_exp", claims.Expiry,
	)
}

// StaticVerifier returns a fixed subject for every token. It backs the
// development bypass and test setups; production wiring never creates one.
type StaticVerifier struct {
	Subject string
}

// Verify returns the fixed subject.
func (s *StaticVerifier) Verify(_ context.Context, _ string) (string, error) {
	return s.Subject, nil
}
