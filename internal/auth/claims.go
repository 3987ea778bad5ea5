package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Claims holds the subset of JWT payload fields logged for diagnostics.
// These values are decoded WITHOUT signature verification and must never
// be used for authorization decisions.
type Claims struct {
	Subject string `json:"sub"`
	Issuer  string `json:"iss"`
	Expiry  int64  `json:"exp"`
}

// UnverifiedClaims decodes the payload segment of a JWT without verifying
// its signature. Purely an observability aid for rejected tokens.
func UnverifiedClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("not a JWT: expected 3 segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decoding payload segment: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	return &claims, nil
}
