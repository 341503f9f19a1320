// Package auth validates inbound bearer tokens against the configured
// identity provider and exposes the caller's identity to handlers.
// Token issuance itself is an external collaborator; the gateway only
// verifies and forwards.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every validation failure: bad signature,
// expired, wrong issuer/audience, or missing required scope.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is the validated caller extracted from a bearer token.
type Identity struct {
	UserID   string
	UserName string
	Scopes   []string
	// Raw is the compact token as received, kept so the gateway can
	// propagate the caller's credential to backends unchanged.
	Raw string
}

// HasScope reports whether the token carries the given scope.
func (id Identity) HasScope(scope string) bool {
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verifier checks bearer tokens. Implemented by HMACVerifier; faked in
// handler tests.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Identity, error)
}

// HMACVerifier validates HS256 tokens with a shared secret plus
// issuer/audience checks. It is immutable after construction and safe
// for concurrent use.
type HMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewHMACVerifier builds a verifier for the given issuer, audience and
// shared signing secret.
func NewHMACVerifier(issuer, audience, secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

type claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

// Verify parses and validates raw, returning the caller identity.
func (v *HMACVerifier) Verify(_ context.Context, raw string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Identity{
		UserID:   c.Subject,
		UserName: c.Name,
		Scopes:   strings.Fields(c.Scope),
		Raw:      raw,
	}, nil
}
