package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "http://localhost:5009"
	testAudience = "api"
	testSecret   = "test-secret"
)

func signToken(t *testing.T, secret string, mutate func(jwt.MapClaims)) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"sub":   "user-1",
		"name":  "Jamie",
		"scope": "api openid",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(claims)
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestVerify_ValidToken(t *testing.T) {
	v := NewHMACVerifier(testIssuer, testAudience, testSecret)

	raw := signToken(t, testSecret, nil)
	id, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "Jamie", id.UserName)
	assert.True(t, id.HasScope("api"))
	assert.True(t, id.HasScope("openid"))
	assert.False(t, id.HasScope("admin"))
	assert.Equal(t, raw, id.Raw)
}

func TestVerify_WrongSecret(t *testing.T) {
	v := NewHMACVerifier(testIssuer, testAudience, testSecret)

	_, err := v.Verify(context.Background(), signToken(t, "other-secret", nil))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	v := NewHMACVerifier(testIssuer, testAudience, testSecret)

	raw := signToken(t, testSecret, func(c jwt.MapClaims) {
		c["exp"] = time.Now().Add(-time.Hour).Unix()
	})
	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	v := NewHMACVerifier(testIssuer, testAudience, testSecret)

	raw := signToken(t, testSecret, func(c jwt.MapClaims) {
		c["iss"] = "http://evil.example"
	})
	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongAudience(t *testing.T) {
	v := NewHMACVerifier(testIssuer, testAudience, testSecret)

	raw := signToken(t, testSecret, func(c jwt.MapClaims) {
		c["aud"] = "other"
	})
	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_MissingSubject(t *testing.T) {
	v := NewHMACVerifier(testIssuer, testAudience, testSecret)

	raw := signToken(t, testSecret, func(c jwt.MapClaims) {
		delete(c, "sub")
	})
	_, err := v.Verify(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	v := NewHMACVerifier(testIssuer, testAudience, testSecret)

	_, err := v.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
