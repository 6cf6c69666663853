package jwtinfra

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yearbook-api/internal/config"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{
		JWTSecret:                "test-secret",
		JWTExpiryDays:            7,
		RegistrationTokenMinutes: 15,
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RequiresSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{})
	require.Error(t, err)
}

func TestSignVerify_Session(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.Sign("U1", "jane@iut-dhaka.edu", "student")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.UserID)
	assert.Equal(t, "jane@iut-dhaka.edu", claims.Email)
	assert.Equal(t, "student", claims.Role)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	p := newTestProvider(t)
	_, err := p.Verify("not-a-token")
	require.Error(t, err)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	p := newTestProvider(t)
	other, err := NewProvider(&config.Config{JWTSecret: "other-secret", JWTExpiryDays: 7, RegistrationTokenMinutes: 15})
	require.NoError(t, err)

	tok, err := other.Sign("U1", "jane@iut-dhaka.edu", "student")
	require.NoError(t, err)
	_, err = p.Verify(tok)
	require.Error(t, err)
}

func TestRegistrationToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.SignRegistration("jane@iut-dhaka.edu")
	require.NoError(t, err)

	email, err := p.VerifyRegistration(tok)
	require.NoError(t, err)
	assert.Equal(t, "jane@iut-dhaka.edu", email)
}

func TestVerifyRegistration_RejectsWrongPurpose(t *testing.T) {
	p := newTestProvider(t)

	// Signature-valid token with a different purpose claim.
	claims := RegistrationClaims{
		Email:   "jane@iut-dhaka.edu",
		Purpose: "password-reset",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = p.VerifyRegistration(tok)
	require.Error(t, err)
}

func TestVerifyRegistration_RejectsSessionToken(t *testing.T) {
	p := newTestProvider(t)

	tok, err := p.Sign("U1", "jane@iut-dhaka.edu", "student")
	require.NoError(t, err)
	_, err = p.VerifyRegistration(tok)
	require.Error(t, err, "session tokens carry no registration purpose")
}

func TestVerifyRegistration_RejectsExpired(t *testing.T) {
	claims := RegistrationClaims{
		Email:   "jane@iut-dhaka.edu",
		Purpose: PurposeRegistration,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	p := newTestProvider(t)
	_, err = p.VerifyRegistration(tok)
	require.Error(t, err)
}
