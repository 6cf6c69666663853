package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yearbook-api/internal/config"
)

// PurposeRegistration scopes short-lived tokens issued after OTP
// verification; the completion endpoint rejects any other purpose.
const PurposeRegistration = "registration"

// Claims holds the session token payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RegistrationClaims holds the registration token payload. The email is
// the only trusted source of the verified address for the completion
// step; it is never taken from client input.
type RegistrationClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs.
type Provider struct {
	secret             []byte
	sessionExpiry      time.Duration
	registrationExpiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return &Provider{
		secret:             []byte(cfg.JWTSecret),
		sessionExpiry:      time.Duration(cfg.JWTExpiryDays) * 24 * time.Hour,
		registrationExpiry: time.Duration(cfg.RegistrationTokenMinutes) * time.Minute,
	}, nil
}

// Sign issues a session token carrying the user identity.
func (p *Provider) Sign(userID, email, role string) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.sessionExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Verify parses and validates a session token.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, p.keyFunc)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// SignRegistration issues a registration token for a verified email,
// bounding the completion window independently of the OTP's TTL.
func (p *Provider) SignRegistration(email string) (string, error) {
	claims := RegistrationClaims{
		Email:   email,
		Purpose: PurposeRegistration,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.registrationExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// VerifyRegistration validates a registration token and returns the
// verified email. Signature-valid tokens issued for any other purpose
// are rejected.
func (p *Provider) VerifyRegistration(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &RegistrationClaims{}, p.keyFunc)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*RegistrationClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	if claims.Purpose != PurposeRegistration {
		return "", fmt.Errorf("token purpose %q is not valid for registration", claims.Purpose)
	}
	return claims.Email, nil
}

func (p *Provider) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return p.secret, nil
}
