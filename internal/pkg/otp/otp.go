// Package otp generates, hashes and verifies numeric one-time passcodes.
//
// Codes are never stored raw: Hash salts each code with a fresh random
// value and stores "salt:hash". Verify recomputes the keyed hash and
// compares in constant time, so a compromised store reveals no active
// codes and verification leaks no timing signal.
package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const DefaultLength = 6

const saltBytes = 16

// Generate returns a fixed-length decimal code, each digit drawn
// independently from crypto/rand. Leading zeros are allowed.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Hash salts the code with a fresh random value and returns "salt:hash",
// where hash is HMAC-SHA256 keyed by the hex salt.
func Hash(code string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate otp salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)
	return saltHex + ":" + digest(code, saltHex), nil
}

// Verify recomputes the hash for candidate using the salt extracted from
// stored and compares in constant time. It returns false, never an
// error, on malformed stored values.
func Verify(candidate, stored string) bool {
	salt, wantHex, ok := strings.Cut(stored, ":")
	if !ok || salt == "" || wantHex == "" {
		return false
	}
	want, err := hex.DecodeString(wantHex)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(digest(candidate, salt))
	if err != nil || len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

// IsExpired reports whether the challenge is past its expiry at now.
// A zero expiry counts as already expired.
func IsExpired(expiresAt, now time.Time) bool {
	if expiresAt.IsZero() {
		return true
	}
	return !now.Before(expiresAt)
}

// UpdatePayload bundles the hash and computed expiry for a single
// upsert of the verification row.
type UpdatePayload struct {
	OTPHash   string
	ExpiresAt time.Time
}

// NewUpdatePayload hashes code and stamps the expiry at now+ttl.
func NewUpdatePayload(code string, ttl time.Duration, now time.Time) (UpdatePayload, error) {
	h, err := Hash(code)
	if err != nil {
		return UpdatePayload{}, err
	}
	return UpdatePayload{OTPHash: h, ExpiresAt: now.Add(ttl)}, nil
}

func digest(code, saltHex string) string {
	mac := hmac.New(sha256.New, []byte(saltHex))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}
