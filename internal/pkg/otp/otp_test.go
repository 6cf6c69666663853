package otp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_LengthAndDigits(t *testing.T) {
	for _, length := range []int{1, 6, 8} {
		code, err := Generate(length)
		require.NoError(t, err)
		assert.Len(t, code, length)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non-digit %q in %q", r, code)
		}
	}
}

func TestGenerate_DefaultLength(t *testing.T) {
	code, err := Generate(0)
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
}

func TestHashVerify_RoundTrip(t *testing.T) {
	for _, code := range []string{"000000", "123456", "999999", "042"} {
		stored, err := Hash(code)
		require.NoError(t, err)
		assert.True(t, strings.Contains(stored, ":"))
		assert.True(t, Verify(code, stored), "code %q must verify against its own hash", code)
	}
}

func TestVerify_WrongCode(t *testing.T) {
	stored, err := Hash("123456")
	require.NoError(t, err)
	assert.False(t, Verify("123457", stored))
	assert.False(t, Verify("", stored))
}

func TestHash_FreshSaltPerCall(t *testing.T) {
	a, err := Hash("123456")
	require.NoError(t, err)
	b, err := Hash("123456")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_MalformedStored(t *testing.T) {
	for _, stored := range []string{
		"",
		"nocolon",
		":",
		"salt:",
		":hash",
		"salt:not-hex",
		"salt:abcd", // wrong digest length
	} {
		assert.False(t, Verify("123456", stored), "stored %q must not verify", stored)
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsExpired(time.Time{}, now), "missing expiry is fail-closed")
	assert.True(t, IsExpired(now, now), "expiry == now counts as expired")
	assert.True(t, IsExpired(now.Add(-time.Second), now))
	assert.False(t, IsExpired(now.Add(time.Second), now))
}

func TestNewUpdatePayload(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := NewUpdatePayload("123456", 10*time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), p.ExpiresAt)
	assert.True(t, Verify("123456", p.OTPHash))
}
