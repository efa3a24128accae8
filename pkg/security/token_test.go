package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newManager(clock *fakeClock) *TokenManager {
	return NewTokenManager(TokenConfig{Secret: "test-secret", Issuer: "elts-test", TTL: time.Hour, Now: clock.Now})
}

func TestTokenIssueVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(clock)

	token, exp, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(time.Hour), exp)

	subject, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)
}

func TestTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: issued}
	m := newManager(clock)

	token, _, err := m.IssueWithTTL("user-1", 10*time.Second)
	require.NoError(t, err)

	clock.now = issued.Add(10*time.Second - time.Nanosecond)
	_, err = m.Verify(token)
	assert.NoError(t, err)

	clock.now = issued.Add(10 * time.Second)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrExpiredToken)

	clock.now = issued.Add(time.Hour)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenSubSecondIssuanceStillExact(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 700_000_000, time.UTC)
	clock := &fakeClock{now: issued}
	m := newManager(clock)

	token, exp, err := m.IssueWithTTL("user-1", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, issued.Truncate(time.Second).Add(5*time.Second), exp)

	clock.now = exp.Add(-time.Nanosecond)
	_, err = m.Verify(token)
	assert.NoError(t, err)
}

func TestTokenZeroTTLIsImmediatelyInvalid(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(clock)

	token, _, err := m.IssueWithTTL("user-1", 0)
	require.NoError(t, err)
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongKey(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	token, _, err := newManager(clock).Issue("user-1")
	require.NoError(t, err)

	other := NewTokenManager(TokenConfig{Secret: "other-secret", Issuer: "elts-test", Now: clock.Now})
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenTampered(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(clock)
	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	flip := func(s string, i int) string {
		b := []byte(s)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		return string(b)
	}

	for _, tampered := range []string{
		parts[0] + "." + flip(parts[1], 3) + "." + parts[2],
		parts[0] + "." + parts[1] + "." + flip(parts[2], 0),
		flip(parts[0], 1) + "." + parts[1] + "." + parts[2],
	} {
		_, err := m.Verify(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestTokenRejectsMalformedAndUnsigned(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(clock)

	for _, raw := range []string{"", "not-a-token", "a.b.c", "a.b"} {
		_, err := m.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "elts-test",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRequiresExpiryAndIssuer(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newManager(clock)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1", Issuer: "elts-test"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = m.Verify(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenDefaultTTL(t *testing.T) {
	m := NewTokenManager(TokenConfig{Secret: "s"})
	assert.Equal(t, DefaultTokenTTL, m.TTL())
}
