package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the access token lifetime used when none is configured.
const DefaultTokenTTL = 30 * time.Minute

var (
	// ErrInvalidToken is returned for every token that must not be accepted.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken additionally marks tokens rejected because exp has passed.
	ErrExpiredToken = errors.New("token expired")
)

// TokenConfig configures a TokenManager.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager. A zero TTL selects DefaultTokenTTL.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: now}
}

// TTL returns the default token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for subject with the default lifetime.
func (m *TokenManager) Issue(subject string) (string, time.Time, error) {
	return m.IssueWithTTL(subject, m.ttl)
}

// IssueWithTTL signs a token for subject that expires ttl after issuance.
// Issuance time is truncated to whole seconds so exp is exactly iat+ttl.
func (m *TokenManager) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	if ttl < 0 {
		ttl = 0
	}
	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates signature, algorithm and expiry and returns the subject.
// A token is rejected at or after its exp instant.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %w", ErrInvalidToken, ErrExpiredToken)
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
