// Package auth issues and verifies HS256 bearer tokens and exposes the
// authenticated subject to handlers through the request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gusttavosants/StarWars/pkg/apperr"
)

// DefaultExpiration is used when Config.Expiration is not set.
const DefaultExpiration = 24 * time.Hour

// Config configures a JWTManager.
type Config struct {
	// Secret signs and verifies tokens (HMAC-SHA256)
	Secret string

	// Expiration is the lifetime of issued tokens
	Expiration time.Duration
}

// Claims carried by issued tokens. The username is the sub claim.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager handles token creation and validation.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

// NewJWTManager creates a manager. An empty secret is an error.
func NewJWTManager(cfg Config) (*JWTManager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = DefaultExpiration
	}
	return &JWTManager{
		secret:  []byte(cfg.Secret),
		timeout: cfg.Expiration,
		now:     time.Now,
	}, nil
}

// CreateToken signs a token for subject valid for the configured
// expiration.
func (m *JWTManager) CreateToken(subject string) (string, error) {
	return m.CreateTokenWithExpiry(subject, m.timeout)
}

// CreateTokenWithExpiry signs a token for subject valid for ttl.
func (m *JWTManager) CreateTokenWithExpiry(subject string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature, algorithm and expiry and returns the
// claims. Expired tokens yield apperr expired_token; anything else
// invalid yields apperr invalid_token.
func (m *JWTManager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ExpiredToken(err)
		}
		return nil, apperr.InvalidToken("invalid or expired token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperr.InvalidToken("invalid token claims", nil)
	}
	return claims, nil
}

// SubjectFromToken verifies tokenString and returns its sub claim. A
// token without a subject is invalid.
func (m *JWTManager) SubjectFromToken(tokenString string) (string, error) {
	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", apperr.InvalidToken("token has no subject", nil)
	}
	return claims.Subject, nil
}
