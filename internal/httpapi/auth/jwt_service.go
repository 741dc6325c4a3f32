// Package auth verifies bearer tokens presented by upload clients. Token
// issuance belongs to an identity provider outside this service; the JWT
// service here only parses and validates tokens minted elsewhere.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors for JWT verification.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// Claims is the subset of a presented token's claims this service relies on.
// Subject carries the user ID; the service treats every other claim as
// opaque.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the caller's identity, the token's Subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// JWTConfig holds configuration for JWT verification.
type JWTConfig struct {
	// Secret is the HMAC verification key. Must be at least 32 characters.
	Secret string

	// Issuer, when set, is checked against the token's iss claim.
	Issuer string
}

// JWTService verifies bearer tokens.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT verification service.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	return &JWTService{config: config}, nil
}

// ValidateToken verifies tokenString's signature and expiry and returns its
// claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
