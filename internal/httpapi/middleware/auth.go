// Package middleware provides the chi-compatible HTTP middleware stack:
// bearer-token verification, per-user rate limiting, and streaming-upload
// request handling.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/reelverse/upload-service/internal/httpapi/auth"
	"github.com/reelverse/upload-service/internal/httpapi/problem"
)

type contextKey int

const claimsContextKey contextKey = iota

// GetClaimsFromContext returns the verified claims attached by JWTAuth or
// OptionalJWTAuth, or nil if none are present.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}

	return header[len(prefix):], true
}

// JWTAuth requires a valid bearer token and attaches its claims to the
// request context. Missing or invalid tokens get a 401 problem response.
func JWTAuth(svc *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				problem.Unauthorized(w, "missing bearer token")
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				problem.Unauthorized(w, "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWTAuth attaches claims to the context when a valid bearer token is
// present, but never rejects the request when one is absent or invalid.
func OptionalJWTAuth(svc *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := svc.ValidateToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
