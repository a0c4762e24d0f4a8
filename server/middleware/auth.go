package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// AuthConfig configures the bearer token authentication middleware.
type AuthConfig struct {
	// TokenValidator validates a token string and returns the claims.
	TokenValidator func(token string) (map[string]interface{}, error)
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

type claimsKey struct{}

// Auth returns middleware that validates Bearer tokens with the configured
// TokenValidator. A missing or invalid token ends the request with a bare
// 401; ErrorResponse turns that into the Unauthorized envelope.
// Validated claims are available through ClaimsFromContext.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.SkipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || cfg.TokenValidator == nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			claims, err := cfg.TokenValidator(token)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// RequireClaim returns middleware that ends the request with a bare 403
// unless the authenticated claims carry key with one of the given values.
// It must run inside Auth.
func RequireClaim(key string, values ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if !claimMatches(claims[key], values) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the claims stored by Auth.
func ClaimsFromContext(ctx context.Context) (map[string]interface{}, bool) {
	claims, ok := ctx.Value(claimsKey{}).(map[string]interface{})
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// claimMatches accepts a single value or a list of values, as role claims
// come in both shapes.
func claimMatches(claim interface{}, values []string) bool {
	switch v := claim.(type) {
	case nil:
		return false
	case []interface{}:
		for _, item := range v {
			if claimMatches(item, values) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if claimMatches(item, values) {
				return true
			}
		}
		return false
	default:
		s := fmt.Sprintf("%v", v)
		for _, want := range values {
			if s == want {
				return true
			}
		}
		return false
	}
}
