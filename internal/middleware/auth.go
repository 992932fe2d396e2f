package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const (
	ClientKey contextKey = "client"
	APIKeyKey contextKey = "api_key"
)

// open paths bypass auth and rate limiting
var openPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/live":    true,
	"/metrics": true,
}

func isOpenPath(p string) bool { return openPaths[p] }

// APIKeyAuth validates the API key from the Authorization or X-API-Key header. keys maps a
// client name to its key; an empty map disables auth.
func APIKeyAuth(keys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isOpenPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			apiKey, ok := requestKey(r)
			if !ok {
				http.Error(w, "missing Authorization or X-API-Key header", http.StatusUnauthorized)
				return
			}
			if apiKey == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			// constant-time comparison
			var client string
			for name, key := range keys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					client = name
					break
				}
			}
			if client == "" {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClientKey, client)
			ctx = context.WithValue(ctx, APIKeyKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestKey prefers X-API-Key, then "Bearer <key>" or a bare "<key>" in Authorization.
func requestKey(r *http.Request) (string, bool) {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return strings.TrimSpace(k), true
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")), true
}

// GetClientFromContext returns the authenticated client name, if any.
func GetClientFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(ClientKey).(string); ok {
		return c
	}
	return ""
}
