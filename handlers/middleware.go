package handlers

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/argon2"
)

const apiKeyPrefix = "pg_live_"

// APIKeyAuthMiddleware validates the storefront API key in the
// Authorization header. Keys are never stored or compared in plaintext: the
// presented key is argon2-hashed with the configured salt and compared
// against the configured digest in constant time.
func (api *API) APIKeyAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeAPIError(w, http.StatusUnauthorized, "missing-auth-header", "Your request should include an HTTP auth header.")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeAPIError(w, http.StatusUnauthorized, "invalid-auth", "Your HTTP auth header can't be processed.")
			return
		}

		apiKey := parts[1]
		if !strings.HasPrefix(apiKey, apiKeyPrefix) {
			writeAPIError(w, http.StatusUnauthorized, "invalid-api-key-prefix", "API key has an invalid prefix")
			return
		}

		if api.cfg.MerchantAPIKeyHash == "" || api.cfg.APIKeySalt == "" {
			writeAPIError(w, http.StatusServiceUnavailable, "api-key-auth-unconfigured", "API key authentication is not configured")
			return
		}

		secretKey := apiKey[len(apiKeyPrefix):]
		hashed := argon2.IDKey([]byte(secretKey), []byte(api.cfg.APIKeySalt), 1, 64*1024, 4, 32)
		hashedStr := base64.RawURLEncoding.EncodeToString(hashed)
		if subtle.ConstantTimeCompare([]byte(hashedStr), []byte(api.cfg.MerchantAPIKeyHash)) != 1 {
			writeAPIError(w, http.StatusUnauthorized, "no-matching-api-key",
				fmt.Sprintf("No API key found ending in '%s'", apiKey[max(0, len(apiKey)-4):]))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// OperatorAuthMiddleware validates the HS256 bearer token accepted on the
// operator report endpoints.
func (api *API) OperatorAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeAPIError(w, http.StatusUnauthorized, "missing-auth-header", "Operator endpoints require a bearer token")
			return
		}
		if api.cfg.OperatorJWTSecret == "" {
			writeAPIError(w, http.StatusServiceUnavailable, "operator-auth-unconfigured", "Operator authentication is not configured")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(api.cfg.OperatorJWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeAPIError(w, http.StatusUnauthorized, "invalid-token", "The bearer token is invalid or expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}
