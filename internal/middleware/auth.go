// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/plated-app/plated/internal/auth"
)

// TokenValidator validates a bearer token and returns its claims.
// Implemented by auth.JWTService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Auth is a middleware that resolves the authenticated user from a
// Bearer token. On a valid access token it stores the user id in the
// request context (see GetUserID); handlers that require authentication
// check for it there.
//
// Requests without an Authorization header pass through anonymously.
// A present but invalid or expired token is rejected with 401 so
// clients learn their session is dead instead of silently degrading
// to anonymous access.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeAuthError(w, r, "Authorization header must use the Bearer scheme")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				writeAuthError(w, r, "Invalid or expired token")
				return
			}
			if claims.Type != auth.TokenTypeAccess {
				writeAuthError(w, r, "Token is not an access token")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 in the API's structured error format.
// The body is built by hand here because the api package depends on
// middleware, not the other way around.
func writeAuthError(w http.ResponseWriter, r *http.Request, message string) {
	ctx := SetErrorCode(r.Context(), "auth_failed")
	UpdateResponseContext(w, ctx)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	body := `{"error":{"code":"auth_failed","message":` + strconv.Quote(message) + `}}`
	_, _ = w.Write([]byte(body))
}
