// Package middleware — Bearer JWT authentication and request logging.
package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/matiasleandrokruk/simonsays/internal/api/ctxkeys"
	pkgauth "github.com/matiasleandrokruk/simonsays/pkg/auth"
)

// TokenParser validates a token string. *pkgauth.TokenIssuer satisfies it.
type TokenParser interface {
	Parse(token string) (*pkgauth.Claims, error)
}

// Auth validates the Bearer JWT token and injects claims into context.
// Used on all /api/v1/* routes.
//
// Flow:
//  1. Read "Authorization: Bearer <token>" header
//  2. Reject if missing or not Bearer scheme → 401
//  3. Parse + validate JWT → 401 on invalid/expired
//  4. Inject ctxkeys.UserID and ctxkeys.Anonymous into context
//  5. Call next handler
func Auth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil || claims.UserID == "" {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			recordUser(r.Context(), claims.UserID)
			ctx := ctxkeys.WithValue(r.Context(), ctxkeys.UserID, claims.UserID)
			ctx = ctxkeys.WithValue(ctx, ctxkeys.Anonymous, strconv.FormatBool(claims.Anonymous))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Returns empty string if header is missing, wrong scheme, or token is empty.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 7235)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 JSON response in the handlers' error format.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
