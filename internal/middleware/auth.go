package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zhouzirui/echo/backend/internal/security/token"
	"github.com/zhouzirui/echo/backend/pkg/utils"
)

// TokenParser validates a bearer token.
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

type claimsKey struct{}

// Authenticate rejects requests without a valid bearer token with 401 and
// stores the token claims in the request context. The token is read from the
// Authorization header, or from the "token" query parameter for websocket
// upgrades, which browsers cannot send headers with.
func Authenticate(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := parser.Parse(raw)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the raw token from r, or "" when none is present.
func BearerToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, raw, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(raw)
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by Authenticate.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*token.Claims)
	return claims, ok && claims != nil
}
