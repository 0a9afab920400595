package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/freshmandi/grocery/internal/auth"
	"github.com/freshmandi/grocery/internal/core/domain"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// WithAuth resolves the caller's identity from a bearer token when one
// is presented. Requests without a token pass through: identity fields
// then come from the request body/query, matching the storefront's
// current contract.
func WithAuth(verifier *auth.Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			claims, err := verifier.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			r = r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims))
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// tierFrom resolves the customer tier: token claims win, otherwise the
// explicit customerTier query value, defaulting to consumer.
func tierFrom(r *http.Request) domain.Tier {
	if claims, ok := claimsFrom(r.Context()); ok && claims.Tier != "" {
		return domain.ParseTier(claims.Tier)
	}
	return domain.ParseTier(r.URL.Query().Get("customerTier"))
}
