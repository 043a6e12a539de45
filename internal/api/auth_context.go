package api

import (
	"context"
	"net/http"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// principalKey is the context key for the authenticated principal.
const principalKey ctxKey = "principal"

// setPrincipal stores the principal in context.
func setPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// principalFrom returns the principal attached to ctx, if any.
func principalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok && p.UName != ""
}

// RequirePrincipal returns the authenticated principal from context.
// Returns an Unauthenticated error (401) when the request carried no valid token.
func RequirePrincipal(ctx context.Context) (domain.Principal, error) {
	p, ok := principalFrom(ctx)
	if !ok {
		return domain.Principal{}, domainerrors.Unauthenticated("authentication required")
	}
	return p, nil
}

// authMiddleware validates Bearer tokens and stores the principal in context.
// Requests without a valid token continue anonymously; handlers that need a
// principal call RequirePrincipal.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := tokens.Authenticate(header)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(setPrincipal(r.Context(), p)))
		})
	}
}
