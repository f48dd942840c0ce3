package auth

import (
	"context"
	"net/http"
	"strings"

	"parish-site/internal/observability"
)

type contextKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}

// Middleware rejects requests without a valid bearer token before next runs.
func Middleware(tokens *TokenService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, present := bearerToken(r)
		if !present {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		identity, err := tokens.Verify(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
			return
		}

		observability.AddRequestField(r.Context(), "admin_id", identity.AdminID)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// OptionalMiddleware attaches the identity when a valid token is sent and
// lets anonymous or invalid callers through unchanged.
func OptionalMiddleware(tokens *TokenService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenStr, present := bearerToken(r); present {
			if identity, err := tokens.Verify(tokenStr); err == nil {
				observability.AddRequestField(r.Context(), "admin_id", identity.AdminID)
				r = r.WithContext(WithIdentity(r.Context(), identity))
			}
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken reports present=false when there is nothing token-like in the
// header. Any other scheme is passed through so verification rejects it.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	scheme, rest, found := strings.Cut(header, " ")
	if !found {
		return header, true
	}
	if !strings.EqualFold(scheme, "Bearer") {
		return header, true
	}

	token := strings.TrimSpace(rest)
	if token == "" {
		return "", false
	}

	return token, true
}
