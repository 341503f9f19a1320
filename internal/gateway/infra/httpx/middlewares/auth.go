package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/storefront/ordermonitor/internal/pkg/auth"
)

type contextKey string

// ContextKeyIdentity carries the validated auth.Identity of the caller.
const ContextKeyIdentity contextKey = "identity"

// IdentityFromContext extracts the validated caller, if any.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ContextKeyIdentity).(auth.Identity)
	return id, ok
}

// RequireScope authenticates the request with verifier and rejects it
// with 401 unless the token carries scope. The bearer may arrive as an
// Authorization header or, for websocket handshakes where browsers can
// not set headers, as an access_token query parameter.
func RequireScope(verifier auth.Verifier, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerFromRequest(r)
			if raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			if !identity.HasScope(scope) {
				http.Error(w, "insufficient scope", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}
