package shared

import (
	"net/http"

	"github.com/assetflow/assetflow/internal/platform/httpx"
)

// Authenticate resolves the session and attaches the principal to the
// request context. Requests without a session stop here with a 401.
func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := resolver.Resolve(r.Context(), r)
			if !res.Authenticated {
				httpx.RespondError(w, httpx.ErrAuthenticationMissing)
				return
			}
			ctx := ContextWithPrincipal(r.Context(), res.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
