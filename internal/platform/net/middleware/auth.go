package middleware

import (
	"net/http"

	"popreel/internal/platform/logger"
	pnet "popreel/internal/platform/net"
	phttp "popreel/internal/platform/net/http"
)

// AuthPort resolves the principal behind a request
// implementations return an Unauthorized perr for a missing or bad token
type AuthPort interface {
	Parse(r *http.Request) (pnet.Principal, error)
}

// Auth rejects requests the port cannot resolve
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return auth(p, true)
}

// OptionalAuth attaches a principal when one resolves and passes anonymous requests through
// a present but invalid token is still rejected
func OptionalAuth(p AuthPort) func(http.Handler) http.Handler {
	return auth(p, false)
}

func auth(p AuthPort, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !required && r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			who, err := p.Parse(r)
			if err != nil {
				phttp.RespondError(w, r, err)
				return
			}
			ctx := pnet.WithPrincipal(r.Context(), who)
			ctx = logger.WithUser(ctx, who.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
