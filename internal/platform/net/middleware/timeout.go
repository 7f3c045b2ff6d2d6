package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

type limitKey struct{}

// limit remembers the context a request had before Timeout bounded it
type limit struct {
	parent context.Context
	lifted atomic.Bool
}

// Timeout cancels the request context after d and answers 504 when the handler ran out of time
// routes that call Unbounded keep running until the client leaves
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := &limit{parent: r.Context()}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, limitKey{}, lim)))
			if !lim.lifted.Load() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				w.WriteHeader(http.StatusGatewayTimeout)
			}
		})
	}
}

// unbounded takes cancellation from the pre-timeout context and values from the current one
type unbounded struct {
	context.Context
	values context.Context
}

func (u unbounded) Value(k any) any { return u.values.Value(k) }

// Unbounded lifts the Timeout deadline from ctx; the result ends when the client leaves
// values attached after Timeout (principal, logger fields) stay visible
func Unbounded(ctx context.Context) context.Context {
	lim, ok := ctx.Value(limitKey{}).(*limit)
	if !ok {
		return ctx
	}
	lim.lifted.Store(true)
	return unbounded{Context: lim.parent, values: ctx}
}
