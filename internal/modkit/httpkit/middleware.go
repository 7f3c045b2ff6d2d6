package httpkit

import (
	"compress/flate"
	"net/http"
	"reflect"
	"time"

	"popreel/internal/platform/config"
	"popreel/internal/platform/net/middleware"
)

// StackOptions tunes the api middleware stack
type StackOptions struct {
	Timeout time.Duration
	Slow    time.Duration
	CORS    middleware.CORSOptions
}

// StackFromConfig reads CORE_API_* settings
func StackFromConfig(cfg config.Conf) StackOptions {
	c := cfg.Prefix("CORE_API_")
	return StackOptions{
		Timeout: c.MayDuration("TIMEOUT", 30*time.Second),
		Slow:    c.MayDuration("SLOW_REQUEST", time.Second),
		CORS: middleware.CORSOptions{
			AllowedOrigins:   c.MayCSV("CORS_ORIGINS", []string{"*"}),
			AllowCredentials: c.MayBool("CORS_CREDENTIALS", false),
			MaxAge:           c.MayInt("CORS_MAX_AGE", 300),
		},
	}
}

// CommonStack returns the middleware applied to every /api route
// CORS runs before recovery so preflights never reach handlers
func CommonStack(opt StackOptions) []func(http.Handler) http.Handler {
	if opt.Timeout <= 0 {
		opt.Timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RealIP(),
		middleware.RequestID(),

		// observability
		middleware.AccessLog(middleware.AccessLogOptions{Slow: opt.Slow}),

		// cross-origin
		middleware.CORS(opt.CORS),

		// safety
		middleware.RecoverJSON,
		middleware.Timeout(opt.Timeout),

		middleware.Compress(flate.BestSpeed),
		middleware.NoCache(),
	}
}

// Auth requires a resolved principal
// the wrapper gives required auth its own code pointer so RequiresAuth can spot it in a chain
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	mw := middleware.Auth(p)
	return func(next http.Handler) http.Handler { return mw(next) }
}

// Optional attaches a principal when a token is present
func Optional(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.OptionalAuth(p)
}

var authCode = reflect.ValueOf(Auth(nil)).Pointer()

// RequiresAuth reports whether a route's middleware chain includes Auth
func RequiresAuth(chain []func(http.Handler) http.Handler) bool {
	for _, mw := range chain {
		if mw != nil && reflect.ValueOf(mw).Pointer() == authCode {
			return true
		}
	}
	return false
}
