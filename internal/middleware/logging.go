package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Logging attaches log to each request context, tags it with request metadata,
// and writes one access line per request.
//
// The access line carries the matched route pattern, never the raw path:
// reset links put a bearer token in the path.
func Logging(log zerolog.Logger) func(http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		hlog.NewHandler(log),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		hlog.RemoteAddrHandler("ip"),
		hlog.MethodHandler("method"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("route", routePattern(r)).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	}
	return func(next http.Handler) http.Handler {
		for i := len(chain) - 1; i >= 0; i-- {
			next = chain[i](next)
		}
		return next
	}
}

// routePattern reads the pattern chi matched once routing has finished.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unrouted"
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}
