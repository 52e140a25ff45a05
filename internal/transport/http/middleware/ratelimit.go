package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// RateLimitByIP limits credential endpoints per client IP and endpoint.
// Expects chi's RealIP to have run so RemoteAddr is the client address.
func RateLimitByIP(scope string, limit int, window time.Duration, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeErr(w, r, domain.ErrRateLimited(scope))
		}),
	)
}
