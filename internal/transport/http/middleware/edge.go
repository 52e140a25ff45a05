package middleware

import (
	"net/http"

	"github.com/baechuer/eprocure-portal/internal/logger"
)

// Edge runs the authorization pipeline before any page handler. Denied
// requests get a 302 to the decision's location; allowed ones carry the
// resolved session and role in their context.
func Edge(p *Pipeline) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ev := p.Evaluate(w, r)
			observeDecision(ev.Class, ev.Decision.Outcome)

			lg := logger.WithCtx(r.Context())
			lg.Debug().
				Str("path", r.URL.Path).
				Str("class", string(ev.Class)).
				Str("role", string(ev.Role)).
				Str("outcome", string(ev.Decision.Outcome)).
				Str("reason", ev.Decision.Reason).
				Bool("rotated", ev.Session != nil && ev.Session.Rotated).
				Msg("authz_decision")

			if !ev.Decision.Allowed() {
				http.Redirect(w, r, ev.Decision.Location, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), ev.Session, ev.Role)))
		})
	}
}
