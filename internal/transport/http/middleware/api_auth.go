package middleware

import (
	"net/http"

	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
)

// RequireSession is the JSON counterpart of Edge for /api routes: no
// redirects, a 401 body instead. Store failures are treated as no session.
func RequireSession(sessions SessionResolver, roles RoleResolver, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.ResolveSession(w, r)
			if err != nil {
				logger.WithCtx(r.Context()).Warn().Err(err).Msg("session resolution failed")
				sess = nil
			}
			if sess == nil {
				writeErr(w, r, domain.ErrUnauthenticated())
				return
			}

			role := roles.ResolveRole(r.Context(), sess.Identity)
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), sess, role)))
		})
	}
}

// RequireRole assumes RequireSession already ran.
func RequireRole(required domain.Role, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); !ok {
				// middleware ordering issue
				writeErr(w, r, domain.ErrUnauthenticated())
				return
			}

			role, ok := RoleFromContext(r.Context())
			if !ok || !role.Valid() {
				writeErr(w, r, domain.ErrForbidden())
				return
			}
			if role != required {
				writeErr(w, r, domain.ErrInsufficientRole(string(required)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
