package middleware

import (
	"context"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type ctxKey string

const (
	ctxSession ctxKey = "session"
	ctxRole    ctxKey = "role"
)

// WithAuth stores the resolved session and effective role. A nil session
// leaves the context untouched.
func WithAuth(ctx context.Context, sess *domain.Session, role domain.Role) context.Context {
	if sess == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxSession, sess)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	v, ok := ctx.Value(ctxSession).(*domain.Session)
	return v, ok && v != nil
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	sess, ok := SessionFromContext(ctx)
	if !ok || sess.Identity.ID == "" {
		return "", false
	}
	return sess.Identity.ID, true
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(ctxRole).(domain.Role)
	return v, ok && v != ""
}
