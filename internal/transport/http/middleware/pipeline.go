package middleware

import (
	"context"
	"net/http"

	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
)

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

type SessionResolver interface {
	ResolveSession(w http.ResponseWriter, r *http.Request) (*domain.Session, error)
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, id domain.Identity) domain.Role
}

// Evaluation is one run of session -> role -> class -> decision.
// Session is nil and Role empty when the request is treated as anonymous.
type Evaluation struct {
	Decision authz.Decision
	Class    authz.RouteClass
	Session  *domain.Session
	Role     domain.Role
}

// Pipeline is the request-time authorization chain shared by the edge
// middleware and the layout guard. Each caller runs it independently.
type Pipeline struct {
	sessions   SessionResolver
	roles      RoleResolver
	classifier *authz.Classifier
}

func NewPipeline(sessions SessionResolver, roles RoleResolver, classifier *authz.Classifier) *Pipeline {
	if classifier == nil {
		classifier = authz.DefaultClassifier()
	}
	return &Pipeline{sessions: sessions, roles: roles, classifier: classifier}
}

func (p *Pipeline) Classify(path string) authz.RouteClass {
	return p.classifier.Classify(path)
}

// Evaluate never fails. Resolver errors count as no session and a panic
// anywhere in the chain turns into the fail-closed decision.
func (p *Pipeline) Evaluate(w http.ResponseWriter, r *http.Request) (ev Evaluation) {
	path, rawQuery := r.URL.Path, r.URL.RawQuery
	ev.Class = p.classifier.Classify(path)

	defer func() {
		if rec := recover(); rec != nil {
			logger.WithCtx(r.Context()).Error().
				Interface("panic", rec).
				Str("path", path).
				Msg("authz pipeline panic, failing closed")
			ev = Evaluation{Class: ev.Class, Decision: authz.FailClosed(ev.Class, path, rawQuery)}
		}
	}()

	sess, err := p.sessions.ResolveSession(w, r)
	if err != nil {
		logger.WithCtx(r.Context()).Warn().Err(err).Str("path", path).Msg("session resolution failed, treating as anonymous")
		sess = nil
	}

	in := authz.Input{Class: ev.Class, Path: path, RawQuery: rawQuery}
	if sess != nil {
		in.HasSession = true
		in.Role = p.roles.ResolveRole(r.Context(), sess.Identity)
	}

	ev.Decision = authz.Decide(in)
	ev.Session = sess
	ev.Role = in.Role
	return ev
}
