package middleware

import (
	"context"
	"net/http"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type fakeSessions struct {
	sess  *domain.Session
	err   error
	panic bool
	calls int
}

func (f *fakeSessions) ResolveSession(_ http.ResponseWriter, _ *http.Request) (*domain.Session, error) {
	f.calls++
	if f.panic {
		panic("boom")
	}
	return f.sess, f.err
}

type fakeRoles struct {
	role  domain.Role
	calls int
}

func (f *fakeRoles) ResolveRole(_ context.Context, _ domain.Identity) domain.Role {
	f.calls++
	return f.role
}

type writeErrRecorder struct {
	calls int
	last  error
}

func (w *writeErrRecorder) fn(rw http.ResponseWriter, _ *http.Request, err error) {
	w.calls++
	w.last = err
	rw.WriteHeader(http.StatusTeapot)
}

// nextRecorder captures what the wrapped handler saw in its context.
type nextRecorder struct {
	calls   int
	gotSess *domain.Session
	gotRole domain.Role
}

func (n *nextRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.calls++
	n.gotSess, _ = SessionFromContext(r.Context())
	n.gotRole, _ = RoleFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func session(id string) *domain.Session {
	return &domain.Session{Identity: domain.Identity{ID: id, Email: id + "@example.com"}, AccessToken: "tok"}
}
