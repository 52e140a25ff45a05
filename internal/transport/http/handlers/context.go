package http_handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/baechuer/eprocure-portal/internal/application/tender"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/transport/http/middleware"
)

// sessionFrom returns the session stored by RequireSession/Edge. Handlers
// behind those middlewares may rely on it; ok=false is an ordering bug.
func sessionFrom(r *http.Request) (*domain.Session, error) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return nil, domain.ErrUnauthenticated()
	}
	return sess, nil
}

func actorFrom(r *http.Request) (tender.Actor, error) {
	sess, err := sessionFrom(r)
	if err != nil {
		return tender.Actor{}, err
	}
	role, _ := middleware.RoleFromContext(r.Context())
	return tender.Actor{ID: sess.Identity.ID, Role: role}, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ErrInvalidField(key, "must be a non-negative integer")
	}
	return n, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.ErrInvalidField(key, "must be a boolean")
	}
	return b, nil
}
