package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/eprocure-portal/internal/domain"
	handlers "github.com/baechuer/eprocure-portal/internal/transport/http/handlers"
)

type stubSessions struct{ sess *domain.Session }

func (s stubSessions) ResolveSession(_ http.ResponseWriter, _ *http.Request) (*domain.Session, error) {
	return s.sess, nil
}

type stubRoles struct{ role domain.Role }

func (s stubRoles) ResolveRole(_ context.Context, _ domain.Identity) domain.Role { return s.role }

// Services stay nil: every request in these tests is either answered by the
// guards or by a handler that only reads the request context.
func newTestRouter(t *testing.T, sess *domain.Session, role domain.Role) http.Handler {
	t.Helper()
	roles := stubRoles{role: role}
	h, err := New(Deps{
		Auth:          handlers.NewAuthHandler(nil, nil, roles, 0),
		Profile:       handlers.NewProfileHandler(nil),
		Notifications: handlers.NewNotificationHandler(nil),
		Tenders:       handlers.NewTenderHandler(nil),
		Pages:         handlers.NewPagesHandler(),
		Health:        handlers.NewHealthHandler(),
		Sessions:      stubSessions{sess: sess},
		Roles:         roles,
	})
	require.NoError(t, err)
	return h
}

func signedIn(id string) *domain.Session {
	return &domain.Session{Identity: domain.Identity{ID: id, Email: id + "@example.com"}, AccessToken: "tok"}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestNew_RejectsMissingDeps(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)
}

func TestPages_Anonymous(t *testing.T) {
	h := newTestRouter(t, nil, "")

	rec := serve(h, http.MethodGet, "/admin/users")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fadmin%2Fusers", rec.Header().Get("Location"))

	rec = serve(h, http.MethodGet, "/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not signed in")
}

func TestPages_RoleRouting(t *testing.T) {
	h := newTestRouter(t, signedIn("u1"), domain.RoleSupplier)

	rec := serve(h, http.MethodGet, "/admin")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = serve(h, http.MethodGet, "/login")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = serve(h, http.MethodGet, "/supplier/proposals")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed in as u1@example.com (supplier)")
}

func TestUnknownPage_StillGuarded(t *testing.T) {
	anon := newTestRouter(t, nil, "")
	rec := serve(anon, http.MethodGet, "/admin/secret-report")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fadmin%2Fsecret-report", rec.Header().Get("Location"))

	admin := newTestRouter(t, signedIn("a1"), domain.RoleAdmin)
	rec = serve(admin, http.MethodGet, "/admin/secret-report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPages_OtherMethodsStillGuarded(t *testing.T) {
	anon := newTestRouter(t, nil, "")
	for _, m := range []string{http.MethodHead, http.MethodPost, http.MethodDelete} {
		rec := serve(anon, m, "/admin/users")
		assert.Equalf(t, http.StatusFound, rec.Code, "anon %s", m)
		assert.Equal(t, "/login?redirect=%2Fadmin%2Fusers", rec.Header().Get("Location"))
	}

	supplier := newTestRouter(t, signedIn("u1"), domain.RoleSupplier)
	rec := serve(supplier, http.MethodPost, "/admin/users")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = serve(supplier, http.MethodHead, "/tenders")
	assert.Equal(t, http.StatusOK, rec.Code)

	admin := newTestRouter(t, signedIn("a1"), domain.RoleAdmin)
	rec = serve(admin, http.MethodPost, "/admin/users")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_MethodNotAllowedIsJSON(t *testing.T) {
	h := newTestRouter(t, nil, "")

	rec := serve(h, http.MethodDelete, "/api/v1/auth/session")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method_not_allowed", errorCode(t, rec))

	rec = serve(h, http.MethodPost, "/healthz")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestAPI_NotFoundIsJSON(t *testing.T) {
	h := newTestRouter(t, nil, "")

	rec := serve(h, http.MethodGet, "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route_not_found", errorCode(t, rec))
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestAPI_Guards(t *testing.T) {
	anon := newTestRouter(t, nil, "")
	rec := serve(anon, http.MethodGet, "/api/v1/tenders")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	supplier := newTestRouter(t, signedIn("s1"), domain.RoleSupplier)
	rec = serve(supplier, http.MethodPost, "/api/v1/tenders")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient_role", errorCode(t, rec))

	admin := newTestRouter(t, signedIn("a1"), domain.RoleAdmin)
	rec = serve(admin, http.MethodGet, "/api/v1/proposals/mine")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_Session(t *testing.T) {
	h := newTestRouter(t, signedIn("a1"), domain.RoleAdmin)

	rec := serve(h, http.MethodGet, "/api/v1/auth/session")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
			Role string `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a1", body.Data.User.ID)
	assert.Equal(t, "admin", body.Data.Role)
}

func TestOperationalEndpoints_BypassEdge(t *testing.T) {
	h := newTestRouter(t, nil, "")

	for _, p := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := serve(h, http.MethodGet, p)
		assert.Equalf(t, http.StatusOK, rec.Code, "path %s", p)
	}

	rec := serve(h, http.MethodGet, "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
