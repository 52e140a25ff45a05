package http_handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/transport/http/middleware"
	"github.com/baechuer/eprocure-portal/internal/transport/http/response"
)

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// readData decodes the {"data": ...} envelope into out.
func readData(t *testing.T, r io.Reader, out any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(r).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func readErrorCode(t *testing.T, r io.Reader) string {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body.Error.Code
}

func withSession(req *http.Request, userID string, role domain.Role) *http.Request {
	sess := &domain.Session{Identity: domain.Identity{ID: userID, Email: userID + "@example.com"}}
	return req.WithContext(middleware.WithAuth(req.Context(), sess, role))
}

func withURLParam(req *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type fixedRoles struct{ role domain.Role }

func (f fixedRoles) ResolveRole(context.Context, domain.Identity) domain.Role { return f.role }
