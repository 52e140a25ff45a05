package http_handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/baechuer/eprocure-portal/internal/logger"
	"github.com/baechuer/eprocure-portal/internal/transport/http/middleware"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} | e-Procurement Portal</title>
</head>
<body>
<header>{{if .Email}}Signed in as {{.Email}} ({{.Role}}){{else}}Not signed in{{end}}</header>
<main data-page="{{.Name}}">
<h1>{{.Title}}</h1>
</main>
</body>
</html>
`))

type pageData struct {
	Name  string
	Title string
	Email string
	Role  string
}

// PagesHandler serves the portal's page shells. Content is rendered client
// side; the server only decides whether the shell may be served at all.
type PagesHandler struct{}

func NewPagesHandler() *PagesHandler { return &PagesHandler{} }

func (h *PagesHandler) Page(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageData{Name: name, Title: title}
		if sess, ok := middleware.SessionFromContext(r.Context()); ok {
			data.Email = sess.Identity.Email
			role, _ := middleware.RoleFromContext(r.Context())
			data.Role = string(role)
		}

		var buf bytes.Buffer
		if err := pageTmpl.Execute(&buf, data); err != nil {
			logger.WithCtx(r.Context()).Error().Err(err).Str("page", name).Msg("page render failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
