// Package guard holds the render-time gate wrapped around protected page
// layouts. It resolves the session again instead of trusting the edge.
package guard

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/logger"
	"github.com/baechuer/eprocure-portal/internal/transport/http/middleware"
)

var interstitial = template.Must(template.New("interstitial").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0;url={{.Location}}">
<title>{{.Title}}</title>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<p><a href="{{.Location}}">Continue</a></p>
</main>
</body>
</html>
`))

type page struct {
	Title    string
	Message  string
	Location string
}

type Layout struct {
	pipeline *middleware.Pipeline
}

func NewLayout(p *middleware.Pipeline) *Layout {
	return &Layout{pipeline: p}
}

// Wrap renders next only when the decision allows it. Otherwise it writes
// an access-denied page: 401 for anonymous requests, 403 for role mismatch.
func (l *Layout) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ev := l.pipeline.Evaluate(w, r)
		if ev.Decision.Allowed() {
			next.ServeHTTP(w, r)
			return
		}

		middleware.ObserveLayoutDenial(ev.Class, ev.Decision.Outcome)
		logger.WithCtx(r.Context()).Info().
			Str("path", r.URL.Path).
			Str("class", string(ev.Class)).
			Str("outcome", string(ev.Decision.Outcome)).
			Str("reason", ev.Decision.Reason).
			Msg("layout guard denied request")

		status, p := denial(ev.Decision)
		render(w, status, p)
	})
}

func denial(d authz.Decision) (int, page) {
	if d.Outcome == authz.RedirectLogin {
		return http.StatusUnauthorized, page{
			Title:    "Sign in required",
			Message:  "You need to sign in to view this page.",
			Location: d.Location,
		}
	}
	return http.StatusForbidden, page{
		Title:    "Access denied",
		Message:  "Your account does not have access to this page.",
		Location: d.Location,
	}
}

func render(w http.ResponseWriter, status int, p page) {
	var buf bytes.Buffer
	if err := interstitial.Execute(&buf, p); err != nil {
		// plain-text denial; the protected child still never runs
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
