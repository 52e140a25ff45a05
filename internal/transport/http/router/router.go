package router

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/transport/http/guard"
	handlers "github.com/baechuer/eprocure-portal/internal/transport/http/handlers"
	"github.com/baechuer/eprocure-portal/internal/transport/http/middleware"
	"github.com/baechuer/eprocure-portal/internal/transport/http/response"
)

type Deps struct {
	Auth          *handlers.AuthHandler
	Profile       *handlers.ProfileHandler
	Notifications *handlers.NotificationHandler
	Tenders       *handlers.TenderHandler
	Pages         *handlers.PagesHandler
	Health        *handlers.HealthHandler

	Sessions   middleware.SessionResolver
	Roles      middleware.RoleResolver
	Classifier *authz.Classifier // nil => authz.DefaultClassifier()

	// Credential endpoint limits per client IP; zero disables.
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

type page struct {
	path  string
	name  string
	title string
}

var publicPages = []page{
	{"/login", "login", "Sign in"},
	{"/signup", "signup", "Create account"},
	{"/signup/wizard", "signup_wizard", "Complete your profile"},
	{"/forgot-password", "forgot_password", "Forgot password"},
	{"/reset-password", "reset_password", "Reset password"},
}

var protectedPages = []page{
	{"/", "home", "Home"},
	{"/dashboard", "dashboard", "Dashboard"},
	{"/profile", "profile", "My profile"},
	{"/settings", "settings", "Settings"},
	{"/tenders", "tenders", "Tenders"},
	{"/tenders/{id}", "tender", "Tender"},
	{"/rfp", "rfp", "Requests for proposal"},
	{"/proposals", "proposals", "Proposals"},
	{"/invoices", "invoices", "Invoices"},
	{"/notifications", "notifications", "Notifications"},
	{"/admin", "admin", "Administration"},
	{"/admin/users", "admin_users", "Users"},
	{"/supplier", "supplier", "Supplier workspace"},
	{"/supplier/proposals", "supplier_proposals", "My proposals"},
}

// outside the edge matcher; unmatched requests here get a JSON error
var (
	unguardedPrefixes = []string{"/api/", "/static/"}
	opsPaths          = []string{"/healthz", "/readyz", "/metrics"}
)

func unguarded(p string) bool {
	for _, prefix := range unguardedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for _, op := range opsPaths {
		if p == op {
			return true
		}
	}
	return false
}

func New(deps Deps) (http.Handler, error) {
	switch {
	case deps.Auth == nil:
		return nil, fmt.Errorf("nil Auth handler")
	case deps.Profile == nil:
		return nil, fmt.Errorf("nil Profile handler")
	case deps.Notifications == nil:
		return nil, fmt.Errorf("nil Notifications handler")
	case deps.Tenders == nil:
		return nil, fmt.Errorf("nil Tenders handler")
	case deps.Pages == nil:
		return nil, fmt.Errorf("nil Pages handler")
	case deps.Health == nil:
		return nil, fmt.Errorf("nil Health handler")
	case deps.Sessions == nil || deps.Roles == nil:
		return nil, fmt.Errorf("nil session or role resolver")
	}

	pipeline := middleware.NewPipeline(deps.Sessions, deps.Roles, deps.Classifier)
	edge := middleware.Edge(pipeline)
	layout := guard.NewLayout(pipeline)

	writeErr := response.WriteError
	requireSession := middleware.RequireSession(deps.Sessions, deps.Roles, writeErr)
	adminOnly := middleware.RequireRole(domain.RoleAdmin, writeErr)
	supplierOnly := middleware.RequireRole(domain.RoleSupplier, writeErr)
	authLimit := middleware.RateLimitByIP("auth", deps.AuthRateLimit, deps.AuthRateWindow, writeErr)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/signup", deps.Auth.SignUp)
			r.With(authLimit).Post("/login", deps.Auth.Login)
			r.Post("/logout", deps.Auth.Logout)
			r.Post("/refresh", deps.Auth.Refresh)
			r.With(requireSession).Get("/session", deps.Auth.Session)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Post("/profile", deps.Profile.Complete)
			r.Get("/profile/me", deps.Profile.Me)
			r.Patch("/profile/me", deps.Profile.UpdateMe)

			r.Get("/notifications", deps.Notifications.List)
			r.Post("/notifications/read-all", deps.Notifications.MarkAllRead)
			r.Post("/notifications/{id}/read", deps.Notifications.MarkRead)

			r.Get("/tenders", deps.Tenders.List)
			r.Get("/tenders/{id}", deps.Tenders.Get)
			r.Get("/proposals/{id}/attachments", deps.Tenders.Attachments)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/admin/profiles", deps.Profile.AdminList)
				r.Patch("/admin/profiles/{id}", deps.Profile.AdminUpdate)

				r.Post("/tenders", deps.Tenders.Create)
				r.Post("/tenders/{id}/publish", deps.Tenders.Publish)
				r.Post("/tenders/{id}/close", deps.Tenders.Close)
				r.Get("/tenders/{id}/proposals", deps.Tenders.TenderProposals)
				r.Post("/proposals/{id}/decision", deps.Tenders.Decide)
			})

			r.Group(func(r chi.Router) {
				r.Use(supplierOnly)
				r.Post("/tenders/{id}/proposals", deps.Tenders.Submit)
				r.Get("/proposals/mine", deps.Tenders.Mine)
				r.Post("/proposals/{id}/withdraw", deps.Tenders.Withdraw)
				r.Post("/proposals/{id}/attachments", deps.Tenders.Upload)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(edge)
		for _, p := range publicPages {
			h := deps.Pages.Page(p.name, p.title)
			r.Get(p.path, h)
			r.Head(p.path, h)
		}
		for _, p := range protectedPages {
			h := layout.Wrap(deps.Pages.Page(p.name, p.title))
			r.Method(http.MethodGet, p.path, h)
			r.Method(http.MethodHead, p.path, h)
		}
	})

	// Unknown page paths and wrong methods on known ones still go through
	// the edge so neither reveals which protected routes exist.
	guardedNotFound := edge(layout.Wrap(http.HandlerFunc(http.NotFound)))
	guardedNotAllowed := edge(layout.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if unguarded(r.URL.Path) {
			response.WriteError(w, r, domain.New(domain.KindNotFound, "route_not_found", "route not found"))
			return
		}
		guardedNotFound.ServeHTTP(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if unguarded(r.URL.Path) {
			response.WriteError(w, r, domain.ErrMethodNotAllowed(r.Method))
			return
		}
		guardedNotAllowed.ServeHTTP(w, r)
	})

	return r, nil
}
