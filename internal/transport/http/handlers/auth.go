package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/eprocure-portal/internal/authz"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
	"github.com/baechuer/eprocure-portal/internal/transport/http/dto"
	"github.com/baechuer/eprocure-portal/internal/transport/http/middleware"
	"github.com/baechuer/eprocure-portal/internal/transport/http/response"
)

type AuthService interface {
	SignUp(ctx context.Context, email, password string) (domain.Session, error)
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (domain.Session, error)
}

type Cookies interface {
	Read(r *http.Request) (access, refresh string)
	Write(w http.ResponseWriter, s domain.Session, refreshTTL time.Duration)
	Clear(w http.ResponseWriter)
}

type AuthHandler struct {
	svc        AuthService
	cookies    Cookies
	roles      middleware.RoleResolver
	refreshTTL time.Duration
}

func NewAuthHandler(svc AuthService, cookies Cookies, roles middleware.RoleResolver, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		svc:        svc,
		cookies:    cookies,
		roles:      roles,
		refreshTTL: refreshTTL,
	}
}

// SignUp handles POST /api/v1/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	sess, err := h.svc.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("user_id", sess.Identity.ID).Msg("identity_signed_up")

	h.cookies.Write(w, sess, h.refreshTTL)
	view := dto.ToSessionView(sess, h.roles.ResolveRole(r.Context(), sess.Identity))
	// a fresh identity has a session, so public pages bounce to the dashboard
	view.Redirect = authz.DashboardPath
	response.Created(w, view)
}

// Login handles POST /api/v1/auth/login. The redirect target comes from the
// body or the ?redirect= query and falls back to the dashboard.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	sess, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("user_id", sess.Identity.ID).Msg("identity_signed_in")

	target := req.Redirect
	if target == "" {
		target = r.URL.Query().Get(authz.RedirectParam)
	}

	h.cookies.Write(w, sess, h.refreshTTL)
	view := dto.ToSessionView(sess, h.roles.ResolveRole(r.Context(), sess.Identity))
	view.Redirect = authz.PostLoginTarget(target)
	response.OK(w, view)
}

// Logout handles POST /api/v1/auth/logout. Cookies are cleared even when
// revocation fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	_, refresh := h.cookies.Read(r)
	if err := h.svc.SignOut(r.Context(), refresh); err != nil {
		logger.WithCtx(r.Context()).Warn().Err(err).Msg("refresh token revocation failed")
	}
	h.cookies.Clear(w)
	response.NoContent(w)
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	_, refresh := h.cookies.Read(r)
	if refresh == "" {
		response.WriteError(w, r, domain.ErrRefreshTokenInvalid())
		return
	}

	sess, err := h.svc.RefreshSession(r.Context(), refresh)
	if err != nil {
		if domain.KindOf(err) == domain.KindAuth {
			h.cookies.Clear(w)
		}
		response.WriteError(w, r, err)
		return
	}

	h.cookies.Write(w, sess, h.refreshTTL)
	response.OK(w, dto.ToSessionView(sess, h.roles.ResolveRole(r.Context(), sess.Identity)))
}

// Session handles GET /api/v1/auth/session behind RequireSession.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())
	response.OK(w, dto.ToSessionView(*sess, role))
}
