package http_handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/eprocure-portal/internal/application/profile"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
	"github.com/baechuer/eprocure-portal/internal/transport/http/dto"
	"github.com/baechuer/eprocure-portal/internal/transport/http/middleware"
	"github.com/baechuer/eprocure-portal/internal/transport/http/response"
)

type ProfileService interface {
	CompleteSignup(ctx context.Context, id domain.Identity, fullName, phone, country string) (domain.Profile, error)
	GetMine(ctx context.Context, userID string) (domain.Profile, error)
	UpdateMine(ctx context.Context, userID string, d profile.Details) (domain.Profile, error)
	AdminUpdate(ctx context.Context, actorID string, actorRole domain.Role, targetID string, patch domain.ProfilePatch) (domain.Profile, error)
	List(ctx context.Context, actorRole domain.Role, f profile.ListFilter) ([]domain.Profile, error)
}

type ProfileHandler struct {
	svc ProfileService
}

func NewProfileHandler(svc ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Complete handles POST /api/v1/profile (signup wizard).
func (h *ProfileHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var req dto.CompleteSignupRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.CompleteSignup(r.Context(), sess.Identity, req.FullName, req.Phone, req.Country)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("user_id", p.ID).Msg("profile_completed")
	response.Created(w, dto.ToProfileView(p))
}

// Me handles GET /api/v1/profile/me.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.GetMine(r.Context(), sess.Identity.ID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProfileView(p))
}

// UpdateMe handles PATCH /api/v1/profile/me. Role is not user editable.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var req dto.UpdateProfileRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.UpdateMine(r.Context(), sess.Identity.ID, profile.Details{
		FullName: req.FullName,
		Phone:    req.Phone,
		Country:  req.Country,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProfileView(p))
}

// AdminList handles GET /api/v1/admin/profiles?role=&limit=&offset=.
func (h *ProfileHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	role, _ := middleware.RoleFromContext(r.Context())

	f := profile.ListFilter{}
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, ok := domain.ParseRole(raw)
		if !ok {
			response.WriteError(w, r, domain.ErrInvalidRole(raw))
			return
		}
		f.Role = parsed
	}

	var err error
	if f.Limit, err = queryInt(r, "limit", 50); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		response.WriteError(w, r, err)
		return
	}

	ps, err := h.svc.List(r.Context(), role, f)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProfileViews(ps))
}

// AdminUpdate handles PATCH /api/v1/admin/profiles/{id}.
func (h *ProfileHandler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())

	var req dto.AdminProfilePatch
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.AdminUpdate(r.Context(), sess.Identity.ID, role, chi.URLParam(r, "id"), req.ToDomain())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProfileView(p))
}
