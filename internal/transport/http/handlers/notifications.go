package http_handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/transport/http/dto"
	"github.com/baechuer/eprocure-portal/internal/transport/http/response"
)

type NotificationService interface {
	ListMine(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type NotificationHandler struct {
	svc NotificationService
}

func NewNotificationHandler(svc NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List handles GET /api/v1/notifications?unread=true&limit=20.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	unread, err := queryBool(r, "unread")
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	ns, err := h.svc.ListMine(r.Context(), sess.Identity.ID, unread, limit)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToNotificationViews(ns))
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := h.svc.MarkRead(r.Context(), sess.Identity.ID, chi.URLParam(r, "id")); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}

// MarkAllRead handles POST /api/v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	n, err := h.svc.MarkAllRead(r.Context(), sess.Identity.ID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, map[string]int64{"marked": n})
}
