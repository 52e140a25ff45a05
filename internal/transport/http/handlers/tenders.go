package http_handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/eprocure-portal/internal/application/tender"
	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/transport/http/dto"
	"github.com/baechuer/eprocure-portal/internal/transport/http/response"
)

// multipart parts above this size spill to temp files
const multipartMemory = 4 << 20

type TenderService interface {
	CreateTender(ctx context.Context, actor tender.Actor, in tender.CreateTenderInput) (domain.Tender, error)
	PublishTender(ctx context.Context, actor tender.Actor, id string) (domain.Tender, error)
	CloseTender(ctx context.Context, actor tender.Actor, id string) (domain.Tender, error)
	ListTenders(ctx context.Context, actor tender.Actor, in tender.ListInput) ([]domain.Tender, error)
	GetTender(ctx context.Context, actor tender.Actor, id string) (domain.Tender, error)

	SubmitProposal(ctx context.Context, actor tender.Actor, tenderID string, in tender.SubmitInput) (domain.Proposal, error)
	WithdrawProposal(ctx context.Context, actor tender.Actor, id string) (domain.Proposal, error)
	DecideProposal(ctx context.Context, actor tender.Actor, id string, to domain.ProposalStatus) (domain.Proposal, error)
	MyProposals(ctx context.Context, actor tender.Actor) ([]domain.Proposal, error)
	TenderProposals(ctx context.Context, actor tender.Actor, tenderID string) ([]domain.Proposal, error)

	UploadAttachment(ctx context.Context, actor tender.Actor, proposalID string, in tender.UploadInput) (tender.AttachmentView, error)
	ListAttachments(ctx context.Context, actor tender.Actor, proposalID string) ([]tender.AttachmentView, error)
	MaxUploadSize() int64
}

type TenderHandler struct {
	svc TenderService
}

func NewTenderHandler(svc TenderService) *TenderHandler {
	return &TenderHandler{svc: svc}
}

// List handles GET /api/v1/tenders?status=published,closed&limit=&offset=.
func (h *TenderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	in := tender.ListInput{}
	for _, raw := range strings.Split(r.URL.Query().Get("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			in.Statuses = append(in.Statuses, domain.TenderStatus(strings.ToLower(raw)))
		}
	}
	if in.Limit, err = queryInt(r, "limit", 0); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if in.Offset, err = queryInt(r, "offset", 0); err != nil {
		response.WriteError(w, r, err)
		return
	}

	ts, err := h.svc.ListTenders(r.Context(), actor, in)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToTenderViews(ts))
}

// Get handles GET /api/v1/tenders/{id}.
func (h *TenderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	t, err := h.svc.GetTender(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToTenderView(t))
}

// Create handles POST /api/v1/tenders (admin).
func (h *TenderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var req dto.CreateTenderRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	t, err := h.svc.CreateTender(r.Context(), actor, tender.CreateTenderInput{
		Reference:   req.Reference,
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.ToTenderView(t))
}

// Publish handles POST /api/v1/tenders/{id}/publish (admin).
func (h *TenderHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.PublishTender)
}

// Close handles POST /api/v1/tenders/{id}/close (admin).
func (h *TenderHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CloseTender)
}

func (h *TenderHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, tender.Actor, string) (domain.Tender, error)) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	t, err := apply(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToTenderView(t))
}

// TenderProposals handles GET /api/v1/tenders/{id}/proposals (admin).
func (h *TenderHandler) TenderProposals(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	ps, err := h.svc.TenderProposals(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProposalViews(ps))
}

// Submit handles POST /api/v1/tenders/{id}/proposals (supplier).
func (h *TenderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var req dto.SubmitProposalRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.SubmitProposal(r.Context(), actor, chi.URLParam(r, "id"), tender.SubmitInput{
		Amount:    req.Amount,
		Currency:  req.Currency,
		CoverNote: req.CoverNote,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.ToProposalView(p))
}

// Mine handles GET /api/v1/proposals/mine (supplier).
func (h *TenderHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	ps, err := h.svc.MyProposals(r.Context(), actor)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProposalViews(ps))
}

// Withdraw handles POST /api/v1/proposals/{id}/withdraw (supplier).
func (h *TenderHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	p, err := h.svc.WithdrawProposal(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProposalView(p))
}

// Decide handles POST /api/v1/proposals/{id}/decision (admin).
func (h *TenderHandler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	var req dto.DecisionRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	p, err := h.svc.DecideProposal(r.Context(), actor, chi.URLParam(r, "id"), domain.ProposalStatus(req.Status))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToProposalView(p))
}

// Upload handles POST /api/v1/proposals/{id}/attachments as multipart/form-data
// with a single "file" part.
func (h *TenderHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	limit := h.svc.MaxUploadSize()
	// headroom for multipart boundaries and part headers
	r.Body = http.MaxBytesReader(w, r.Body, limit+64<<10)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.WriteError(w, r, domain.ErrFileTooLarge(strconv.FormatInt(limit, 10)))
			return
		}
		response.WriteError(w, r, domain.ErrInvalidField("file", "expected multipart/form-data"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, r, domain.ErrMissingField("file"))
		return
	}
	defer file.Close()

	a, err := h.svc.UploadAttachment(r.Context(), actor, chi.URLParam(r, "id"), tender.UploadInput{
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        file,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.ToAttachmentView(a))
}

// Attachments handles GET /api/v1/proposals/{id}/attachments (owner or admin).
func (h *TenderHandler) Attachments(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	as, err := h.svc.ListAttachments(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ToAttachmentViews(as))
}
