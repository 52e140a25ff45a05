package dto

import (
	"time"

	"github.com/baechuer/eprocure-portal/internal/application/tender"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

type CreateTenderRequest struct {
	Reference   string    `json:"reference" validate:"max=64"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=8000"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

type SubmitProposalRequest struct {
	Amount    int64  `json:"amount" validate:"required,gt=0"`
	Currency  string `json:"currency" validate:"required,len=3,alpha"`
	CoverNote string `json:"cover_note" validate:"max=4000"`
}

type DecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

type TenderView struct {
	ID          string              `json:"id"`
	Reference   string              `json:"reference,omitempty"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Deadline    time.Time           `json:"deadline"`
	Status      domain.TenderStatus `json:"status"`
	CreatedBy   string              `json:"created_by"`
	PublishedAt *time.Time          `json:"published_at,omitempty"`
	ClosedAt    *time.Time          `json:"closed_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

func ToTenderView(t domain.Tender) TenderView {
	return TenderView{
		ID:          t.ID,
		Reference:   t.Reference,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Status:      t.Status,
		CreatedBy:   t.CreatedBy,
		PublishedAt: t.PublishedAt,
		ClosedAt:    t.ClosedAt,
		CreatedAt:   t.CreatedAt,
	}
}

func ToTenderViews(ts []domain.Tender) []TenderView {
	out := make([]TenderView, 0, len(ts))
	for _, t := range ts {
		out = append(out, ToTenderView(t))
	}
	return out
}

type ProposalView struct {
	ID         string                `json:"id"`
	TenderID   string                `json:"tender_id"`
	SupplierID string                `json:"supplier_id"`
	Amount     int64                 `json:"amount"`
	Currency   string                `json:"currency"`
	CoverNote  string                `json:"cover_note,omitempty"`
	Status     domain.ProposalStatus `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

func ToProposalView(p domain.Proposal) ProposalView {
	return ProposalView{
		ID:         p.ID,
		TenderID:   p.TenderID,
		SupplierID: p.SupplierID,
		Amount:     p.Amount,
		Currency:   p.Currency,
		CoverNote:  p.CoverNote,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func ToProposalViews(ps []domain.Proposal) []ProposalView {
	out := make([]ProposalView, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToProposalView(p))
	}
	return out
}

type AttachmentView struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"url_expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToAttachmentView(a tender.AttachmentView) AttachmentView {
	return AttachmentView{
		ID:          a.ID,
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Size:        a.Size,
		URL:         a.URL,
		ExpiresAt:   a.ExpiresAt,
		CreatedAt:   a.CreatedAt,
	}
}

func ToAttachmentViews(as []tender.AttachmentView) []AttachmentView {
	out := make([]AttachmentView, 0, len(as))
	for _, a := range as {
		out = append(out, ToAttachmentView(a))
	}
	return out
}
