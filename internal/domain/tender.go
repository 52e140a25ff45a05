package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TenderStatus string

const (
	TenderDraft     TenderStatus = "draft"
	TenderPublished TenderStatus = "published"
	TenderClosed    TenderStatus = "closed"
)

func (s TenderStatus) Valid() bool {
	return s == TenderDraft || s == TenderPublished || s == TenderClosed
}

// Tender is an RFP issued by an admin and answered by suppliers.
type Tender struct {
	ID          string
	Reference   string
	Title       string
	Description string
	Deadline    time.Time
	Status      TenderStatus
	CreatedBy   string

	PublishedAt *time.Time
	ClosedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewTenderDraft(createdBy, reference, title, description string, deadline, now time.Time) (*Tender, error) {
	createdBy = strings.TrimSpace(createdBy)
	reference = strings.TrimSpace(reference)
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if createdBy == "" {
		return nil, ErrMissingField("created_by")
	}
	if title == "" || len(title) > 200 {
		return nil, ErrInvalidField("title", "required, at most 200 chars")
	}
	if len(description) > 8000 {
		return nil, ErrInvalidField("description", "at most 8000 chars")
	}
	if len(reference) > 64 {
		return nil, ErrInvalidField("reference", "at most 64 chars")
	}
	if deadline.IsZero() || !deadline.After(now) {
		return nil, ErrInvalidField("deadline", "must be in the future")
	}

	return &Tender{
		ID:          uuid.NewString(),
		Reference:   reference,
		Title:       title,
		Description: description,
		Deadline:    deadline.UTC(),
		Status:      TenderDraft,
		CreatedBy:   createdBy,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

func (t *Tender) Publish(now time.Time) error {
	if t.Status != TenderDraft {
		return ErrInvalidTransition(string(t.Status), string(TenderPublished))
	}
	if !t.Deadline.After(now) {
		return ErrDeadlinePassed()
	}
	ts := now.UTC()
	t.Status = TenderPublished
	t.PublishedAt = &ts
	t.UpdatedAt = ts
	return nil
}

func (t *Tender) Close(now time.Time) error {
	if t.Status != TenderPublished {
		return ErrInvalidTransition(string(t.Status), string(TenderClosed))
	}
	ts := now.UTC()
	t.Status = TenderClosed
	t.ClosedAt = &ts
	t.UpdatedAt = ts
	return nil
}

// AcceptsProposals is true while published and before the deadline.
func (t *Tender) AcceptsProposals(now time.Time) bool {
	return t.Status == TenderPublished && now.Before(t.Deadline)
}

type ProposalStatus string

const (
	ProposalSubmitted ProposalStatus = "submitted"
	ProposalWithdrawn ProposalStatus = "withdrawn"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalRejected  ProposalStatus = "rejected"
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalSubmitted, ProposalWithdrawn, ProposalAccepted, ProposalRejected:
		return true
	default:
		return false
	}
}

// Active proposals count against the one-per-supplier-per-tender rule.
func (s ProposalStatus) Active() bool {
	return s == ProposalSubmitted || s == ProposalAccepted
}

type Proposal struct {
	ID         string
	TenderID   string
	SupplierID string
	Amount     int64 // minor units
	Currency   string
	CoverNote  string
	Status     ProposalStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProposal(tenderID, supplierID string, amount int64, currency, coverNote string, now time.Time) (*Proposal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	coverNote = strings.TrimSpace(coverNote)

	if strings.TrimSpace(tenderID) == "" {
		return nil, ErrMissingField("tender_id")
	}
	if strings.TrimSpace(supplierID) == "" {
		return nil, ErrMissingField("supplier_id")
	}
	if amount <= 0 {
		return nil, ErrInvalidField("amount", "must be positive")
	}
	if len(currency) != 3 {
		return nil, ErrInvalidField("currency", "must be a 3-letter code")
	}
	if len(coverNote) > 4000 {
		return nil, ErrInvalidField("cover_note", "at most 4000 chars")
	}

	return &Proposal{
		ID:         uuid.NewString(),
		TenderID:   tenderID,
		SupplierID: supplierID,
		Amount:     amount,
		Currency:   currency,
		CoverNote:  coverNote,
		Status:     ProposalSubmitted,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

func (p *Proposal) Withdraw(now time.Time) error {
	if p.Status != ProposalSubmitted {
		return ErrInvalidTransition(string(p.Status), string(ProposalWithdrawn))
	}
	p.Status = ProposalWithdrawn
	p.UpdatedAt = now.UTC()
	return nil
}

// Decide moves a submitted proposal to accepted or rejected.
func (p *Proposal) Decide(to ProposalStatus, now time.Time) error {
	if to != ProposalAccepted && to != ProposalRejected {
		return ErrInvalidField("status", "must be accepted or rejected")
	}
	if p.Status != ProposalSubmitted {
		return ErrInvalidTransition(string(p.Status), string(to))
	}
	p.Status = to
	p.UpdatedAt = now.UTC()
	return nil
}

// Attachment is an uploaded file stored in object storage under Key.
type Attachment struct {
	ID          string
	ProposalID  string
	Key         string
	FileName    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}
