package tender

import (
	"context"
	"io"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type TenderFilter struct {
	// Statuses empty = any
	Statuses []domain.TenderStatus
	Limit    int
	Offset   int
}

type TenderRepo interface {
	CreateTender(ctx context.Context, t domain.Tender) error
	GetTender(ctx context.Context, id string) (domain.Tender, error)
	// UpdateTenderStatus persists status, published_at, closed_at and updated_at.
	UpdateTenderStatus(ctx context.Context, t domain.Tender) error
	ListTenders(ctx context.Context, f TenderFilter) ([]domain.Tender, error)
}

type ProposalRepo interface {
	// CreateProposal returns ErrProposalAlreadyExists when the supplier
	// already holds an active proposal for the tender.
	CreateProposal(ctx context.Context, p domain.Proposal) error
	GetProposal(ctx context.Context, id string) (domain.Proposal, error)
	UpdateProposalStatus(ctx context.Context, p domain.Proposal) error
	ListByTender(ctx context.Context, tenderID string) ([]domain.Proposal, error)
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Proposal, error)

	CreateAttachment(ctx context.Context, a domain.Attachment) error
	ListAttachments(ctx context.Context, proposalID string) ([]domain.Attachment, error)
}

// ObjectStore uploads bytes and hands out time-limited retrieval URLs.
// Delete of a missing key succeeds.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// EventPublisher delivers lifecycle events. Callers never block on it.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.LifecycleEvent) error
}

type Notifier interface {
	NotifyUsers(ctx context.Context, userIDs []string, msg domain.Message) error
	NotifyRole(ctx context.Context, role domain.Role, msg domain.Message) error
}
