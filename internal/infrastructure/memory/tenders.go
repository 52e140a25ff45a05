package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/baechuer/eprocure-portal/internal/application/tender"
	"github.com/baechuer/eprocure-portal/internal/domain"
)

// TenderStore backs both tender.TenderRepo and tender.ProposalRepo.
type TenderStore struct {
	mu          sync.RWMutex
	tenders     map[string]domain.Tender
	proposals   map[string]domain.Proposal
	attachments map[string][]domain.Attachment // proposal id -> attachments
}

func NewTenderStore() *TenderStore {
	return &TenderStore{
		tenders:     make(map[string]domain.Tender),
		proposals:   make(map[string]domain.Proposal),
		attachments: make(map[string][]domain.Attachment),
	}
}

func (s *TenderStore) CreateTender(ctx context.Context, t domain.Tender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenders[t.ID] = t
	return nil
}

func (s *TenderStore) GetTender(ctx context.Context, id string) (domain.Tender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenders[id]
	if !ok {
		return domain.Tender{}, domain.ErrTenderNotFound()
	}
	return t, nil
}

func (s *TenderStore) UpdateTenderStatus(ctx context.Context, t domain.Tender) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tenders[t.ID]
	if !ok {
		return domain.ErrTenderNotFound()
	}
	cur.Status = t.Status
	cur.PublishedAt = t.PublishedAt
	cur.ClosedAt = t.ClosedAt
	cur.UpdatedAt = t.UpdatedAt
	s.tenders[t.ID] = cur
	return nil
}

func (s *TenderStore) ListTenders(ctx context.Context, f tender.TenderFilter) ([]domain.Tender, error) {
	s.mu.RLock()
	out := make([]domain.Tender, 0, len(s.tenders))
	for _, t := range s.tenders {
		if len(f.Statuses) == 0 || slices.Contains(f.Statuses, t.Status) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].ID < out[j].ID
		}
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return page(out, f.Offset, f.Limit, 50), nil
}

func (s *TenderStore) CreateProposal(ctx context.Context, p domain.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tenders[p.TenderID]; !ok {
		return domain.ErrTenderNotFound()
	}
	for _, existing := range s.proposals {
		if existing.TenderID == p.TenderID && existing.SupplierID == p.SupplierID && existing.Status.Active() {
			return domain.ErrProposalAlreadyExists()
		}
	}
	s.proposals[p.ID] = p
	return nil
}

func (s *TenderStore) GetProposal(ctx context.Context, id string) (domain.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.proposals[id]
	if !ok {
		return domain.Proposal{}, domain.ErrProposalNotFound()
	}
	return p, nil
}

func (s *TenderStore) UpdateProposalStatus(ctx context.Context, p domain.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.proposals[p.ID]
	if !ok {
		return domain.ErrProposalNotFound()
	}
	cur.Status = p.Status
	cur.UpdatedAt = p.UpdatedAt
	s.proposals[p.ID] = cur
	return nil
}

func (s *TenderStore) ListByTender(ctx context.Context, tenderID string) ([]domain.Proposal, error) {
	return s.filterProposals(func(p domain.Proposal) bool { return p.TenderID == tenderID }), nil
}

func (s *TenderStore) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Proposal, error) {
	return s.filterProposals(func(p domain.Proposal) bool { return p.SupplierID == supplierID }), nil
}

func (s *TenderStore) filterProposals(keep func(domain.Proposal) bool) []domain.Proposal {
	s.mu.RLock()
	out := make([]domain.Proposal, 0)
	for _, p := range s.proposals {
		if keep(p) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *TenderStore) CreateAttachment(ctx context.Context, a domain.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.proposals[a.ProposalID]; !ok {
		return domain.ErrProposalNotFound()
	}
	s.attachments[a.ProposalID] = append(s.attachments[a.ProposalID], a)
	return nil
}

func (s *TenderStore) ListAttachments(ctx context.Context, proposalID string) ([]domain.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.attachments[proposalID]), nil
}
