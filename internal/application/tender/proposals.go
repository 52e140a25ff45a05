package tender

import (
	"context"
	"fmt"
	"strings"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type SubmitInput struct {
	Amount    int64
	Currency  string
	CoverNote string
}

// SubmitProposal records a supplier's bid on a published tender before its
// deadline. A supplier holds at most one active proposal per tender.
func (s *Service) SubmitProposal(ctx context.Context, actor Actor, tenderID string, in SubmitInput) (domain.Proposal, error) {
	if !actor.IsSupplier() {
		return domain.Proposal{}, domain.ErrInsufficientRole(string(domain.RoleSupplier))
	}

	t, err := s.GetTender(ctx, actor, tenderID)
	if err != nil {
		return domain.Proposal{}, err
	}

	now := s.now()
	if !t.AcceptsProposals(now) {
		if t.Status == domain.TenderPublished {
			return domain.Proposal{}, domain.ErrDeadlinePassed()
		}
		return domain.Proposal{}, domain.ErrTenderNotOpen(string(t.Status))
	}

	p, err := domain.NewProposal(t.ID, actor.ID, in.Amount, in.Currency, in.CoverNote, now)
	if err != nil {
		return domain.Proposal{}, err
	}
	if err := s.proposals.CreateProposal(ctx, *p); err != nil {
		return domain.Proposal{}, err
	}

	s.emitProposal(ctx, domain.EventProposalSubmitted, actor.ID, *p)
	return *p, nil
}

func (s *Service) WithdrawProposal(ctx context.Context, actor Actor, id string) (domain.Proposal, error) {
	if !actor.IsSupplier() {
		return domain.Proposal{}, domain.ErrInsufficientRole(string(domain.RoleSupplier))
	}

	p, err := s.ownProposal(ctx, actor, id)
	if err != nil {
		return domain.Proposal{}, err
	}
	if err := p.Withdraw(s.now()); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.proposals.UpdateProposalStatus(ctx, p); err != nil {
		return domain.Proposal{}, err
	}

	s.emitProposal(ctx, domain.EventProposalWithdrawn, actor.ID, p)
	return p, nil
}

// DecideProposal accepts or rejects a submitted proposal and tells the supplier.
func (s *Service) DecideProposal(ctx context.Context, actor Actor, id string, to domain.ProposalStatus) (domain.Proposal, error) {
	if !actor.IsAdmin() {
		return domain.Proposal{}, domain.ErrInsufficientRole(string(domain.RoleAdmin))
	}

	p, err := s.proposals.GetProposal(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Proposal{}, err
	}
	if err := p.Decide(to, s.now()); err != nil {
		return domain.Proposal{}, err
	}
	if err := s.proposals.UpdateProposalStatus(ctx, p); err != nil {
		return domain.Proposal{}, err
	}

	title := "Tender"
	if t, err := s.tenders.GetTender(ctx, p.TenderID); err == nil {
		title = t.Title
	}
	s.notify(ctx, func(n Notifier) error {
		return n.NotifyUsers(ctx, []string{p.SupplierID}, domain.Message{
			Title: fmt.Sprintf("Proposal %s", p.Status),
			Body:  fmt.Sprintf("Your proposal for %q was %s.", title, p.Status),
			Link:  "/supplier/proposals",
		})
	})

	typ := domain.EventProposalRejected
	if p.Status == domain.ProposalAccepted {
		typ = domain.EventProposalAccepted
	}
	s.emitProposal(ctx, typ, actor.ID, p)
	return p, nil
}

func (s *Service) MyProposals(ctx context.Context, actor Actor) ([]domain.Proposal, error) {
	if !actor.IsSupplier() {
		return nil, domain.ErrInsufficientRole(string(domain.RoleSupplier))
	}
	return s.proposals.ListBySupplier(ctx, actor.ID)
}

func (s *Service) TenderProposals(ctx context.Context, actor Actor, tenderID string) ([]domain.Proposal, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrInsufficientRole(string(domain.RoleAdmin))
	}
	t, err := s.tenders.GetTender(ctx, strings.TrimSpace(tenderID))
	if err != nil {
		return nil, err
	}
	return s.proposals.ListByTender(ctx, t.ID)
}

// ownProposal loads a proposal owned by the actor. Other suppliers'
// proposals look like missing ones.
func (s *Service) ownProposal(ctx context.Context, actor Actor, id string) (domain.Proposal, error) {
	p, err := s.proposals.GetProposal(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Proposal{}, err
	}
	if p.SupplierID != actor.ID {
		return domain.Proposal{}, domain.ErrProposalNotFound()
	}
	return p, nil
}
