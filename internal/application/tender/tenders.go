package tender

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

type CreateTenderInput struct {
	Reference   string
	Title       string
	Description string
	Deadline    time.Time
}

func (s *Service) CreateTender(ctx context.Context, actor Actor, in CreateTenderInput) (domain.Tender, error) {
	if !actor.IsAdmin() {
		return domain.Tender{}, domain.ErrInsufficientRole(string(domain.RoleAdmin))
	}

	t, err := domain.NewTenderDraft(actor.ID, in.Reference, in.Title, in.Description, in.Deadline, s.now())
	if err != nil {
		return domain.Tender{}, err
	}
	if err := s.tenders.CreateTender(ctx, *t); err != nil {
		return domain.Tender{}, err
	}
	return *t, nil
}

// PublishTender opens a draft for proposals and tells every supplier.
func (s *Service) PublishTender(ctx context.Context, actor Actor, id string) (domain.Tender, error) {
	t, err := s.transition(ctx, actor, id, (*domain.Tender).Publish)
	if err != nil {
		return domain.Tender{}, err
	}

	s.notify(ctx, func(n Notifier) error {
		return n.NotifyRole(ctx, domain.RoleSupplier, domain.Message{
			Title: "New tender: " + t.Title,
			Body:  "Submissions close " + t.Deadline.Format(time.RFC1123),
			Link:  "/tenders/" + t.ID,
		})
	})
	s.emitTender(ctx, domain.EventTenderPublished, actor.ID, t)
	return t, nil
}

func (s *Service) CloseTender(ctx context.Context, actor Actor, id string) (domain.Tender, error) {
	t, err := s.transition(ctx, actor, id, (*domain.Tender).Close)
	if err != nil {
		return domain.Tender{}, err
	}
	s.emitTender(ctx, domain.EventTenderClosed, actor.ID, t)
	return t, nil
}

func (s *Service) transition(ctx context.Context, actor Actor, id string, apply func(*domain.Tender, time.Time) error) (domain.Tender, error) {
	if !actor.IsAdmin() {
		return domain.Tender{}, domain.ErrInsufficientRole(string(domain.RoleAdmin))
	}
	t, err := s.tenders.GetTender(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Tender{}, err
	}
	if err := apply(&t, s.now()); err != nil {
		return domain.Tender{}, err
	}
	if err := s.tenders.UpdateTenderStatus(ctx, t); err != nil {
		return domain.Tender{}, err
	}
	return t, nil
}

type ListInput struct {
	Statuses []domain.TenderStatus
	Limit    int
	Offset   int
}

// ListTenders returns what the actor may see: admins see every status,
// everyone else published (and closed, when asked for explicitly).
func (s *Service) ListTenders(ctx context.Context, actor Actor, in ListInput) ([]domain.Tender, error) {
	for _, st := range in.Statuses {
		if !st.Valid() {
			return nil, domain.ErrInvalidField("status", "unknown tender status")
		}
	}

	statuses := in.Statuses
	if !actor.IsAdmin() {
		statuses = slices.DeleteFunc(slices.Clone(statuses), func(st domain.TenderStatus) bool {
			return st == domain.TenderDraft
		})
		if len(statuses) == 0 {
			statuses = []domain.TenderStatus{domain.TenderPublished}
		}
	}

	return s.tenders.ListTenders(ctx, TenderFilter{
		Statuses: statuses,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
}

// GetTender hides drafts from non-admins.
func (s *Service) GetTender(ctx context.Context, actor Actor, id string) (domain.Tender, error) {
	t, err := s.tenders.GetTender(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Tender{}, err
	}
	if t.Status == domain.TenderDraft && !actor.IsAdmin() {
		return domain.Tender{}, domain.ErrTenderNotFound()
	}
	return t, nil
}
