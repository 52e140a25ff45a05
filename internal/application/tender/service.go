package tender

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/eprocure-portal/internal/domain"
	"github.com/baechuer/eprocure-portal/internal/logger"
	appCtx "github.com/baechuer/eprocure-portal/internal/pkg/context"
)

const (
	eventVersion = 1
	producer     = "eprocure-portal"
)

// Actor is the already-resolved caller of a use case.
type Actor struct {
	ID   string
	Role domain.Role
}

func (a Actor) IsAdmin() bool    { return a.Role == domain.RoleAdmin }
func (a Actor) IsSupplier() bool { return a.Role == domain.RoleSupplier }

type Config struct {
	SignedURLTTL  time.Duration
	MaxUploadSize int64
	// EmitTimeout bounds each fire-and-forget event delivery.
	EmitTimeout time.Duration
}

type Service struct {
	tenders   TenderRepo
	proposals ProposalRepo
	objects   ObjectStore
	events    EventPublisher
	notifier  Notifier

	signedURLTTL  time.Duration
	maxUploadSize int64
	emitTimeout   time.Duration

	now      func() time.Time
	inflight sync.WaitGroup
}

func NewService(tenders TenderRepo, proposals ProposalRepo, objects ObjectStore, events EventPublisher, notifier Notifier, cfg Config) *Service {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 15 * time.Minute
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}
	if cfg.EmitTimeout <= 0 {
		cfg.EmitTimeout = 5 * time.Second
	}
	return &Service{
		tenders:       tenders,
		proposals:     proposals,
		objects:       objects,
		events:        events,
		notifier:      notifier,
		signedURLTTL:  cfg.SignedURLTTL,
		maxUploadSize: cfg.MaxUploadSize,
		emitTimeout:   cfg.EmitTimeout,
		now:           time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) MaxUploadSize() int64 { return s.maxUploadSize }

// Wait blocks until pending event deliveries finish. Used at shutdown.
func (s *Service) Wait() { s.inflight.Wait() }

type tenderPayload struct {
	Reference string              `json:"reference,omitempty"`
	Title     string              `json:"title"`
	Status    domain.TenderStatus `json:"status"`
	Deadline  time.Time           `json:"deadline"`
}

type proposalPayload struct {
	SupplierID string                `json:"supplier_id"`
	Amount     int64                 `json:"amount"`
	Currency   string                `json:"currency"`
	Status     domain.ProposalStatus `json:"status"`
}

func (s *Service) emitTender(ctx context.Context, typ domain.EventType, actorID string, t domain.Tender) {
	s.emit(ctx, domain.LifecycleEvent{
		Type:     typ,
		ActorID:  actorID,
		TenderID: t.ID,
		Payload: tenderPayload{
			Reference: t.Reference,
			Title:     t.Title,
			Status:    t.Status,
			Deadline:  t.Deadline,
		},
	})
}

func (s *Service) emitProposal(ctx context.Context, typ domain.EventType, actorID string, p domain.Proposal) {
	s.emit(ctx, domain.LifecycleEvent{
		Type:       typ,
		ActorID:    actorID,
		TenderID:   p.TenderID,
		ProposalID: p.ID,
		Payload: proposalPayload{
			SupplierID: p.SupplierID,
			Amount:     p.Amount,
			Currency:   p.Currency,
			Status:     p.Status,
		},
	})
}

// emit delivers ev in the background. The request context is detached so a
// finished request does not cancel delivery; failures are only logged.
func (s *Service) emit(ctx context.Context, ev domain.LifecycleEvent) {
	if s.events == nil {
		return
	}
	ev.Version = eventVersion
	ev.ID = uuid.NewString()
	ev.Producer = producer
	ev.RequestID = appCtx.GetRequestID(ctx)
	ev.OccurredAt = s.now().UTC()

	bg := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(bg, s.emitTimeout)
		defer cancel()

		if err := s.events.Publish(ctx, ev); err != nil {
			logger.WithCtx(ctx).Warn().
				Err(err).
				Str("type", string(ev.Type)).
				Str("message_id", ev.ID).
				Msg("lifecycle event not delivered")
		}
	}()
}

// notify is best effort: a failed notification never fails the use case.
func (s *Service) notify(ctx context.Context, send func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := send(s.notifier); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Msg("notification fan-out failed")
	}
}
