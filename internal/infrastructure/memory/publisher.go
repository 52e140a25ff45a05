package memory

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// NoopPublisher logs lifecycle events when no webhook or broker is configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) Publish(ctx context.Context, evt domain.LifecycleEvent) error {
	log.Debug().
		Str("component", "noop_publisher").
		Str("type", string(evt.Type)).
		Str("tender_id", evt.TenderID).
		Str("proposal_id", evt.ProposalID).
		Msg("lifecycle event")
	return nil
}
