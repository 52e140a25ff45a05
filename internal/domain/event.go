package domain

import "time"

type EventType string

const (
	EventTenderPublished   EventType = "tender.published"
	EventTenderClosed      EventType = "tender.closed"
	EventProposalSubmitted EventType = "proposal.submitted"
	EventProposalWithdrawn EventType = "proposal.withdrawn"
	EventProposalAccepted  EventType = "proposal.accepted"
	EventProposalRejected  EventType = "proposal.rejected"
)

// LifecycleEvent is the envelope sent to the automation webhook and the
// broker. The type doubles as the routing key.
type LifecycleEvent struct {
	Version    int       `json:"version"`
	ID         string    `json:"message_id"`
	Type       EventType `json:"type"`
	Producer   string    `json:"producer"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id,omitempty"`
	TenderID   string    `json:"tender_id"`
	ProposalID string    `json:"proposal_id,omitempty"`
	// Payload carries the tender or proposal snapshot.
	Payload any `json:"payload,omitempty"`
}
