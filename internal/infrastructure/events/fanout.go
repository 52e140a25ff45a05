package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/baechuer/eprocure-portal/internal/domain"
)

// Sink is anything that takes a lifecycle event. Webhook client, broker
// publisher and the noop publisher all satisfy it.
type Sink interface {
	Publish(ctx context.Context, evt domain.LifecycleEvent) error
}

type named struct {
	name string
	sink Sink
}

// Fanout delivers each event to every registered sink in order. A failing
// sink does not stop the rest.
type Fanout struct {
	sinks []named
	lg    zerolog.Logger
}

func NewFanout(lg zerolog.Logger) *Fanout {
	return &Fanout{lg: lg.With().Str("component", "event_fanout").Logger()}
}

// Add registers a sink. nil sinks are ignored so optional backends can be
// passed unconditionally.
func (f *Fanout) Add(name string, s Sink) *Fanout {
	if s != nil {
		f.sinks = append(f.sinks, named{name: name, sink: s})
	}
	return f
}

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Publish(ctx context.Context, evt domain.LifecycleEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.sink.Publish(ctx, evt); err != nil {
			f.lg.Warn().
				Err(err).
				Str("sink", s.name).
				Str("type", string(evt.Type)).
				Str("message_id", evt.ID).
				Str("request_id", evt.RequestID).
				Msg("lifecycle event delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
