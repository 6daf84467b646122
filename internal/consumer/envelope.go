package consumer

import (
	"context"

	"github.com/Couks/projeto-tfc-sub000/internal/domain"
)

// Envelope carries a parsed event through the pipeline together with the
// callbacks that settle its source message. An envelope settles at most
// once; later Ack/Nack calls are no-ops.
type Envelope struct {
	Event   *domain.Event
	ack     func(context.Context) error
	nack    func(context.Context) error
	settled bool
}

func NewEnvelope(event *domain.Event, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Event: event,
		ack:   ack,
		nack:  nack,
	}
}

// Ack settles the envelope as successfully processed.
func (e *Envelope) Ack(ctx context.Context) error {
	if e.settled || e.ack == nil {
		return nil
	}
	e.settled = true
	return e.ack(ctx)
}

// Nack settles the envelope as failed, leaving the source message for
// redelivery.
func (e *Envelope) Nack(ctx context.Context) error {
	if e.settled || e.nack == nil {
		return nil
	}
	e.settled = true
	return e.nack(ctx)
}
