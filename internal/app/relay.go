package app

import (
	"context"

	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
)

const relayBuffer = 64

type relayed struct {
	ctx   context.Context //nolint:containedctx // Delivered with its event
	event domain.Event
}

// relay hands build events from the builder goroutine to the observers,
// which run on the goroutine calling Run. Order is preserved.
type relay struct {
	events    chan relayed
	observers []ports.Observer
}

func newRelay(observers []ports.Observer) *relay {
	return &relay{
		events:    make(chan relayed, relayBuffer),
		observers: observers,
	}
}

func (r *relay) OnEvent(ctx context.Context, e domain.Event) {
	r.events <- relayed{ctx: ctx, event: e}
}

// Run delivers events until Close is called and the queue is drained.
func (r *relay) Run() error {
	for ev := range r.events {
		for _, o := range r.observers {
			o.OnEvent(ev.ctx, ev.event)
		}
	}
	return nil
}

func (r *relay) Close() {
	close(r.events)
}
