package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"evote/pkg/requestcontext"
)

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher stamps events with identity, time and request metadata, then
// fans them out to every configured store.
type Publisher struct {
	stores []Store
}

// NewPublisher constructs a publisher that fans events out to stores.
func NewPublisher(stores ...Store) *Publisher {
	return &Publisher{stores: stores}
}

// Emit appends the event to all stores. A failing store does not prevent
// delivery to the others; all failures are returned joined.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	event := enrich(ctx, base)
	var errs []error
	for _, s := range p.stores {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func enrich(ctx context.Context, e Event) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.Category == "" {
		e.Category = CategoryFor(e.Action)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if e.ClientIP == "" {
		e.ClientIP = requestcontext.ClientIP(ctx)
	}
	if e.Device == "" {
		e.Device = requestcontext.Device(ctx)
	}
	return e
}
