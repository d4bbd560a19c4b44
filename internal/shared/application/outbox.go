package application

import (
	"context"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/google/uuid"
)

// EventOutbox stores domain events for publication after commit.
type EventOutbox interface {
	Record(ctx context.Context, events []domain.DomainEvent) error
}

// EventSource is an aggregate with pending domain events.
type EventSource interface {
	PullDomainEvents() []domain.DomainEvent
}

// RecordEvents drains the pending events of each aggregate, stamps them with
// the acting user's metadata and stores them in the outbox. It must run in the
// same transaction as the state change.
func RecordEvents(ctx context.Context, outbox EventOutbox, userID uuid.UUID, aggregates ...EventSource) error {
	var events []domain.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.PullDomainEvents()...)
	}
	if len(events) == 0 {
		return nil
	}
	ApplyEventMetadata(events, EventMetadataFromContext(ctx, userID))
	return outbox.Record(ctx, events)
}
