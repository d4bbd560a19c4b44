// Package eventbus carries domain events from the outbox to their consumers,
// either in process or through a RabbitMQ topic exchange.
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/google/uuid"
)

// Envelope is the wire format of a published event.
type Envelope struct {
	EventID       uuid.UUID            `json:"event_id"`
	AggregateID   uuid.UUID            `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	RoutingKey    string               `json:"routing_key"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Metadata      domain.EventMetadata `json:"metadata"`
	Payload       json.RawMessage      `json:"payload"`
}

// DecodePayload unmarshals the event body into v.
func (e *Envelope) DecodePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Handler reacts to events with the routing keys it declares.
type Handler interface {
	RoutingKeys() []string
	Handle(ctx context.Context, event *Envelope) error
}

// Consumer receives events from a broker and dispatches them to handlers.
type Consumer interface {
	// Start blocks until ctx is done or the consumer is closed.
	Start(ctx context.Context) error
	Register(handler Handler)
	Close() error
}
