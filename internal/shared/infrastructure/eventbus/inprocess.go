package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// InProcessBus delivers published envelopes synchronously to registered
// handlers. It stands in for RabbitMQ in local mode.
type InProcessBus struct {
	registry *Registry
	logger   *slog.Logger
}

// NewInProcessBus creates a bus with an empty registry.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{registry: NewRegistry(logger), logger: logger}
}

// Register adds a handler.
func (b *InProcessBus) Register(handler Handler) {
	b.registry.Register(handler)
}

// Registry exposes the handler registry.
func (b *InProcessBus) Registry() *Registry {
	return b.registry
}

// Publish decodes the envelope and dispatches it. A malformed payload is
// logged and dropped; handler failures are returned so the outbox retries.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	var event Envelope
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Error("failed to unmarshal event envelope", "routing_key", routingKey, "error", err)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	start := time.Now()
	if err := b.registry.Dispatch(ctx, &event); err != nil {
		return err
	}
	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (b *InProcessBus) Close() error { return nil }
