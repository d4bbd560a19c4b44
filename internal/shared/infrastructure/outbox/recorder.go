package outbox

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
)

// Recorder implements application.EventOutbox on a Repository.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a recorder.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record serializes events and stores them.
func (r *Recorder) Record(ctx context.Context, events []domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", event.RoutingKey(), err)
		}
		msgs = append(msgs, msg)
	}
	return r.repo.SaveBatch(ctx, msgs)
}
