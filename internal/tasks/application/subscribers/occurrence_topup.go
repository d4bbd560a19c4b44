// Package subscribers reacts to task events delivered by the event bus.
package subscribers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

// Materializer runs a materialization for a task.
type Materializer interface {
	Handle(ctx context.Context, cmd commands.MaterializeOccurrencesCommand) (*commands.MaterializeOccurrencesResult, error)
}

// OccurrenceTopUpSubscriber tops up a task's stored window when one of its
// occurrences is completed, so the task keeps the same number of open
// occurrences ahead.
type OccurrenceTopUpSubscriber struct {
	materializer Materializer
	logger       *slog.Logger
}

// NewOccurrenceTopUpSubscriber creates a new subscriber.
func NewOccurrenceTopUpSubscriber(materializer Materializer, logger *slog.Logger) *OccurrenceTopUpSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &OccurrenceTopUpSubscriber{materializer: materializer, logger: logger}
}

// RoutingKeys returns the events this subscriber handles.
func (s *OccurrenceTopUpSubscriber) RoutingKeys() []string {
	return []string{task.RoutingKeyOccurrenceCompleted}
}

type occurrenceCompletedPayload struct {
	TaskID uuid.UUID `json:"task_id"`
}

// Handle materializes the completed occurrence's task.
func (s *OccurrenceTopUpSubscriber) Handle(ctx context.Context, event *eventbus.Envelope) error {
	var payload occurrenceCompletedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return fmt.Errorf("decode %s: %w", event.RoutingKey, err)
	}
	if payload.TaskID == uuid.Nil {
		s.logger.Warn("occurrence event without task id", "event_id", event.EventID)
		return nil
	}

	result, err := s.materializer.Handle(ctx, commands.MaterializeOccurrencesCommand{
		UserID: event.Metadata.UserID,
		TaskID: &payload.TaskID,
	})
	if err != nil {
		return fmt.Errorf("top up task %s: %w", payload.TaskID, err)
	}

	s.logger.Debug("occurrence window topped up",
		"task_id", payload.TaskID,
		"created", result.Created,
		"correlation_id", event.Metadata.CorrelationID,
	)
	return nil
}
