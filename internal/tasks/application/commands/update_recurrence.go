package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/services"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

// UpdateRecurrenceCommand replaces a task's rule. A nil Recurrence turns the
// task into a one-off task on its due date.
type UpdateRecurrenceCommand struct {
	UserID     uuid.UUID
	TaskID     uuid.UUID
	Recurrence *recurrence.RuleSpec
}

// UpdateRecurrenceResult reports how the stored window changed.
type UpdateRecurrenceResult struct {
	Description  string
	Removed      int64
	Materialized int
}

// UpdateRecurrenceHandler handles the UpdateRecurrenceCommand.
type UpdateRecurrenceHandler struct {
	taskRepo     task.Repository
	materializer *services.OccurrenceMaterializer
	outbox       sharedApplication.EventOutbox
	uow          sharedApplication.UnitOfWork
	clock        domain.Clock
}

// NewUpdateRecurrenceHandler creates a new UpdateRecurrenceHandler.
func NewUpdateRecurrenceHandler(
	taskRepo task.Repository,
	materializer *services.OccurrenceMaterializer,
	outbox sharedApplication.EventOutbox,
	uow sharedApplication.UnitOfWork,
	clock domain.Clock,
) *UpdateRecurrenceHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &UpdateRecurrenceHandler{
		taskRepo:     taskRepo,
		materializer: materializer,
		outbox:       outbox,
		uow:          uow,
		clock:        clock,
	}
}

// Handle swaps the rule, drops open future occurrences and regenerates them.
// Completed occurrences are kept.
func (h *UpdateRecurrenceHandler) Handle(ctx context.Context, cmd UpdateRecurrenceCommand) (*UpdateRecurrenceResult, error) {
	var rule *recurrence.Rule
	if cmd.Recurrence != nil {
		r, err := cmd.Recurrence.Build()
		if err != nil {
			return nil, err
		}
		rule = &r
	}

	var result *UpdateRecurrenceResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		if rule != nil {
			err = t.SetRecurrence(*rule)
		} else {
			err = t.ClearRecurrence()
		}
		if err != nil {
			return err
		}
		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		removed, created, err := h.materializer.Rematerialize(txCtx, t, h.clock())
		if err != nil {
			return err
		}
		if err := sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, t); err != nil {
			return err
		}

		result = &UpdateRecurrenceResult{Description: t.Describe(), Removed: removed, Materialized: created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
