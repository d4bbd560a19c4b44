package commands

import (
	"context"
	"time"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

// ToggleOccurrenceCommand flips an occurrence between done and not done.
// When Complete is set the occurrence is moved to that state instead, and
// ErrAlreadyCompleted or ErrNotCompleted is returned if it is already there.
type ToggleOccurrenceCommand struct {
	UserID       uuid.UUID
	OccurrenceID uuid.UUID
	Complete     *bool
}

// ToggleOccurrenceResult is the occurrence state after the toggle.
type ToggleOccurrenceResult struct {
	OccurrenceID uuid.UUID
	TaskID       uuid.UUID
	DueDate      time.Time
	Completed    bool
	CompletedAt  *time.Time
}

// ToggleOccurrenceHandler handles the ToggleOccurrenceCommand.
type ToggleOccurrenceHandler struct {
	occurrenceRepo task.OccurrenceRepository
	completionRepo task.CompletionRepository
	outbox         sharedApplication.EventOutbox
	uow            sharedApplication.UnitOfWork
	clock          domain.Clock
}

// NewToggleOccurrenceHandler creates a new ToggleOccurrenceHandler.
func NewToggleOccurrenceHandler(
	occurrenceRepo task.OccurrenceRepository,
	completionRepo task.CompletionRepository,
	outbox sharedApplication.EventOutbox,
	uow sharedApplication.UnitOfWork,
	clock domain.Clock,
) *ToggleOccurrenceHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &ToggleOccurrenceHandler{
		occurrenceRepo: occurrenceRepo,
		completionRepo: completionRepo,
		outbox:         outbox,
		uow:            uow,
		clock:          clock,
	}
}

// Handle toggles completion. Completing appends an audit record; reopening
// leaves earlier records in place.
func (h *ToggleOccurrenceHandler) Handle(ctx context.Context, cmd ToggleOccurrenceCommand) (*ToggleOccurrenceResult, error) {
	var result *ToggleOccurrenceResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		o, err := h.occurrenceRepo.FindByID(txCtx, cmd.OccurrenceID)
		if err != nil {
			return err
		}

		completion, err := h.apply(o, cmd)
		if err != nil {
			return err
		}
		if err := h.occurrenceRepo.Save(txCtx, o); err != nil {
			return err
		}
		if completion != nil {
			if err := h.completionRepo.Append(txCtx, completion); err != nil {
				return err
			}
		}
		if err := sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, o); err != nil {
			return err
		}

		result = &ToggleOccurrenceResult{
			OccurrenceID: o.ID(),
			TaskID:       o.TaskID(),
			DueDate:      o.DueDate(),
			Completed:    o.IsCompleted(),
			CompletedAt:  o.CompletedAt(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *ToggleOccurrenceHandler) apply(o *task.Occurrence, cmd ToggleOccurrenceCommand) (*task.Completion, error) {
	switch {
	case cmd.Complete == nil:
		return o.Toggle(cmd.UserID, h.clock())
	case *cmd.Complete:
		return o.Complete(cmd.UserID, h.clock())
	default:
		return nil, o.Reopen(cmd.UserID)
	}
}
