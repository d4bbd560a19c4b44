package commands

import (
	"context"
	"time"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/services"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// UpdateTaskCommand edits a task's title, description or due date.
// Nil fields are left unchanged.
type UpdateTaskCommand struct {
	UserID       uuid.UUID
	TaskID       uuid.UUID
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
}

// UpdateTaskResult reports how the stored occurrences changed.
type UpdateTaskResult struct {
	TaskID       uuid.UUID
	DueChanged   bool
	Removed      int64
	Materialized int
}

// UpdateTaskHandler handles the UpdateTaskCommand.
type UpdateTaskHandler struct {
	taskRepo     task.Repository
	listRepo     tasklist.Repository
	materializer *services.OccurrenceMaterializer
	outbox       sharedApplication.EventOutbox
	uow          sharedApplication.UnitOfWork
	clock        domain.Clock
}

// NewUpdateTaskHandler creates a new UpdateTaskHandler.
func NewUpdateTaskHandler(
	taskRepo task.Repository,
	listRepo tasklist.Repository,
	materializer *services.OccurrenceMaterializer,
	outbox sharedApplication.EventOutbox,
	uow sharedApplication.UnitOfWork,
	clock domain.Clock,
) *UpdateTaskHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &UpdateTaskHandler{
		taskRepo:     taskRepo,
		listRepo:     listRepo,
		materializer: materializer,
		outbox:       outbox,
		uow:          uow,
		clock:        clock,
	}
}

// Handle applies the edit. Moving the due date moves the anchor of a
// recurring task, or the single occurrence of a one-off task, so the stored
// occurrences are regenerated.
func (h *UpdateTaskHandler) Handle(ctx context.Context, cmd UpdateTaskCommand) (*UpdateTaskResult, error) {
	var result *UpdateTaskResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}
		list, err := h.listRepo.FindByID(txCtx, t.ListID())
		if err != nil {
			return err
		}
		if !list.IsMember(cmd.UserID) {
			return tasklist.ErrNotMember
		}

		dueChanged, err := t.Apply(task.Edit{
			Title:        cmd.Title,
			Description:  cmd.Description,
			DueDate:      cmd.DueDate,
			ClearDueDate: cmd.ClearDueDate,
		})
		if err != nil {
			return err
		}
		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		result = &UpdateTaskResult{TaskID: t.ID(), DueChanged: dueChanged}
		if dueChanged {
			result.Removed, result.Materialized, err = h.materializer.Rematerialize(txCtx, t, h.clock())
			if err != nil {
				return err
			}
		}
		return sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, t)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
