package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// UpdateTaskListCommand renames a list or changes its description.
type UpdateTaskListCommand struct {
	UserID      uuid.UUID
	ListID      uuid.UUID
	Name        *string
	Description *string
}

// UpdateTaskListHandler handles the UpdateTaskListCommand.
type UpdateTaskListHandler struct {
	listRepo tasklist.Repository
	outbox   sharedApplication.EventOutbox
	uow      sharedApplication.UnitOfWork
}

// NewUpdateTaskListHandler creates a new UpdateTaskListHandler.
func NewUpdateTaskListHandler(listRepo tasklist.Repository, outbox sharedApplication.EventOutbox, uow sharedApplication.UnitOfWork) *UpdateTaskListHandler {
	return &UpdateTaskListHandler{listRepo: listRepo, outbox: outbox, uow: uow}
}

// Handle updates the list. Only owners and admins may edit it.
func (h *UpdateTaskListHandler) Handle(ctx context.Context, cmd UpdateTaskListCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		list, err := h.listRepo.FindByID(txCtx, cmd.ListID)
		if err != nil {
			return err
		}
		if err := list.RequireManager(cmd.UserID); err != nil {
			return err
		}
		if err := list.Update(cmd.Name, cmd.Description); err != nil {
			return err
		}
		if err := h.listRepo.Save(txCtx, list); err != nil {
			return err
		}
		return sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, list)
	})
}
