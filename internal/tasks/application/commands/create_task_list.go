package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// CreateTaskListCommand contains the data needed to create a list.
type CreateTaskListCommand struct {
	UserID      uuid.UUID
	Name        string
	Description string
}

// CreateTaskListResult contains the result of creating a list.
type CreateTaskListResult struct {
	ListID uuid.UUID
}

// CreateTaskListHandler handles the CreateTaskListCommand.
type CreateTaskListHandler struct {
	listRepo tasklist.Repository
	outbox   sharedApplication.EventOutbox
	uow      sharedApplication.UnitOfWork
}

// NewCreateTaskListHandler creates a new CreateTaskListHandler.
func NewCreateTaskListHandler(listRepo tasklist.Repository, outbox sharedApplication.EventOutbox, uow sharedApplication.UnitOfWork) *CreateTaskListHandler {
	return &CreateTaskListHandler{listRepo: listRepo, outbox: outbox, uow: uow}
}

// Handle creates the list with the caller as its owner.
func (h *CreateTaskListHandler) Handle(ctx context.Context, cmd CreateTaskListCommand) (*CreateTaskListResult, error) {
	list, err := tasklist.NewTaskList(cmd.UserID, cmd.Name, cmd.Description)
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.listRepo.Save(txCtx, list); err != nil {
			return err
		}
		return sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, list)
	})
	if err != nil {
		return nil, err
	}
	return &CreateTaskListResult{ListID: list.ID()}, nil
}
