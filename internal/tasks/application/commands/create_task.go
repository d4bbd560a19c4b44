package commands

import (
	"context"
	"errors"
	"time"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/services"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// CreateTaskCommand contains the data needed to create a task.
// A nil Recurrence creates a one-off task, which needs DueDate.
type CreateTaskCommand struct {
	UserID      uuid.UUID
	ListID      uuid.UUID
	Title       string
	Description string
	DueDate     *time.Time
	Recurrence  *recurrence.RuleSpec
}

// CreateTaskResult contains the result of creating a task. Unproducible is
// set when the rule never yields a date; the task is still created.
type CreateTaskResult struct {
	TaskID       uuid.UUID
	Materialized int
	Unproducible bool
}

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo     task.Repository
	listRepo     tasklist.Repository
	materializer *services.OccurrenceMaterializer
	outbox       sharedApplication.EventOutbox
	uow          sharedApplication.UnitOfWork
	clock        domain.Clock
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(
	taskRepo task.Repository,
	listRepo tasklist.Repository,
	materializer *services.OccurrenceMaterializer,
	outbox sharedApplication.EventOutbox,
	uow sharedApplication.UnitOfWork,
	clock domain.Clock,
) *CreateTaskHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &CreateTaskHandler{
		taskRepo:     taskRepo,
		listRepo:     listRepo,
		materializer: materializer,
		outbox:       outbox,
		uow:          uow,
		clock:        clock,
	}
}

// Handle validates the rule, saves the task and stores its first window of
// occurrences in one transaction.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*CreateTaskResult, error) {
	var rule *recurrence.Rule
	if cmd.Recurrence != nil {
		r, err := cmd.Recurrence.Build()
		if err != nil {
			return nil, err
		}
		rule = &r
	}

	t, err := task.NewTask(cmd.ListID, cmd.UserID, cmd.Title, cmd.DueDate, rule)
	if err != nil {
		return nil, err
	}
	if cmd.Description != "" {
		t.SetDescription(cmd.Description)
	}

	var result *CreateTaskResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		list, err := h.listRepo.FindByID(txCtx, cmd.ListID)
		if err != nil {
			return err
		}
		if !list.IsMember(cmd.UserID) {
			return tasklist.ErrNotMember
		}

		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return err
		}
		created, err := h.materializer.Materialize(txCtx, t, h.clock())
		if err != nil {
			return err
		}
		if err := sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, t); err != nil {
			return err
		}

		result = &CreateTaskResult{TaskID: t.ID(), Materialized: created}
		if created == 0 && t.IsRecurring() {
			if err := h.materializer.CheckProducible(t); err != nil {
				if !errors.Is(err, recurrence.ErrUnproducibleRule) {
					return err
				}
				result.Unproducible = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
