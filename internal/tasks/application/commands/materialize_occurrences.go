package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/services"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

// MaterializeOccurrencesCommand stores the rolling window for one task, or
// for every recurring task when TaskID is nil. A zero Today means the clock's
// current date.
type MaterializeOccurrencesCommand struct {
	UserID uuid.UUID
	TaskID *uuid.UUID
	Today  time.Time
}

// MaterializeOccurrencesResult summarizes a run.
type MaterializeOccurrencesResult struct {
	Today          time.Time
	Through        time.Time
	TasksProcessed int
	Created        int
	Failed         int
}

// MaterializeOccurrencesHandler handles the MaterializeOccurrencesCommand.
type MaterializeOccurrencesHandler struct {
	taskRepo     task.Repository
	materializer *services.OccurrenceMaterializer
	outbox       sharedApplication.EventOutbox
	uow          sharedApplication.UnitOfWork
	clock        domain.Clock
	logger       *slog.Logger
}

// NewMaterializeOccurrencesHandler creates a new MaterializeOccurrencesHandler.
func NewMaterializeOccurrencesHandler(
	taskRepo task.Repository,
	materializer *services.OccurrenceMaterializer,
	outbox sharedApplication.EventOutbox,
	uow sharedApplication.UnitOfWork,
	clock domain.Clock,
	logger *slog.Logger,
) *MaterializeOccurrencesHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MaterializeOccurrencesHandler{
		taskRepo:     taskRepo,
		materializer: materializer,
		outbox:       outbox,
		uow:          uow,
		clock:        clock,
		logger:       logger,
	}
}

// Handle materializes each task in its own transaction so one bad task does
// not block the rest. A single-task run returns that task's error.
func (h *MaterializeOccurrencesHandler) Handle(ctx context.Context, cmd MaterializeOccurrencesCommand) (*MaterializeOccurrencesResult, error) {
	today := cmd.Today
	if today.IsZero() {
		today = h.clock()
	}
	result := &MaterializeOccurrencesResult{Today: today, Through: h.materializer.Horizon(today)}

	if cmd.TaskID != nil {
		created, err := h.materializeOne(ctx, cmd.UserID, *cmd.TaskID, today)
		if err != nil {
			return nil, err
		}
		result.TasksProcessed = 1
		result.Created = created
		return result, nil
	}

	tasks, err := h.taskRepo.FindRecurring(ctx)
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		created, err := h.materializeOne(ctx, cmd.UserID, t.ID(), today)
		result.TasksProcessed++
		if err != nil {
			result.Failed++
			errs = append(errs, err)
			h.logger.Error("failed to materialize task occurrences", "task_id", t.ID(), "error", err)
			continue
		}
		result.Created += created
	}

	h.logger.Info("materialization run finished",
		"tasks", result.TasksProcessed,
		"created", result.Created,
		"failed", result.Failed,
	)
	if len(errs) == len(tasks) && len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}

func (h *MaterializeOccurrencesHandler) materializeOne(ctx context.Context, userID, taskID uuid.UUID, today time.Time) (int, error) {
	var created int
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		t, err := h.taskRepo.FindByID(txCtx, taskID)
		if err != nil {
			return err
		}
		created, err = h.materializer.Materialize(txCtx, t, today)
		if err != nil {
			return err
		}
		return sharedApplication.RecordEvents(txCtx, h.outbox, userID, t)
	})
	return created, err
}
