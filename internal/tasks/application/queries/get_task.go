package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

const (
	// DefaultUpcomingCount is how many next dates GetTask returns by default.
	DefaultUpcomingCount = 5
	// MaxUpcomingCount caps the next dates of a single lookup.
	MaxUpcomingCount = MaxPreviewCount
)

// GetTaskQuery contains the parameters for getting a task.
type GetTaskQuery struct {
	TaskID   uuid.UUID
	Upcoming int
}

// GetTaskHandler handles the GetTaskQuery.
type GetTaskHandler struct {
	taskRepo  task.Repository
	generator *recurrence.Generator
	clock     domain.Clock
}

// NewGetTaskHandler creates a new GetTaskHandler.
func NewGetTaskHandler(taskRepo task.Repository, generator *recurrence.Generator, clock domain.Clock) *GetTaskHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &GetTaskHandler{taskRepo: taskRepo, generator: generator, clock: clock}
}

// Handle returns the task with its rule description and next due dates,
// computed on the fly from today.
func (h *GetTaskHandler) Handle(ctx context.Context, query GetTaskQuery) (*TaskDTO, error) {
	t, err := h.taskRepo.FindByID(ctx, query.TaskID)
	if err != nil {
		return nil, err
	}
	dto := toTaskDTO(t)

	n := query.Upcoming
	if n <= 0 {
		n = DefaultUpcomingCount
	}
	n = min(n, MaxUpcomingCount)
	occurrences, err := t.Occurrences(h.generator, recurrence.NextN(n).Starting(h.clock()))
	if err != nil {
		return nil, err
	}
	dto.NextDates = make([]time.Time, 0, len(occurrences))
	for _, o := range occurrences {
		dto.NextDates = append(dto.NextDates, o.DueDate())
	}
	return &dto, nil
}
