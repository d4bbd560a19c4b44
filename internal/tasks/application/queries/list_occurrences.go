package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

// ListOccurrencesQuery selects the occurrences to bucket. A nil ListID covers
// every list; a zero Today means the clock's current date.
type ListOccurrencesQuery struct {
	ListID           *uuid.UUID
	TaskID           *uuid.UUID
	IncludeCompleted bool
	Today            time.Time
}

// OccurrenceBuckets is the Overdue / Today / Upcoming view.
type OccurrenceBuckets struct {
	Today    time.Time       `json:"today"`
	Overdue  []OccurrenceDTO `json:"overdue"`
	DueToday []OccurrenceDTO `json:"due_today"`
	Upcoming []OccurrenceDTO `json:"upcoming"`
}

// Len returns the number of occurrences across all buckets.
func (b OccurrenceBuckets) Len() int {
	return len(b.Overdue) + len(b.DueToday) + len(b.Upcoming)
}

// ListOccurrencesHandler handles the ListOccurrencesQuery.
type ListOccurrencesHandler struct {
	taskRepo       task.Repository
	occurrenceRepo task.OccurrenceRepository
	clock          domain.Clock
}

// NewListOccurrencesHandler creates a new ListOccurrencesHandler.
func NewListOccurrencesHandler(taskRepo task.Repository, occurrenceRepo task.OccurrenceRepository, clock domain.Clock) *ListOccurrencesHandler {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &ListOccurrencesHandler{taskRepo: taskRepo, occurrenceRepo: occurrenceRepo, clock: clock}
}

// Handle loads the stored occurrences and classifies them against today.
func (h *ListOccurrencesHandler) Handle(ctx context.Context, query ListOccurrencesQuery) (*OccurrenceBuckets, error) {
	today := query.Today
	if today.IsZero() {
		today = h.clock()
	}
	today = recurrence.DateOf(today)

	var (
		tasks []*task.Task
		err   error
	)
	if query.ListID != nil {
		tasks, err = h.taskRepo.FindByListID(ctx, *query.ListID)
	} else {
		tasks, err = h.taskRepo.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*task.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID()] = t
	}

	occurrences, err := h.occurrenceRepo.Find(ctx, task.OccurrenceFilter{ListID: query.ListID, TaskID: query.TaskID})
	if err != nil {
		return nil, err
	}

	dtos := make([]OccurrenceDTO, 0, len(occurrences))
	for _, o := range occurrences {
		t, ok := byID[o.TaskID()]
		if !ok {
			continue
		}
		dtos = append(dtos, OccurrenceDTO{
			ID:             o.ID(),
			TaskID:         t.ID(),
			ListID:         t.ListID(),
			TaskTitle:      t.Title(),
			Due:            o.DueDate(),
			Completed:      o.IsCompleted(),
			CompletedAt:    o.CompletedAt(),
			RecurrenceText: t.Describe(),
		})
	}

	buckets := recurrence.Classify(dtos, today, query.IncludeCompleted)
	return &OccurrenceBuckets{
		Today:    today,
		Overdue:  nonNil(buckets.Overdue),
		DueToday: nonNil(buckets.Today),
		Upcoming: nonNil(buckets.Upcoming),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
