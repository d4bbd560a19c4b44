package queries

import (
	"context"
	"io"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// CalendarWriter encodes tasks as an iCalendar feed.
type CalendarWriter interface {
	Write(w io.Writer, name string, tasks []*task.Task, occurrences []*task.Occurrence) error
}

// ExportCalendarQuery exports one list. A zero UserID skips the membership check.
type ExportCalendarQuery struct {
	ListID uuid.UUID
	UserID uuid.UUID
}

// ExportCalendarHandler handles the ExportCalendarQuery.
type ExportCalendarHandler struct {
	listRepo       tasklist.Repository
	taskRepo       task.Repository
	occurrenceRepo task.OccurrenceRepository
	writer         CalendarWriter
}

// NewExportCalendarHandler creates a new ExportCalendarHandler.
func NewExportCalendarHandler(
	listRepo tasklist.Repository,
	taskRepo task.Repository,
	occurrenceRepo task.OccurrenceRepository,
	writer CalendarWriter,
) *ExportCalendarHandler {
	return &ExportCalendarHandler{
		listRepo:       listRepo,
		taskRepo:       taskRepo,
		occurrenceRepo: occurrenceRepo,
		writer:         writer,
	}
}

// CalendarFeed is a list with the tasks and stored occurrences its calendar
// is built from.
type CalendarFeed struct {
	List        *tasklist.TaskList
	Tasks       []*task.Task
	Occurrences []*task.Occurrence
}

// Handle writes the list's tasks and stored occurrences to w.
func (h *ExportCalendarHandler) Handle(ctx context.Context, query ExportCalendarQuery, w io.Writer) error {
	feed, err := h.Load(ctx, query)
	if err != nil {
		return err
	}
	return h.writer.Write(w, feed.List.Name(), feed.Tasks, feed.Occurrences)
}

// Load returns the data behind a list's calendar without encoding it.
func (h *ExportCalendarHandler) Load(ctx context.Context, query ExportCalendarQuery) (*CalendarFeed, error) {
	list, err := h.listRepo.FindByID(ctx, query.ListID)
	if err != nil {
		return nil, err
	}
	if query.UserID != uuid.Nil && !list.IsMember(query.UserID) {
		return nil, tasklist.ErrNotMember
	}

	tasks, err := h.taskRepo.FindByListID(ctx, list.ID())
	if err != nil {
		return nil, err
	}
	listID := list.ID()
	occurrences, err := h.occurrenceRepo.Find(ctx, task.OccurrenceFilter{ListID: &listID})
	if err != nil {
		return nil, err
	}
	return &CalendarFeed{List: list, Tasks: tasks, Occurrences: occurrences}, nil
}
