package icalendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

// ProductID identifies the feed producer.
const ProductID = "-//recurra//Task Feed//EN"

const (
	statusNeedsAction = "NEEDS-ACTION"
	statusCompleted   = "COMPLETED"
)

// Exporter writes tasks as VTODO components. A recurring task becomes one
// master VTODO carrying its RRULE, plus an override per completed
// occurrence. A one-off task becomes a single VTODO due on its date.
type Exporter struct {
	clock domain.Clock
}

// NewExporter creates an exporter. A nil clock uses the system clock.
func NewExporter(clock domain.Clock) *Exporter {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Exporter{clock: clock}
}

// Write encodes the calendar named name to w.
func (e *Exporter) Write(w io.Writer, name string, tasks []*task.Task, occurrences []*task.Occurrence) error {
	cal, err := e.Calendar(name, tasks, occurrences)
	if err != nil {
		return err
	}
	return ical.NewEncoder(w).Encode(cal)
}

// Calendar builds the calendar without encoding it.
func (e *Exporter) Calendar(name string, tasks []*task.Task, occurrences []*task.Occurrence) (*ical.Calendar, error) {
	stamp := e.clock().UTC()

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	if name != "" {
		cal.Props.SetText(ical.PropName, name)
	}

	byTask := make(map[uuid.UUID][]*task.Occurrence)
	for _, o := range occurrences {
		byTask[o.TaskID()] = append(byTask[o.TaskID()], o)
	}

	for _, t := range tasks {
		todos, err := taskComponents(t, byTask[t.ID()], stamp)
		if err != nil {
			return nil, fmt.Errorf("export task %s: %w", t.ID(), err)
		}
		cal.Children = append(cal.Children, todos...)
	}
	return cal, nil
}

// UID returns the iCalendar UID of a task.
func UID(taskID uuid.UUID) string {
	return taskID.String() + "@recurra"
}

func taskComponents(t *task.Task, occurrences []*task.Occurrence, stamp time.Time) ([]*ical.Component, error) {
	master := newToDo(t, stamp)

	rule, recurring := t.Rule()
	if !recurring {
		due := t.DueDate()
		if due == nil {
			return nil, task.ErrMissingDueDate
		}
		master.Props.SetDate(ical.PropDue, *due)
		setStatus(master, findDue(occurrences, *due))
		return []*ical.Component{master}, nil
	}

	anchor := t.Anchor()
	master.Props.SetDate(ical.PropDateTimeStart, anchor)
	for _, opt := range RecurrenceOptions(rule, anchor) {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = opt.RRuleString()
		master.Props.Add(prop)
	}
	master.Props.SetText(ical.PropStatus, statusNeedsAction)

	components := []*ical.Component{master}
	for _, o := range occurrences {
		if !o.IsCompleted() {
			continue
		}
		override := newToDo(t, stamp)
		override.Props.SetDate(ical.PropRecurrenceID, o.DueDate())
		override.Props.SetDate(ical.PropDateTimeStart, o.DueDate())
		setStatus(override, o)
		components = append(components, override)
	}
	return components, nil
}

func newToDo(t *task.Task, stamp time.Time) *ical.Component {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, UID(t.ID()))
	todo.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	todo.Props.SetDateTime(ical.PropCreated, t.CreatedAt().UTC())
	todo.Props.SetDateTime(ical.PropLastModified, t.UpdatedAt().UTC())
	todo.Props.SetText(ical.PropSummary, t.Title())
	if t.Description() != "" {
		todo.Props.SetText(ical.PropDescription, t.Description())
	}
	return todo
}

func setStatus(todo *ical.Component, o *task.Occurrence) {
	if o == nil || !o.IsCompleted() {
		todo.Props.SetText(ical.PropStatus, statusNeedsAction)
		return
	}
	todo.Props.SetText(ical.PropStatus, statusCompleted)
	if at := o.CompletedAt(); at != nil {
		todo.Props.SetDateTime(ical.PropCompleted, at.UTC())
	}
}

func findDue(occurrences []*task.Occurrence, due time.Time) *task.Occurrence {
	for _, o := range occurrences {
		if o.DueDate().Equal(due) {
			return o
		}
	}
	return nil
}
