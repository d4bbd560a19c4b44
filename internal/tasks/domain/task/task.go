package task

import (
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/google/uuid"
)

var (
	ErrEmptyTitle      = errors.New("task title cannot be empty")
	ErrMissingDueDate  = errors.New("non-recurring task requires a due date")
	ErrNotRecurring    = errors.New("task is not recurring")
	ErrTaskNotFound    = errors.New("task not found")
	ErrDueDateConflict = errors.New("cannot set and clear the due date together")
)

// Task is a unit of work in a task list. A recurring task owns exactly one
// recurrence rule; a non-recurring task has a due date and no rule.
type Task struct {
	domain.BaseAggregateRoot
	listID      uuid.UUID
	createdBy   uuid.UUID
	title       string
	description string
	dueDate     *time.Time
	rule        *recurrence.Rule
}

// NewTask creates a task. rule may be nil for a one-off task, in which case
// dueDate is required.
func NewTask(listID, createdBy uuid.UUID, title string, dueDate *time.Time, rule *recurrence.Rule) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if rule != nil && rule.IsZero() {
		return nil, recurrence.ErrInvalidRule
	}
	if rule == nil && dueDate == nil {
		return nil, ErrMissingDueDate
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		listID:            listID,
		createdBy:         createdBy,
		title:             title,
		dueDate:           normalizeDate(dueDate),
	}
	if rule != nil {
		r := *rule
		t.rule = &r
	}

	t.AddDomainEvent(NewTaskCreated(t))
	return t, nil
}

// RehydrateTask recreates a task from persisted state.
func RehydrateTask(
	entity domain.BaseEntity,
	listID, createdBy uuid.UUID,
	title, description string,
	dueDate *time.Time,
	rule *recurrence.Rule,
) *Task {
	return &Task{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		listID:            listID,
		createdBy:         createdBy,
		title:             title,
		description:       description,
		dueDate:           normalizeDate(dueDate),
		rule:              rule,
	}
}

func (t *Task) ListID() uuid.UUID    { return t.listID }
func (t *Task) CreatedBy() uuid.UUID { return t.createdBy }
func (t *Task) Title() string        { return t.title }
func (t *Task) Description() string  { return t.description }
func (t *Task) DueDate() *time.Time  { return t.dueDate }
func (t *Task) IsRecurring() bool    { return t.rule != nil }

// Rule returns the recurrence rule and whether the task has one.
func (t *Task) Rule() (recurrence.Rule, bool) {
	if t.rule == nil {
		return recurrence.Rule{}, false
	}
	return *t.rule, true
}

// Anchor is the date generation starts from: the due date when set,
// otherwise the creation date.
func (t *Task) Anchor() time.Time {
	if t.dueDate != nil {
		return *t.dueDate
	}
	return recurrence.DateOf(t.CreatedAt())
}

// Rename updates the title.
func (t *Task) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	t.title = title
	t.Touch()
	return nil
}

// SetDescription updates the description.
func (t *Task) SetDescription(description string) {
	t.description = strings.TrimSpace(description)
	t.Touch()
}

// SetDueDate changes the due date. Only recurring tasks may drop it.
func (t *Task) SetDueDate(dueDate *time.Time) error {
	if dueDate == nil && t.rule == nil {
		return ErrMissingDueDate
	}
	t.dueDate = normalizeDate(dueDate)
	t.Touch()
	return nil
}

// Edit names the fields an update changes. Nil fields are left alone.
// ClearDueDate drops the due date of a recurring task.
type Edit struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Apply changes the edited fields and reports whether the due date moved.
// Nothing changes when the edit is invalid. A TaskUpdated event is recorded
// when at least one field differs.
func (t *Task) Apply(edit Edit) (dueChanged bool, err error) {
	if edit.ClearDueDate && edit.DueDate != nil {
		return false, ErrDueDateConflict
	}
	if edit.Title != nil && strings.TrimSpace(*edit.Title) == "" {
		return false, ErrEmptyTitle
	}
	if edit.ClearDueDate && t.rule == nil {
		return false, ErrMissingDueDate
	}

	var fields []string
	if edit.Title != nil && strings.TrimSpace(*edit.Title) != t.title {
		_ = t.Rename(*edit.Title)
		fields = append(fields, "title")
	}
	if edit.Description != nil && strings.TrimSpace(*edit.Description) != t.description {
		t.SetDescription(*edit.Description)
		fields = append(fields, "description")
	}
	switch {
	case edit.ClearDueDate && t.dueDate != nil:
		dueChanged = true
		_ = t.SetDueDate(nil)
	case edit.DueDate != nil && (t.dueDate == nil || !t.dueDate.Equal(recurrence.DateOf(*edit.DueDate))):
		dueChanged = true
		_ = t.SetDueDate(edit.DueDate)
	}
	if dueChanged {
		fields = append(fields, "due_date")
	}

	if len(fields) > 0 {
		t.AddDomainEvent(NewTaskUpdated(t, fields))
	}
	return dueChanged, nil
}

// SetRecurrence makes the task recurring with rule, replacing any previous rule.
func (t *Task) SetRecurrence(rule recurrence.Rule) error {
	if rule.IsZero() {
		return recurrence.ErrInvalidRule
	}
	if t.rule != nil && t.rule.Equal(rule) {
		return nil
	}
	t.rule = &rule
	t.Touch()
	t.AddDomainEvent(NewRecurrenceChanged(t.ID(), &rule))
	return nil
}

// ClearRecurrence turns the task into a one-off task due on its due date.
func (t *Task) ClearRecurrence() error {
	if t.rule == nil {
		return ErrNotRecurring
	}
	if t.dueDate == nil {
		return ErrMissingDueDate
	}
	t.rule = nil
	t.Touch()
	t.AddDomainEvent(NewRecurrenceChanged(t.ID(), nil))
	return nil
}

// Describe returns the human readable recurrence, or "" for one-off tasks.
func (t *Task) Describe() string {
	if t.rule == nil {
		return ""
	}
	return recurrence.Describe(*t.rule)
}

// Occurrences expands the task into occurrences inside window.
// A one-off task always yields exactly one occurrence on its due date.
func (t *Task) Occurrences(gen *recurrence.Generator, window recurrence.Window) ([]*Occurrence, error) {
	if t.rule == nil {
		if t.dueDate == nil {
			return nil, ErrMissingDueDate
		}
		return []*Occurrence{NewOccurrence(t.ID(), *t.dueDate)}, nil
	}

	dates, err := gen.Generate(*t.rule, t.Anchor(), window)
	if err != nil {
		return nil, err
	}
	out := make([]*Occurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, NewOccurrence(t.ID(), d))
	}
	return out, nil
}

// RecordMaterialized notes that occurrences up to through were stored.
func (t *Task) RecordMaterialized(count int, through time.Time) {
	if count == 0 {
		return
	}
	t.AddDomainEvent(NewOccurrencesMaterialized(t.ID(), count, through))
}

func normalizeDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	v := recurrence.DateOf(*d)
	return &v
}
