package task

import (
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/google/uuid"
)

const (
	AggregateType           = "Task"
	OccurrenceAggregateType = "TaskOccurrence"

	RoutingKeyCreated             = "tasks.task.created"
	RoutingKeyUpdated             = "tasks.task.updated"
	RoutingKeyRecurrenceChanged   = "tasks.recurrence.changed"
	RoutingKeyOccurrenceCompleted = "tasks.occurrence.completed"
	RoutingKeyOccurrenceReopened  = "tasks.occurrence.reopened"
	RoutingKeyMaterialized        = "tasks.occurrences.materialized"
)

// TaskCreated is emitted when a task is created.
type TaskCreated struct {
	domain.BaseEvent
	ListID      uuid.UUID            `json:"list_id"`
	Title       string               `json:"title"`
	DueDate     *time.Time           `json:"due_date,omitempty"`
	Recurrence  *recurrence.RuleSpec `json:"recurrence,omitempty"`
	Description string               `json:"recurrence_description,omitempty"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(t *Task) *TaskCreated {
	ev := &TaskCreated{
		BaseEvent: domain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyCreated),
		ListID:    t.listID,
		Title:     t.title,
		DueDate:   t.dueDate,
	}
	if t.rule != nil {
		spec := t.rule.Spec()
		ev.Recurrence = &spec
		ev.Description = recurrence.Describe(*t.rule)
	}
	return ev
}

// TaskUpdated is emitted when a task's title, description or due date changes.
type TaskUpdated struct {
	domain.BaseEvent
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Fields      []string   `json:"fields"`
}

// NewTaskUpdated creates a TaskUpdated event listing the changed fields.
func NewTaskUpdated(t *Task, fields []string) *TaskUpdated {
	return &TaskUpdated{
		BaseEvent:   domain.NewBaseEvent(t.ID(), AggregateType, RoutingKeyUpdated),
		Title:       t.title,
		Description: t.description,
		DueDate:     t.dueDate,
		Fields:      fields,
	}
}

// RecurrenceChanged is emitted when a rule is set, replaced or cleared.
type RecurrenceChanged struct {
	domain.BaseEvent
	Recurrence  *recurrence.RuleSpec `json:"recurrence,omitempty"`
	Description string               `json:"description,omitempty"`
	Cleared     bool                 `json:"cleared"`
}

// NewRecurrenceChanged creates a RecurrenceChanged event. A nil rule means cleared.
func NewRecurrenceChanged(taskID uuid.UUID, rule *recurrence.Rule) *RecurrenceChanged {
	ev := &RecurrenceChanged{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyRecurrenceChanged),
		Cleared:   rule == nil,
	}
	if rule != nil {
		spec := rule.Spec()
		ev.Recurrence = &spec
		ev.Description = recurrence.Describe(*rule)
	}
	return ev
}

// OccurrencesMaterialized is emitted after new occurrences were stored for a task.
type OccurrencesMaterialized struct {
	domain.BaseEvent
	Count   int       `json:"count"`
	Through time.Time `json:"through"`
}

// NewOccurrencesMaterialized creates an OccurrencesMaterialized event.
func NewOccurrencesMaterialized(taskID uuid.UUID, count int, through time.Time) *OccurrencesMaterialized {
	return &OccurrencesMaterialized{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyMaterialized),
		Count:     count,
		Through:   through,
	}
}

// OccurrenceCompleted is emitted when an occurrence is marked done.
type OccurrenceCompleted struct {
	domain.BaseEvent
	TaskID  uuid.UUID `json:"task_id"`
	DueDate time.Time `json:"due_date"`
	UserID  uuid.UUID `json:"user_id"`
}

// NewOccurrenceCompleted creates an OccurrenceCompleted event.
func NewOccurrenceCompleted(o *Occurrence, userID uuid.UUID) *OccurrenceCompleted {
	return &OccurrenceCompleted{
		BaseEvent: domain.NewBaseEvent(o.ID(), OccurrenceAggregateType, RoutingKeyOccurrenceCompleted),
		TaskID:    o.taskID,
		DueDate:   o.dueDate,
		UserID:    userID,
	}
}

// OccurrenceReopened is emitted when a completed occurrence is reopened.
type OccurrenceReopened struct {
	domain.BaseEvent
	TaskID  uuid.UUID `json:"task_id"`
	DueDate time.Time `json:"due_date"`
	UserID  uuid.UUID `json:"user_id"`
}

// NewOccurrenceReopened creates an OccurrenceReopened event.
func NewOccurrenceReopened(o *Occurrence, userID uuid.UUID) *OccurrenceReopened {
	return &OccurrenceReopened{
		BaseEvent: domain.NewBaseEvent(o.ID(), OccurrenceAggregateType, RoutingKeyOccurrenceReopened),
		TaskID:    o.taskID,
		DueDate:   o.dueDate,
		UserID:    userID,
	}
}
