package task

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/google/uuid"
)

var (
	ErrOccurrenceNotFound = errors.New("occurrence not found")
	ErrAlreadyCompleted   = errors.New("occurrence is already completed")
	ErrNotCompleted       = errors.New("occurrence is not completed")
)

// OccurrenceID derives the identity of a task's occurrence on a date.
// Regenerating the same dates therefore yields the same IDs.
func OccurrenceID(taskID uuid.UUID, due time.Time) uuid.UUID {
	return uuid.NewSHA1(taskID, []byte(recurrence.DateOf(due).Format(time.DateOnly)))
}

// Occurrence is one concrete instance of a task on a date. Its due date never
// changes; only completion toggles.
type Occurrence struct {
	domain.BaseAggregateRoot
	taskID      uuid.UUID
	dueDate     time.Time
	completed   bool
	completedAt *time.Time
}

// NewOccurrence creates an incomplete occurrence of taskID due on due.
func NewOccurrence(taskID uuid.UUID, due time.Time) *Occurrence {
	due = recurrence.DateOf(due)
	return &Occurrence{
		BaseAggregateRoot: domain.NewBaseAggregateRootWithID(OccurrenceID(taskID, due)),
		taskID:            taskID,
		dueDate:           due,
	}
}

// RehydrateOccurrence recreates an occurrence from persisted state.
func RehydrateOccurrence(entity domain.BaseEntity, taskID uuid.UUID, due time.Time, completed bool, completedAt *time.Time) *Occurrence {
	return &Occurrence{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		taskID:            taskID,
		dueDate:           recurrence.DateOf(due),
		completed:         completed,
		completedAt:       completedAt,
	}
}

func (o *Occurrence) TaskID() uuid.UUID       { return o.taskID }
func (o *Occurrence) DueDate() time.Time      { return o.dueDate }
func (o *Occurrence) IsCompleted() bool       { return o.completed }
func (o *Occurrence) CompletedAt() *time.Time { return o.completedAt }

// Complete marks the occurrence done and returns the audit record.
func (o *Occurrence) Complete(userID uuid.UUID, at time.Time) (*Completion, error) {
	if o.completed {
		return nil, ErrAlreadyCompleted
	}
	at = at.UTC()
	o.completed = true
	o.completedAt = &at
	o.Touch()
	o.AddDomainEvent(NewOccurrenceCompleted(o, userID))
	return NewCompletion(o.ID(), o.taskID, userID, at), nil
}

// Reopen marks a completed occurrence as not done. Earlier completion
// records stay in the audit history.
func (o *Occurrence) Reopen(userID uuid.UUID) error {
	if !o.completed {
		return ErrNotCompleted
	}
	o.completed = false
	o.completedAt = nil
	o.Touch()
	o.AddDomainEvent(NewOccurrenceReopened(o, userID))
	return nil
}

// Toggle flips completion. The returned completion is nil when reopening.
func (o *Occurrence) Toggle(userID uuid.UUID, at time.Time) (*Completion, error) {
	if o.completed {
		return nil, o.Reopen(userID)
	}
	return o.Complete(userID, at)
}

// Completion is an append-only record of a user completing an occurrence.
type Completion struct {
	id           uuid.UUID
	occurrenceID uuid.UUID
	taskID       uuid.UUID
	userID       uuid.UUID
	completedAt  time.Time
}

// NewCompletion creates a completion record.
func NewCompletion(occurrenceID, taskID, userID uuid.UUID, at time.Time) *Completion {
	return &Completion{
		id:           uuid.New(),
		occurrenceID: occurrenceID,
		taskID:       taskID,
		userID:       userID,
		completedAt:  at.UTC(),
	}
}

// RehydrateCompletion recreates a completion from persisted state.
func RehydrateCompletion(id, occurrenceID, taskID, userID uuid.UUID, at time.Time) *Completion {
	return &Completion{id: id, occurrenceID: occurrenceID, taskID: taskID, userID: userID, completedAt: at.UTC()}
}

func (c *Completion) ID() uuid.UUID           { return c.id }
func (c *Completion) OccurrenceID() uuid.UUID { return c.occurrenceID }
func (c *Completion) TaskID() uuid.UUID       { return c.taskID }
func (c *Completion) UserID() uuid.UUID       { return c.userID }
func (c *Completion) CompletedAt() time.Time  { return c.completedAt }
