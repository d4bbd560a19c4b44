package task

import (
	"context"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/google/uuid"
)

// Repository persists tasks together with their recurrence rule.
type Repository interface {
	domain.Repository[*Task]
	FindByListID(ctx context.Context, listID uuid.UUID) ([]*Task, error)
	FindAll(ctx context.Context) ([]*Task, error)
	FindRecurring(ctx context.Context) ([]*Task, error)
}

// OccurrenceFilter narrows an occurrence lookup. Zero fields do not filter.
type OccurrenceFilter struct {
	ListID *uuid.UUID
	TaskID *uuid.UUID
	From   *time.Time
	To     *time.Time
}

// OccurrenceRepository persists materialized occurrences.
type OccurrenceRepository interface {
	domain.Repository[*Occurrence]
	// SaveNew inserts occurrences that do not exist yet and leaves existing
	// ones untouched, so re-materializing a window is idempotent.
	// It returns the number of rows inserted.
	SaveNew(ctx context.Context, occurrences []*Occurrence) (int, error)
	Find(ctx context.Context, filter OccurrenceFilter) ([]*Occurrence, error)
	// DeleteOpenFrom removes incomplete occurrences of a task due on or after from.
	DeleteOpenFrom(ctx context.Context, taskID uuid.UUID, from time.Time) (int64, error)
}

// CompletionRepository is the append-only completion audit log.
type CompletionRepository interface {
	Append(ctx context.Context, completion *Completion) error
	FindByOccurrenceID(ctx context.Context, occurrenceID uuid.UUID) ([]*Completion, error)
}
