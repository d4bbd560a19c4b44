package queries

import (
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// TaskDTO is a data transfer object for tasks.
type TaskDTO struct {
	ID             uuid.UUID            `json:"id"`
	ListID         uuid.UUID            `json:"list_id"`
	Title          string               `json:"title"`
	Description    string               `json:"description,omitempty"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	IsRecurring    bool                 `json:"is_recurring"`
	Recurrence     *recurrence.RuleSpec `json:"recurrence,omitempty"`
	RecurrenceText string               `json:"recurrence_text,omitempty"`
	NextDates      []time.Time          `json:"next_dates,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

func toTaskDTO(t *task.Task) TaskDTO {
	dto := TaskDTO{
		ID:          t.ID(),
		ListID:      t.ListID(),
		Title:       t.Title(),
		Description: t.Description(),
		DueDate:     t.DueDate(),
		IsRecurring: t.IsRecurring(),
		CreatedAt:   t.CreatedAt(),
	}
	if rule, ok := t.Rule(); ok {
		spec := rule.Spec()
		dto.Recurrence = &spec
		dto.RecurrenceText = recurrence.Describe(rule)
	}
	return dto
}

// OccurrenceDTO is an occurrence joined with its task.
type OccurrenceDTO struct {
	ID             uuid.UUID  `json:"id"`
	TaskID         uuid.UUID  `json:"task_id"`
	ListID         uuid.UUID  `json:"list_id"`
	TaskTitle      string     `json:"task_title"`
	Due            time.Time  `json:"due_date"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	RecurrenceText string     `json:"recurrence_text,omitempty"`
}

// DueDate and IsCompleted let the DTO be classified directly.
func (o OccurrenceDTO) DueDate() time.Time { return o.Due }

// IsCompleted reports whether the occurrence is done.
func (o OccurrenceDTO) IsCompleted() bool { return o.Completed }

// TaskListDTO is a data transfer object for task lists.
type TaskListDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Role        string    `json:"role,omitempty"`
	Members     int       `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTaskListDTO(l *tasklist.TaskList, userID uuid.UUID) TaskListDTO {
	role, _ := l.RoleOf(userID)
	return TaskListDTO{
		ID:          l.ID(),
		Name:        l.Name(),
		Description: l.Description(),
		Role:        string(role),
		Members:     len(l.Members()),
		CreatedAt:   l.CreatedAt(),
	}
}
