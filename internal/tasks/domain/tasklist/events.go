package tasklist

import (
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "TaskList"

	RoutingKeyCreated       = "tasks.list.created"
	RoutingKeyUpdated       = "tasks.list.updated"
	RoutingKeyMemberAdded   = "tasks.list.member_added"
	RoutingKeyMemberRemoved = "tasks.list.member_removed"
)

// TaskListCreated is emitted when a list is created.
type TaskListCreated struct {
	domain.BaseEvent
	Name    string    `json:"name"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// NewTaskListCreated creates a TaskListCreated event.
func NewTaskListCreated(listID uuid.UUID, name string, ownerID uuid.UUID) *TaskListCreated {
	return &TaskListCreated{
		BaseEvent: domain.NewBaseEvent(listID, AggregateType, RoutingKeyCreated),
		Name:      name,
		OwnerID:   ownerID,
	}
}

// TaskListUpdated is emitted when a list is renamed or its description changes.
type TaskListUpdated struct {
	domain.BaseEvent
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewTaskListUpdated creates a TaskListUpdated event.
func NewTaskListUpdated(listID uuid.UUID, name, description string) *TaskListUpdated {
	return &TaskListUpdated{
		BaseEvent:   domain.NewBaseEvent(listID, AggregateType, RoutingKeyUpdated),
		Name:        name,
		Description: description,
	}
}

// MemberAdded is emitted when a user joins a list.
type MemberAdded struct {
	domain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// NewMemberAdded creates a MemberAdded event.
func NewMemberAdded(listID, userID uuid.UUID, role Role) *MemberAdded {
	return &MemberAdded{
		BaseEvent: domain.NewBaseEvent(listID, AggregateType, RoutingKeyMemberAdded),
		UserID:    userID,
		Role:      role,
	}
}

// MemberRemoved is emitted when a user leaves a list.
type MemberRemoved struct {
	domain.BaseEvent
	UserID uuid.UUID `json:"user_id"`
}

// NewMemberRemoved creates a MemberRemoved event.
func NewMemberRemoved(listID, userID uuid.UUID) *MemberRemoved {
	return &MemberRemoved{
		BaseEvent: domain.NewBaseEvent(listID, AggregateType, RoutingKeyMemberRemoved),
		UserID:    userID,
	}
}
