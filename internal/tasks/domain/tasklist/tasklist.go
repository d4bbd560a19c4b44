package tasklist

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrEmptyName        = errors.New("task list name cannot be empty")
	ErrInvalidRole      = errors.New("invalid membership role")
	ErrAlreadyMember    = errors.New("user is already a member of this list")
	ErrNotMember        = errors.New("user is not a member of this list")
	ErrLastOwner        = errors.New("cannot remove the last owner of a list")
	ErrNotPermitted     = errors.New("only owners and admins can manage this list")
	ErrTaskListNotFound = errors.New("task list not found")
)

// Role is a member's permission level in a list.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// IsValid returns true if the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// CanManage reports whether the role may change membership.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Member is a user's membership in a list.
type Member struct {
	UserID   uuid.UUID
	Role     Role
	JoinedAt time.Time
}

// TaskList groups tasks and controls who can see and complete them.
type TaskList struct {
	domain.BaseAggregateRoot
	name        string
	description string
	members     []Member
}

// NewTaskList creates a list owned by ownerID.
func NewTaskList(ownerID uuid.UUID, name, description string) (*TaskList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	l := &TaskList{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		name:              name,
		description:       strings.TrimSpace(description),
	}
	l.members = []Member{{UserID: ownerID, Role: RoleOwner, JoinedAt: l.CreatedAt()}}
	l.AddDomainEvent(NewTaskListCreated(l.ID(), name, ownerID))
	return l, nil
}

// RehydrateTaskList recreates a list from persisted state.
func RehydrateTaskList(entity domain.BaseEntity, name, description string, members []Member) *TaskList {
	return &TaskList{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity),
		name:              name,
		description:       description,
		members:           members,
	}
}

func (l *TaskList) Name() string        { return l.name }
func (l *TaskList) Description() string { return l.description }

// Members returns a copy of the membership list.
func (l *TaskList) Members() []Member {
	return slices.Clone(l.members)
}

// Rename changes the list name.
func (l *TaskList) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	l.name = name
	l.Touch()
	return nil
}

// Update changes the name and description. Nil fields are left alone.
// A TaskListUpdated event is recorded when anything differs.
func (l *TaskList) Update(name, description *string) error {
	if name != nil && strings.TrimSpace(*name) == "" {
		return ErrEmptyName
	}
	changed := false
	if name != nil && strings.TrimSpace(*name) != l.name {
		_ = l.Rename(*name)
		changed = true
	}
	if description != nil && strings.TrimSpace(*description) != l.description {
		l.description = strings.TrimSpace(*description)
		l.Touch()
		changed = true
	}
	if changed {
		l.AddDomainEvent(NewTaskListUpdated(l.ID(), l.name, l.description))
	}
	return nil
}

// RequireManager returns ErrNotMember or ErrNotPermitted unless userID is an
// owner or admin of the list.
func (l *TaskList) RequireManager(userID uuid.UUID) error {
	role, ok := l.RoleOf(userID)
	if !ok {
		return ErrNotMember
	}
	if !role.CanManage() {
		return ErrNotPermitted
	}
	return nil
}

// RoleOf returns the user's role and whether they are a member.
func (l *TaskList) RoleOf(userID uuid.UUID) (Role, bool) {
	for _, m := range l.members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// IsMember reports whether userID belongs to the list.
func (l *TaskList) IsMember(userID uuid.UUID) bool {
	_, ok := l.RoleOf(userID)
	return ok
}

// AddMember grants userID the given role.
func (l *TaskList) AddMember(userID uuid.UUID, role Role) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	if l.IsMember(userID) {
		return ErrAlreadyMember
	}
	l.members = append(l.members, Member{UserID: userID, Role: role, JoinedAt: time.Now().UTC()})
	l.Touch()
	l.AddDomainEvent(NewMemberAdded(l.ID(), userID, role))
	return nil
}

// RemoveMember revokes membership. The last owner cannot leave.
func (l *TaskList) RemoveMember(userID uuid.UUID) error {
	idx := slices.IndexFunc(l.members, func(m Member) bool { return m.UserID == userID })
	if idx < 0 {
		return ErrNotMember
	}
	if l.members[idx].Role == RoleOwner && l.ownerCount() == 1 {
		return ErrLastOwner
	}
	l.members = slices.Delete(l.members, idx, idx+1)
	l.Touch()
	l.AddDomainEvent(NewMemberRemoved(l.ID(), userID))
	return nil
}

func (l *TaskList) ownerCount() int {
	n := 0
	for _, m := range l.members {
		if m.Role == RoleOwner {
			n++
		}
	}
	return n
}
