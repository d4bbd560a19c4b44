package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// AddListMemberCommand grants MemberID access to a list. An empty Role
// adds a plain member.
type AddListMemberCommand struct {
	UserID   uuid.UUID
	ListID   uuid.UUID
	MemberID uuid.UUID
	Role     tasklist.Role
}

// AddListMemberHandler handles the AddListMemberCommand.
type AddListMemberHandler struct {
	listRepo tasklist.Repository
	outbox   sharedApplication.EventOutbox
	uow      sharedApplication.UnitOfWork
}

// NewAddListMemberHandler creates a new AddListMemberHandler.
func NewAddListMemberHandler(listRepo tasklist.Repository, outbox sharedApplication.EventOutbox, uow sharedApplication.UnitOfWork) *AddListMemberHandler {
	return &AddListMemberHandler{listRepo: listRepo, outbox: outbox, uow: uow}
}

// Handle adds the member. Only owners and admins may add members.
func (h *AddListMemberHandler) Handle(ctx context.Context, cmd AddListMemberCommand) error {
	role := cmd.Role
	if role == "" {
		role = tasklist.RoleMember
	}
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		list, err := h.listRepo.FindByID(txCtx, cmd.ListID)
		if err != nil {
			return err
		}
		if err := list.RequireManager(cmd.UserID); err != nil {
			return err
		}
		if err := list.AddMember(cmd.MemberID, role); err != nil {
			return err
		}
		if err := h.listRepo.Save(txCtx, list); err != nil {
			return err
		}
		return sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, list)
	})
}

// RemoveListMemberCommand revokes MemberID's access to a list.
type RemoveListMemberCommand struct {
	UserID   uuid.UUID
	ListID   uuid.UUID
	MemberID uuid.UUID
}

// RemoveListMemberHandler handles the RemoveListMemberCommand.
type RemoveListMemberHandler struct {
	listRepo tasklist.Repository
	outbox   sharedApplication.EventOutbox
	uow      sharedApplication.UnitOfWork
}

// NewRemoveListMemberHandler creates a new RemoveListMemberHandler.
func NewRemoveListMemberHandler(listRepo tasklist.Repository, outbox sharedApplication.EventOutbox, uow sharedApplication.UnitOfWork) *RemoveListMemberHandler {
	return &RemoveListMemberHandler{listRepo: listRepo, outbox: outbox, uow: uow}
}

// Handle removes the member. Members may leave on their own; removing
// someone else needs an owner or admin.
func (h *RemoveListMemberHandler) Handle(ctx context.Context, cmd RemoveListMemberCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		list, err := h.listRepo.FindByID(txCtx, cmd.ListID)
		if err != nil {
			return err
		}
		if cmd.MemberID != cmd.UserID {
			if err := list.RequireManager(cmd.UserID); err != nil {
				return err
			}
		}
		if err := list.RemoveMember(cmd.MemberID); err != nil {
			return err
		}
		if err := h.listRepo.Save(txCtx, list); err != nil {
			return err
		}
		return sharedApplication.RecordEvents(txCtx, h.outbox, cmd.UserID, list)
	})
}
