package queries

import (
	"context"
	"sort"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// ListTaskListsQuery contains the parameters for listing a user's lists.
type ListTaskListsQuery struct {
	UserID uuid.UUID
}

// ListTaskListsHandler handles the ListTaskListsQuery.
type ListTaskListsHandler struct {
	listRepo tasklist.Repository
}

// NewListTaskListsHandler creates a new ListTaskListsHandler.
func NewListTaskListsHandler(listRepo tasklist.Repository) *ListTaskListsHandler {
	return &ListTaskListsHandler{listRepo: listRepo}
}

// Handle returns the lists the user belongs to, sorted by name.
func (h *ListTaskListsHandler) Handle(ctx context.Context, query ListTaskListsQuery) ([]TaskListDTO, error) {
	lists, err := h.listRepo.FindByMember(ctx, query.UserID)
	if err != nil {
		return nil, err
	}
	dtos := make([]TaskListDTO, 0, len(lists))
	for _, l := range lists {
		dtos = append(dtos, toTaskListDTO(l, query.UserID))
	}
	sort.SliceStable(dtos, func(i, j int) bool { return dtos[i].Name < dtos[j].Name })
	return dtos, nil
}
