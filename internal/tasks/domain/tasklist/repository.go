package tasklist

import (
	"context"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/google/uuid"
)

// Repository persists task lists and their memberships.
type Repository interface {
	domain.Repository[*TaskList]
	FindByMember(ctx context.Context, userID uuid.UUID) ([]*TaskList, error)
}
