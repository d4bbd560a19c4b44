package application

import (
	"context"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/pkg/observability"
	"github.com/google/uuid"
)

type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// EventMetadataFromContext builds metadata for the acting user, reusing the
// request's correlation ID so events can be traced back to the command.
func EventMetadataFromContext(ctx context.Context, userID uuid.UUID) domain.EventMetadata {
	corrID := observability.CorrelationIDFromContext(ctx)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	return domain.EventMetadata{CorrelationID: corrID, UserID: userID}
}

// ApplyEventMetadata sets metadata on every event that accepts it.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
