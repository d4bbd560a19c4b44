package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// errNoDatabase is returned by tools whose handler is not wired.
var errNoDatabase = errors.New("this tool requires a database connection")

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
	}
	d := recurrence.DateOf(parsed)
	return &d, nil
}

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

func parseOptionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseUUID(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
