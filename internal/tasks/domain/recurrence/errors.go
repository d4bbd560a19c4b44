package recurrence

import "errors"

var (
	// ErrInvalidRule is returned when a rule fails structural validation.
	ErrInvalidRule = errors.New("invalid recurrence rule")
	// ErrUnboundedWindow is returned when a generation window has neither a count nor a horizon.
	ErrUnboundedWindow = errors.New("generation window needs a count or a horizon")
	// ErrUnproducibleRule reports a rule that yields no dates within the scan limit.
	// Generation never fails with it; CheckProducible returns it so callers can warn.
	ErrUnproducibleRule = errors.New("recurrence rule produces no occurrences")
)
