// Package persistence stores task lists, tasks, occurrences and completions
// in SQLite or PostgreSQL.
package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
)

// ruleColumns is the flattened form of a recurrence rule across the
// recurrence_* columns of the tasks table. A one-off task has no frequency.
type ruleColumns struct {
	frequency    sql.NullString
	interval     sql.NullInt64
	daysOfWeek   []int
	daysOfMonth  []int
	monthsOfYear []int
	ordinals     []recurrence.OrdinalWeekday
}

func ruleToColumns(rule recurrence.Rule, ok bool) ruleColumns {
	if !ok {
		return ruleColumns{}
	}
	spec := rule.Spec()
	return ruleColumns{
		frequency:    sql.NullString{String: string(spec.Frequency), Valid: true},
		interval:     sql.NullInt64{Int64: int64(spec.Interval), Valid: true},
		daysOfWeek:   spec.DaysOfWeek,
		daysOfMonth:  spec.DaysOfMonth,
		monthsOfYear: spec.MonthsOfYear,
		ordinals:     spec.OrdinalWeekdays,
	}
}

// rule rebuilds the rule, revalidating it. It returns nil for one-off tasks.
func (c ruleColumns) rule() (*recurrence.Rule, error) {
	if !c.frequency.Valid || c.frequency.String == "" {
		return nil, nil
	}
	rule, err := recurrence.RuleSpec{
		Frequency:       recurrence.Frequency(c.frequency.String),
		Interval:        int(c.interval.Int64),
		DaysOfWeek:      c.daysOfWeek,
		DaysOfMonth:     c.daysOfMonth,
		MonthsOfYear:    c.monthsOfYear,
		OrdinalWeekdays: c.ordinals,
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("stored recurrence rule: %w", err)
	}
	return &rule, nil
}

// encodeJSONList renders a list column as JSON text, NULL when empty.
func encodeJSONList[T any](values []T) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeJSONList[T any](ns sql.NullString) ([]T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toInt64s(values []int) []int64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}

func toInts(values []int64) []int {
	if len(values) == 0 {
		return nil
	}
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
