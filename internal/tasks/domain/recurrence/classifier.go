package recurrence

import (
	"slices"
	"time"
)

// Classifiable is anything with a due date and a completion state.
type Classifiable interface {
	DueDate() time.Time
	IsCompleted() bool
}

// Buckets groups occurrences relative to a reference day.
type Buckets[T Classifiable] struct {
	Overdue  []T
	Today    []T
	Upcoming []T
}

// Len returns the number of items across all buckets.
func (b Buckets[T]) Len() int {
	return len(b.Overdue) + len(b.Today) + len(b.Upcoming)
}

// Classify splits items into Overdue, Today and Upcoming using date-only comparison.
// Completed items are never overdue; they appear in Today and Upcoming only
// when includeCompleted is set. Each bucket is ordered by due date, keeping
// input order for ties.
func Classify[T Classifiable](items []T, today time.Time, includeCompleted bool) Buckets[T] {
	today = DateOf(today)
	var b Buckets[T]
	for _, item := range items {
		due := DateOf(item.DueDate())
		completed := item.IsCompleted()
		switch {
		case due.Before(today):
			if !completed {
				b.Overdue = append(b.Overdue, item)
			}
		case due.Equal(today):
			if !completed || includeCompleted {
				b.Today = append(b.Today, item)
			}
		default:
			if !completed || includeCompleted {
				b.Upcoming = append(b.Upcoming, item)
			}
		}
	}
	byDue := func(a, c T) int { return DateOf(a.DueDate()).Compare(DateOf(c.DueDate())) }
	slices.SortStableFunc(b.Overdue, byDue)
	slices.SortStableFunc(b.Today, byDue)
	slices.SortStableFunc(b.Upcoming, byDue)
	return b
}
