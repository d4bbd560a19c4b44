package recurrence_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/stretchr/testify/assert"
)

func d(year int, month time.Month, day int) time.Time {
	return recurrence.Date(year, month, day)
}

func TestAddInterval(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		freq     recurrence.Frequency
		interval int
		want     time.Time
	}{
		{"daily crosses year", d(2024, 12, 30), recurrence.FrequencyDaily, 3, d(2025, 1, 2)},
		{"weekly", d(2024, 1, 1), recurrence.FrequencyWeekly, 2, d(2024, 1, 15)},
		{"monthly plain", d(2024, 11, 15), recurrence.FrequencyMonthly, 3, d(2025, 2, 15)},
		{"monthly clamps into leap february", d(2024, 1, 31), recurrence.FrequencyMonthly, 1, d(2024, 2, 29)},
		{"monthly clamps into february", d(2023, 1, 31), recurrence.FrequencyMonthly, 1, d(2023, 2, 28)},
		{"monthly clamps into 30 day month", d(2025, 3, 31), recurrence.FrequencyMonthly, 1, d(2025, 4, 30)},
		{"yearly leap day clamps", d(2024, 2, 29), recurrence.FrequencyYearly, 1, d(2025, 2, 28)},
		{"yearly leap day to leap year", d(2024, 2, 29), recurrence.FrequencyYearly, 4, d(2028, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recurrence.AddInterval(tt.date, tt.freq, tt.interval))
		})
	}
}

func TestAddInterval_NormalizesTimeOfDay(t *testing.T) {
	in := time.Date(2025, 3, 10, 23, 45, 0, 0, time.UTC)
	assert.Equal(t, d(2025, 3, 11), recurrence.AddInterval(in, recurrence.FrequencyDaily, 1))
}

func TestAddMonthsClamped_Negative(t *testing.T) {
	assert.Equal(t, d(2023, 11, 30), recurrence.AddMonthsClamped(d(2024, 1, 31), -2))
	assert.Equal(t, d(2023, 12, 31), recurrence.AddMonthsClamped(d(2024, 1, 31), -1))
}

func TestNthWeekdayOfMonth(t *testing.T) {
	t.Run("second tuesday", func(t *testing.T) {
		got, ok := recurrence.NthWeekdayOfMonth(2025, time.March, time.Tuesday, 2).Get()
		assert.True(t, ok)
		assert.Equal(t, d(2025, 3, 11), got)
	})

	t.Run("fifth weekday that exists", func(t *testing.T) {
		got, ok := recurrence.NthWeekdayOfMonth(2025, time.March, time.Monday, 5).Get()
		assert.True(t, ok)
		assert.Equal(t, d(2025, 3, 31), got)
	})

	t.Run("fifth weekday that does not exist", func(t *testing.T) {
		assert.True(t, recurrence.NthWeekdayOfMonth(2025, time.March, time.Tuesday, 5).IsAbsent())
		assert.True(t, recurrence.NthWeekdayOfMonth(2026, time.February, time.Sunday, 5).IsAbsent())
	})

	t.Run("first day of month is the weekday", func(t *testing.T) {
		got, ok := recurrence.NthWeekdayOfMonth(2025, time.March, time.Saturday, 1).Get()
		assert.True(t, ok)
		assert.Equal(t, d(2025, 3, 1), got)
	})

	t.Run("ordinal out of range", func(t *testing.T) {
		assert.True(t, recurrence.NthWeekdayOfMonth(2025, time.March, time.Monday, 0).IsAbsent())
		assert.True(t, recurrence.NthWeekdayOfMonth(2025, time.March, time.Monday, 6).IsAbsent())
	})
}

func TestCalendarHelpers(t *testing.T) {
	assert.True(t, recurrence.IsLeapYear(2024))
	assert.True(t, recurrence.IsLeapYear(2000))
	assert.False(t, recurrence.IsLeapYear(2100))
	assert.False(t, recurrence.IsLeapYear(2025))

	assert.Equal(t, 29, recurrence.DaysIn(2024, time.February))
	assert.Equal(t, 28, recurrence.DaysIn(2025, time.February))
	assert.Equal(t, 31, recurrence.DaysIn(2025, time.December))

	// 2025-01-08 is a Wednesday; its week starts Sunday 2025-01-05.
	assert.Equal(t, d(2025, 1, 5), recurrence.StartOfWeek(d(2025, 1, 8)))
	assert.Equal(t, d(2025, 1, 5), recurrence.StartOfWeek(d(2025, 1, 5)))
}
