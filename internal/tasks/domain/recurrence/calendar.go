package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// DateOf truncates t to its calendar date at midnight UTC.
// All recurrence math operates on these normalized dates.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a normalized calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// IsLeapYear reports whether year has a February 29th.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddInterval advances date by interval units of the given frequency.
// Monthly and yearly steps clamp the day to the last day of the target month,
// so Jan 31 + 1 month is Feb 28 (or 29) and Feb 29 + 1 year is Feb 28.
func AddInterval(date time.Time, freq Frequency, interval int) time.Time {
	date = DateOf(date)
	switch freq {
	case FrequencyDaily:
		return date.AddDate(0, 0, interval)
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7*interval)
	case FrequencyMonthly:
		return AddMonthsClamped(date, interval)
	case FrequencyYearly:
		return AddMonthsClamped(date, 12*interval)
	default:
		return date
	}
}

// AddMonthsClamped adds months to date without overflowing into the following month.
func AddMonthsClamped(date time.Time, months int) time.Time {
	y, m, d := date.Date()
	total := int(m) - 1 + months
	year := y + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)
	if last := DaysIn(year, month); d > last {
		d = last
	}
	return Date(year, month, d)
}

// NthWeekdayOfMonth returns the ordinal-th occurrence of weekday in the month,
// or None when the month has fewer than ordinal such weekdays.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, ordinal int) mo.Option[time.Time] {
	if ordinal < MinOrdinal || ordinal > MaxOrdinal {
		return mo.None[time.Time]()
	}
	first := Date(year, month, 1)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + 7*(ordinal-1)
	if day > DaysIn(year, month) {
		return mo.None[time.Time]()
	}
	return mo.Some(Date(year, month, day))
}

// StartOfWeek returns the Sunday on or before date.
func StartOfWeek(date time.Time) time.Time {
	date = DateOf(date)
	return date.AddDate(0, 0, -int(date.Weekday()))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
