package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// weekdayCodes are the two-letter RFC 5545 BYDAY codes indexed by time.Weekday.
var weekdayCodes = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// WeekdayCode returns the two-letter code for w ("MO", "TU", ...).
func WeekdayCode(w time.Weekday) string {
	if w < time.Sunday || w > time.Saturday {
		return "??"
	}
	return weekdayCodes[w]
}

// String renders the ordinal weekday as "2TU".
func (o OrdinalWeekday) String() string {
	return strconv.Itoa(o.Ordinal) + WeekdayCode(o.Weekday)
}

// ParseFrequency converts user input into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, s)
	}
	return f, nil
}

// ParseWeekday accepts a number 0-6 (Sunday = 0), a two-letter code,
// a three-letter abbreviation or a full English day name.
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.TrimSpace(s)
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("%w: weekday %d outside 0-6", ErrInvalidRule, n)
		}
		return time.Weekday(n), nil
	}
	upper := strings.ToUpper(v)
	for i := time.Sunday; i <= time.Saturday; i++ {
		name := strings.ToUpper(i.String())
		if upper == weekdayCodes[i] || upper == name || upper == name[:3] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidRule, s)
}

// ParseOrdinalWeekday parses "2TU", "2-tuesday" or "2:tue".
func ParseOrdinalWeekday(s string) (OrdinalWeekday, error) {
	v := strings.TrimSpace(s)
	i := 0
	for i < len(v) && v[i] >= '0' && v[i] <= '9' {
		i++
	}
	if i == 0 || i == len(v) {
		return OrdinalWeekday{}, fmt.Errorf("%w: malformed ordinal weekday %q", ErrInvalidRule, s)
	}
	n, err := strconv.Atoi(v[:i])
	if err != nil {
		return OrdinalWeekday{}, fmt.Errorf("%w: malformed ordinal weekday %q", ErrInvalidRule, s)
	}
	if n < MinOrdinal || n > MaxOrdinal {
		return OrdinalWeekday{}, fmt.Errorf("%w: ordinal %d outside %d-%d", ErrInvalidRule, n, MinOrdinal, MaxOrdinal)
	}
	w, err := ParseWeekday(strings.TrimLeft(v[i:], "-: "))
	if err != nil {
		return OrdinalWeekday{}, err
	}
	return OrdinalWeekday{Ordinal: n, Weekday: w}, nil
}

// ParseMonth accepts a number 1-12, an abbreviation or a full English month name.
func ParseMonth(s string) (time.Month, error) {
	v := strings.TrimSpace(s)
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("%w: month %d outside 1-12", ErrInvalidRule, n)
		}
		return time.Month(n), nil
	}
	upper := strings.ToUpper(v)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToUpper(m.String())
		if upper == name || upper == name[:3] {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown month %q", ErrInvalidRule, s)
}
