package recurrence

import (
	"fmt"
	"slices"
	"time"
)

// Frequency is the unit a recurrence rule repeats in.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// IsValid returns true if the frequency is known.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	default:
		return false
	}
}

const (
	MinOrdinal = 1
	MaxOrdinal = 5

	// MaxInterval bounds the step between cycles so generated dates stay
	// within four-digit years.
	MaxInterval = 1000
)

// OrdinalWeekday selects the Nth weekday of a month, e.g. the 2nd Tuesday.
type OrdinalWeekday struct {
	Ordinal int          `json:"ordinal" yaml:"ordinal"`
	Weekday time.Weekday `json:"weekday" yaml:"weekday"`
}

// Pattern is the frequency-specific part of a rule. Exactly one of
// DailyPattern, WeeklyPattern, MonthlyPattern or YearlyPattern.
type Pattern interface {
	Frequency() Frequency
	clone() Pattern
}

// DailyPattern repeats every interval days.
type DailyPattern struct{}

// WeeklyPattern repeats on the listed weekdays every interval weeks.
// An empty Days list repeats on the anchor's weekday.
type WeeklyPattern struct {
	Days []time.Weekday
}

// MonthlyPattern repeats on fixed days and/or ordinal weekdays every interval months.
// When both lists are empty the anchor's day of month is used.
type MonthlyPattern struct {
	Days     []int
	Ordinals []OrdinalWeekday
}

// YearlyPattern repeats on each Months × Days combination every interval years.
// Empty lists fall back to the anchor's month and day.
type YearlyPattern struct {
	Months []time.Month
	Days   []int
}

func (DailyPattern) Frequency() Frequency   { return FrequencyDaily }
func (WeeklyPattern) Frequency() Frequency  { return FrequencyWeekly }
func (MonthlyPattern) Frequency() Frequency { return FrequencyMonthly }
func (YearlyPattern) Frequency() Frequency  { return FrequencyYearly }

func (p DailyPattern) clone() Pattern { return p }
func (p WeeklyPattern) clone() Pattern {
	return WeeklyPattern{Days: slices.Clone(p.Days)}
}
func (p MonthlyPattern) clone() Pattern {
	return MonthlyPattern{Days: slices.Clone(p.Days), Ordinals: slices.Clone(p.Ordinals)}
}
func (p YearlyPattern) clone() Pattern {
	return YearlyPattern{Months: slices.Clone(p.Months), Days: slices.Clone(p.Days)}
}

// Rule is a validated recurrence rule. Construct it with one of the
// New*Rule functions or RuleSpec.Build; the zero value is not usable.
type Rule struct {
	interval int
	pattern  Pattern
}

// NewDailyRule creates a rule repeating every interval days.
func NewDailyRule(interval int) (Rule, error) {
	if err := validateInterval(interval); err != nil {
		return Rule{}, err
	}
	return Rule{interval: interval, pattern: DailyPattern{}}, nil
}

// NewWeeklyRule creates a rule repeating on days every interval weeks.
func NewWeeklyRule(interval int, days ...time.Weekday) (Rule, error) {
	if err := validateInterval(interval); err != nil {
		return Rule{}, err
	}
	raw := make([]int, len(days))
	for i, d := range days {
		raw[i] = int(d)
	}
	norm, err := normalizeInts("daysOfWeek", raw, 0, 6)
	if err != nil {
		return Rule{}, err
	}
	weekdays := make([]time.Weekday, len(norm))
	for i, d := range norm {
		weekdays[i] = time.Weekday(d)
	}
	return Rule{interval: interval, pattern: WeeklyPattern{Days: weekdays}}, nil
}

// NewMonthlyRule creates a rule repeating on days and ordinal weekdays every interval months.
func NewMonthlyRule(interval int, days []int, ordinals []OrdinalWeekday) (Rule, error) {
	if err := validateInterval(interval); err != nil {
		return Rule{}, err
	}
	normDays, err := normalizeInts("daysOfMonth", days, 1, 31)
	if err != nil {
		return Rule{}, err
	}
	normOrdinals, err := normalizeOrdinals(ordinals)
	if err != nil {
		return Rule{}, err
	}
	return Rule{interval: interval, pattern: MonthlyPattern{Days: normDays, Ordinals: normOrdinals}}, nil
}

// NewYearlyRule creates a rule repeating on months × days every interval years.
func NewYearlyRule(interval int, months []time.Month, days []int) (Rule, error) {
	if err := validateInterval(interval); err != nil {
		return Rule{}, err
	}
	raw := make([]int, len(months))
	for i, m := range months {
		raw[i] = int(m)
	}
	normMonths, err := normalizeInts("monthsOfYear", raw, 1, 12)
	if err != nil {
		return Rule{}, err
	}
	normDays, err := normalizeInts("daysOfMonth", days, 1, 31)
	if err != nil {
		return Rule{}, err
	}
	ms := make([]time.Month, len(normMonths))
	for i, m := range normMonths {
		ms[i] = time.Month(m)
	}
	return Rule{interval: interval, pattern: YearlyPattern{Months: ms, Days: normDays}}, nil
}

// MustRule panics if err is non-nil. Intended for fixtures with literal rules.
func MustRule(r Rule, err error) Rule {
	if err != nil {
		panic(err)
	}
	return r
}

// Interval returns the number of frequency units between cycles.
func (r Rule) Interval() int { return r.interval }

// Frequency returns the rule's frequency, or "" for the zero Rule.
func (r Rule) Frequency() Frequency {
	if r.pattern == nil {
		return ""
	}
	return r.pattern.Frequency()
}

// Pattern returns a copy of the frequency-specific pattern.
func (r Rule) Pattern() Pattern {
	if r.pattern == nil {
		return nil
	}
	return r.pattern.clone()
}

// IsZero reports whether r was never constructed.
func (r Rule) IsZero() bool { return r.pattern == nil }

// Equal compares two rules structurally.
func (r Rule) Equal(other Rule) bool {
	a, b := r.Spec(), other.Spec()
	return a.Frequency == b.Frequency &&
		a.Interval == b.Interval &&
		slices.Equal(a.DaysOfWeek, b.DaysOfWeek) &&
		slices.Equal(a.DaysOfMonth, b.DaysOfMonth) &&
		slices.Equal(a.MonthsOfYear, b.MonthsOfYear) &&
		slices.Equal(a.OrdinalWeekdays, b.OrdinalWeekdays)
}

// RuleSpec is the flat representation of a rule used at system boundaries
// (storage, CLI flags, HTTP and MCP payloads).
type RuleSpec struct {
	Frequency       Frequency        `json:"frequency" yaml:"frequency"`
	Interval        int              `json:"interval" yaml:"interval"`
	DaysOfWeek      []int            `json:"daysOfWeek,omitempty" yaml:"daysOfWeek,omitempty"`
	DaysOfMonth     []int            `json:"daysOfMonth,omitempty" yaml:"daysOfMonth,omitempty"`
	MonthsOfYear    []int            `json:"monthsOfYear,omitempty" yaml:"monthsOfYear,omitempty"`
	OrdinalWeekdays []OrdinalWeekday `json:"ordinalWeekdays,omitempty" yaml:"ordinalWeekdays,omitempty"`
}

// Build validates the spec and returns the typed rule.
// Fields that do not apply to the frequency are rejected.
func (s RuleSpec) Build() (Rule, error) {
	if !s.Frequency.IsValid() {
		return Rule{}, fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, s.Frequency)
	}
	if err := s.rejectIrrelevant(); err != nil {
		return Rule{}, err
	}

	switch s.Frequency {
	case FrequencyDaily:
		return NewDailyRule(s.Interval)
	case FrequencyWeekly:
		days := make([]time.Weekday, len(s.DaysOfWeek))
		for i, d := range s.DaysOfWeek {
			days[i] = time.Weekday(d)
		}
		return NewWeeklyRule(s.Interval, days...)
	case FrequencyMonthly:
		return NewMonthlyRule(s.Interval, s.DaysOfMonth, s.OrdinalWeekdays)
	default:
		months := make([]time.Month, len(s.MonthsOfYear))
		for i, m := range s.MonthsOfYear {
			months[i] = time.Month(m)
		}
		return NewYearlyRule(s.Interval, months, s.DaysOfMonth)
	}
}

func (s RuleSpec) rejectIrrelevant() error {
	irrelevant := func(field string) error {
		return fmt.Errorf("%w: %s does not apply to %s rules", ErrInvalidRule, field, s.Frequency)
	}
	if len(s.DaysOfWeek) > 0 && s.Frequency != FrequencyWeekly {
		return irrelevant("daysOfWeek")
	}
	if len(s.DaysOfMonth) > 0 && s.Frequency != FrequencyMonthly && s.Frequency != FrequencyYearly {
		return irrelevant("daysOfMonth")
	}
	if len(s.MonthsOfYear) > 0 && s.Frequency != FrequencyYearly {
		return irrelevant("monthsOfYear")
	}
	if len(s.OrdinalWeekdays) > 0 && s.Frequency != FrequencyMonthly {
		return irrelevant("ordinalWeekdays")
	}
	return nil
}

// Spec flattens the rule back into its boundary representation.
func (r Rule) Spec() RuleSpec {
	spec := RuleSpec{Frequency: r.Frequency(), Interval: r.interval}
	switch p := r.pattern.(type) {
	case WeeklyPattern:
		for _, d := range p.Days {
			spec.DaysOfWeek = append(spec.DaysOfWeek, int(d))
		}
	case MonthlyPattern:
		spec.DaysOfMonth = slices.Clone(p.Days)
		spec.OrdinalWeekdays = slices.Clone(p.Ordinals)
	case YearlyPattern:
		for _, m := range p.Months {
			spec.MonthsOfYear = append(spec.MonthsOfYear, int(m))
		}
		spec.DaysOfMonth = slices.Clone(p.Days)
	}
	return spec
}

func validateInterval(interval int) error {
	if interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", ErrInvalidRule, interval)
	}
	if interval > MaxInterval {
		return fmt.Errorf("%w: interval must be at most %d, got %d", ErrInvalidRule, MaxInterval, interval)
	}
	return nil
}

// normalizeInts range-checks values, rejects duplicates and returns a sorted copy.
func normalizeInts(field string, values []int, lo, hi int) ([]int, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	for i, v := range out {
		if v < lo || v > hi {
			return nil, fmt.Errorf("%w: %s value %d outside %d-%d", ErrInvalidRule, field, v, lo, hi)
		}
		if i > 0 && out[i-1] == v {
			return nil, fmt.Errorf("%w: %s contains %d more than once", ErrInvalidRule, field, v)
		}
	}
	return out, nil
}

func normalizeOrdinals(values []OrdinalWeekday) ([]OrdinalWeekday, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := slices.Clone(values)
	slices.SortFunc(out, compareOrdinals)
	for i, v := range out {
		if v.Ordinal < MinOrdinal || v.Ordinal > MaxOrdinal {
			return nil, fmt.Errorf("%w: ordinal %d outside %d-%d", ErrInvalidRule, v.Ordinal, MinOrdinal, MaxOrdinal)
		}
		if v.Weekday < time.Sunday || v.Weekday > time.Saturday {
			return nil, fmt.Errorf("%w: weekday %d outside 0-6", ErrInvalidRule, v.Weekday)
		}
		if i > 0 && out[i-1] == v {
			return nil, fmt.Errorf("%w: ordinal weekday %s listed more than once", ErrInvalidRule, v)
		}
	}
	return out, nil
}

func compareOrdinals(a, b OrdinalWeekday) int {
	if a.Ordinal != b.Ordinal {
		return a.Ordinal - b.Ordinal
	}
	return int(a.Weekday) - int(b.Weekday)
}
