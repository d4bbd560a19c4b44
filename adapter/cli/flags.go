package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/spf13/cobra"
)

// ParseDate parses a YYYY-MM-DD flag value. Empty yields nil.
func ParseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}
	d := recurrence.DateOf(t)
	return &d, nil
}

// FormatDate renders a calendar date as "Mon 2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format("Mon 2006-01-02")
}

// RuleFlags collects a recurrence rule from command-line flags.
type RuleFlags struct {
	Every    string
	Interval int
	Days     []string
	Dates    []string
	Ordinals []string
	Months   []string
}

// Register adds the rule flags to cmd.
func (f *RuleFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Every, "every", "", "repeat frequency (daily, weekly, monthly, yearly)")
	cmd.Flags().IntVar(&f.Interval, "interval", 1, "repeat every N periods")
	cmd.Flags().StringSliceVar(&f.Days, "days", nil, "weekdays for weekly rules (mon,wed or 1,3)")
	cmd.Flags().StringSliceVar(&f.Dates, "dates", nil, "days of month for monthly and yearly rules (1,15,31)")
	cmd.Flags().StringSliceVar(&f.Ordinals, "nth", nil, "ordinal weekdays for monthly rules (2tue, 5fri)")
	cmd.Flags().StringSliceVar(&f.Months, "months", nil, "months for yearly rules (jan,jul or 1,7)")
}

// Reset restores the flag defaults.
func (f *RuleFlags) Reset() {
	*f = RuleFlags{Interval: 1}
}

// Spec builds the rule spec. It returns nil when --every is unset.
func (f *RuleFlags) Spec() (*recurrence.RuleSpec, error) {
	if f.Every == "" {
		if len(f.Days)+len(f.Dates)+len(f.Ordinals)+len(f.Months) > 0 {
			return nil, fmt.Errorf("--every is required with --days, --dates, --nth or --months")
		}
		return nil, nil
	}
	freq, err := recurrence.ParseFrequency(strings.ToLower(f.Every))
	if err != nil {
		return nil, err
	}
	spec := &recurrence.RuleSpec{Frequency: freq, Interval: f.Interval}

	for _, d := range f.Days {
		w, err := recurrence.ParseWeekday(d)
		if err != nil {
			return nil, err
		}
		spec.DaysOfWeek = append(spec.DaysOfWeek, int(w))
	}
	for _, d := range f.Dates {
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil {
			return nil, fmt.Errorf("%w: day of month %q is not a number", recurrence.ErrInvalidRule, d)
		}
		spec.DaysOfMonth = append(spec.DaysOfMonth, n)
	}
	for _, o := range f.Ordinals {
		ow, err := recurrence.ParseOrdinalWeekday(o)
		if err != nil {
			return nil, err
		}
		spec.OrdinalWeekdays = append(spec.OrdinalWeekdays, ow)
	}
	for _, m := range f.Months {
		month, err := recurrence.ParseMonth(m)
		if err != nil {
			return nil, err
		}
		spec.MonthsOfYear = append(spec.MonthsOfYear, int(month))
	}

	if _, err := spec.Build(); err != nil {
		return nil, err
	}
	return spec, nil
}
