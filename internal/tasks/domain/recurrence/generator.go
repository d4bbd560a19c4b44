package recurrence

import (
	"log/slog"
	"slices"
	"time"

	"github.com/samber/mo"
)

const (
	// CycleScanMultiplier bounds a count-limited scan to count × multiplier cycles.
	CycleScanMultiplier = 5
	// MinScanCycles lets a single-occurrence request still cross the 8 year
	// gap between Feb 29ths around non-leap century years.
	MinScanCycles = 8
	// DefaultMaxOccurrences caps horizon-only windows.
	DefaultMaxOccurrences = 1000
)

// Window bounds a generation run. At least one of Count and Horizon must be set;
// when both are set generation stops at whichever is reached first.
// From skips dates before it without changing the rule's cycle alignment,
// which stays tied to the anchor.
type Window struct {
	Count   int
	Horizon mo.Option[time.Time]
	From    mo.Option[time.Time]
}

// NextN is a window of the first n occurrences.
func NextN(n int) Window {
	return Window{Count: n}
}

// Until is a window of all occurrences on or before horizon.
func Until(horizon time.Time) Window {
	return Window{Horizon: mo.Some(DateOf(horizon))}
}

// WithHorizon returns a copy of w that also stops at horizon.
func (w Window) WithHorizon(horizon time.Time) Window {
	w.Horizon = mo.Some(DateOf(horizon))
	return w
}

// Starting returns a copy of w that only yields dates on or after from.
func (w Window) Starting(from time.Time) Window {
	w.From = mo.Some(DateOf(from))
	return w
}

func (w Window) validate() error {
	if w.Count < 0 || (w.Count == 0 && w.Horizon.IsAbsent()) {
		return ErrUnboundedWindow
	}
	return nil
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithMaxOccurrences overrides the cap applied to horizon-only windows.
func WithMaxOccurrences(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.maxOccurrences = n
		}
	}
}

// Generator expands recurrence rules into concrete due dates.
// It is stateless apart from its logger and safe for concurrent use.
type Generator struct {
	logger         *slog.Logger
	maxOccurrences int
}

// NewGenerator creates a generator. A nil logger falls back to slog.Default.
func NewGenerator(logger *slog.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{logger: logger, maxOccurrences: DefaultMaxOccurrences}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the rule's due dates on or after anchor, strictly increasing.
// A rule that produces nothing within the scan limit yields an empty slice and a
// warning log entry rather than an error.
func (g *Generator) Generate(rule Rule, anchor time.Time, window Window) ([]time.Time, error) {
	if rule.IsZero() {
		return nil, ErrInvalidRule
	}
	if err := window.validate(); err != nil {
		return nil, err
	}
	anchor = DateOf(anchor)
	start, firstCycle := anchor, 0
	if from, ok := window.From.Get(); ok && DateOf(from).After(anchor) {
		start = DateOf(from)
		firstCycle = cyclesBefore(rule, anchor, start)
	}
	horizon, hasHorizon := window.Horizon.Get()
	if hasHorizon {
		horizon = DateOf(horizon)
	}

	limit := window.Count
	maxCycles := max(window.Count*CycleScanMultiplier, MinScanCycles)
	if limit == 0 {
		limit = g.maxOccurrences
		maxCycles = g.maxOccurrences * CycleScanMultiplier
	}

	out := make([]time.Time, 0, min(limit, 64))
	exhausted := true

scan:
	for cycle := firstCycle; cycle < firstCycle+maxCycles; cycle++ {
		cycleStart, candidates := cycleDates(rule, anchor, cycle)
		if hasHorizon && cycleStart.After(horizon) {
			exhausted = false
			break
		}
		for _, d := range candidates {
			if d.Before(start) {
				continue
			}
			if hasHorizon && d.After(horizon) {
				exhausted = false
				break scan
			}
			if n := len(out); n > 0 && !d.After(out[n-1]) {
				continue
			}
			out = append(out, d)
			if len(out) == limit {
				exhausted = false
				if window.Count == 0 {
					g.logger.Debug("horizon window truncated", "limit", limit)
				}
				break scan
			}
		}
	}

	if exhausted {
		attrs := []any{
			"frequency", rule.Frequency(),
			"interval", rule.Interval(),
			"anchor", anchor.Format(time.DateOnly),
			"cycles", maxCycles,
			"produced", len(out),
		}
		if len(out) == 0 {
			g.logger.Warn("recurrence rule produced no occurrences", append(attrs, "error", ErrUnproducibleRule)...)
		} else {
			g.logger.Debug("recurrence scan limit reached", attrs...)
		}
	}

	return out, nil
}

// CheckProducible returns ErrUnproducibleRule when the rule yields nothing from anchor.
func (g *Generator) CheckProducible(rule Rule, anchor time.Time) error {
	dates, err := g.Generate(rule, anchor, NextN(1))
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		return ErrUnproducibleRule
	}
	return nil
}

// cyclesBefore returns the index of the cycle containing from, counted from
// the anchor's cycle. Every cycle before it ends before from.
func cyclesBefore(rule Rule, anchor, from time.Time) int {
	var elapsed int
	switch p := rule.pattern.(type) {
	case DailyPattern:
		elapsed = daysBetween(anchor, from)
	case WeeklyPattern:
		if len(p.Days) == 0 {
			elapsed = daysBetween(anchor, from) / 7
		} else {
			elapsed = daysBetween(StartOfWeek(anchor), StartOfWeek(from)) / 7
		}
	case MonthlyPattern:
		elapsed = (from.Year()-anchor.Year())*12 + int(from.Month()) - int(anchor.Month())
	case YearlyPattern:
		elapsed = from.Year() - anchor.Year()
	}
	return max(elapsed/rule.interval, 0)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// cycleDates returns the first date of the cycle and its candidate dates in
// ascending order. Candidates may fall before the anchor in the first cycle.
func cycleDates(rule Rule, anchor time.Time, cycle int) (time.Time, []time.Time) {
	step := cycle * rule.interval
	switch p := rule.pattern.(type) {
	case DailyPattern:
		d := anchor.AddDate(0, 0, step)
		return d, []time.Time{d}

	case WeeklyPattern:
		if len(p.Days) == 0 {
			d := anchor.AddDate(0, 0, 7*step)
			return d, []time.Time{d}
		}
		weekStart := StartOfWeek(anchor).AddDate(0, 0, 7*step)
		dates := make([]time.Time, 0, len(p.Days))
		for _, wd := range p.Days {
			dates = append(dates, weekStart.AddDate(0, 0, int(wd)))
		}
		return weekStart, dates

	case MonthlyPattern:
		monthStart := AddMonthsClamped(Date(anchor.Year(), anchor.Month(), 1), step)
		if len(p.Days) == 0 && len(p.Ordinals) == 0 {
			d := AddMonthsClamped(anchor, step)
			return monthStart, []time.Time{d}
		}
		return monthStart, monthlyCandidates(monthStart.Year(), monthStart.Month(), p)

	case YearlyPattern:
		year := anchor.Year() + step
		yearStart := Date(year, time.January, 1)
		if len(p.Months) == 0 && len(p.Days) == 0 {
			return yearStart, []time.Time{AddMonthsClamped(anchor, 12*step)}
		}
		return yearStart, yearlyCandidates(year, anchor, p)

	default:
		return anchor, nil
	}
}

func monthlyCandidates(year int, month time.Month, p MonthlyPattern) []time.Time {
	last := DaysIn(year, month)
	dates := make([]time.Time, 0, len(p.Days)+len(p.Ordinals))
	for _, day := range p.Days {
		if day <= last {
			dates = append(dates, Date(year, month, day))
		}
	}
	for _, o := range p.Ordinals {
		if d, ok := NthWeekdayOfMonth(year, month, o.Weekday, o.Ordinal).Get(); ok {
			dates = append(dates, d)
		}
	}
	return sortUnique(dates)
}

func yearlyCandidates(year int, anchor time.Time, p YearlyPattern) []time.Time {
	months := p.Months
	if len(months) == 0 {
		months = []time.Month{anchor.Month()}
	}
	days := p.Days
	if len(days) == 0 {
		days = []int{anchor.Day()}
	}
	dates := make([]time.Time, 0, len(months)*len(days))
	for _, m := range months {
		last := DaysIn(year, m)
		for _, day := range days {
			if day <= last {
				dates = append(dates, Date(year, m, day))
			}
		}
	}
	return dates
}

func sortUnique(dates []time.Time) []time.Time {
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(dates, func(a, b time.Time) bool { return a.Equal(b) })
}
