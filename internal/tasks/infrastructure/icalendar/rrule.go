// Package icalendar exports tasks as an iCalendar VTODO feed.
package icalendar

import (
	"slices"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// RecurrenceOptions expresses rule as RFC 5545 RRULEs anchored on anchor.
// Monthly rules mixing days of month and ordinal weekdays produce the union
// of both sets, which needs two RRULEs; every other rule needs one. Dtstart
// is left for the caller to set.
func RecurrenceOptions(rule recurrence.Rule, anchor time.Time) []*rrule.ROption {
	anchor = recurrence.DateOf(anchor)
	base := func(freq rrule.Frequency) *rrule.ROption {
		return &rrule.ROption{Freq: freq, Interval: rule.Interval(), Wkst: rrule.SU}
	}

	switch p := rule.Pattern().(type) {
	case recurrence.DailyPattern:
		return []*rrule.ROption{base(rrule.DAILY)}

	case recurrence.WeeklyPattern:
		opt := base(rrule.WEEKLY)
		for _, d := range p.Days {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[d])
		}
		return []*rrule.ROption{opt}

	case recurrence.MonthlyPattern:
		var opts []*rrule.ROption
		if len(p.Days) > 0 {
			opt := base(rrule.MONTHLY)
			opt.Bymonthday = slices.Clone(p.Days)
			opts = append(opts, opt)
		}
		if len(p.Ordinals) > 0 {
			opt := base(rrule.MONTHLY)
			for _, o := range p.Ordinals {
				opt.Byweekday = append(opt.Byweekday, rruleWeekdays[o.Weekday].Nth(o.Ordinal))
			}
			opts = append(opts, opt)
		}
		if len(opts) == 0 {
			opt := base(rrule.MONTHLY)
			clampToDay(opt, anchor.Day())
			opts = append(opts, opt)
		}
		return opts

	case recurrence.YearlyPattern:
		opt := base(rrule.YEARLY)
		if len(p.Months) == 0 && len(p.Days) == 0 {
			opt.Bymonth = []int{int(anchor.Month())}
			if anchor.Month() == time.February {
				clampToDay(opt, anchor.Day())
			} else {
				opt.Bymonthday = []int{anchor.Day()}
			}
			return []*rrule.ROption{opt}
		}
		opt.Bymonth = []int{int(anchor.Month())}
		if len(p.Months) > 0 {
			opt.Bymonth = opt.Bymonth[:0]
			for _, m := range p.Months {
				opt.Bymonth = append(opt.Bymonth, int(m))
			}
		}
		opt.Bymonthday = []int{anchor.Day()}
		if len(p.Days) > 0 {
			opt.Bymonthday = slices.Clone(p.Days)
		}
		return []*rrule.ROption{opt}
	}
	return nil
}

// clampToDay selects day, or the month's last day when it is shorter.
func clampToDay(opt *rrule.ROption, day int) {
	if day <= 28 {
		opt.Bymonthday = []int{day}
		return
	}
	for d := 28; d <= day; d++ {
		opt.Bymonthday = append(opt.Bymonthday, d)
	}
	opt.Bysetpos = []int{-1}
}
