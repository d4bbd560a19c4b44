package recurrence

import (
	"strconv"
	"strings"
)

var frequencyUnits = map[Frequency]string{
	FrequencyDaily:   "day",
	FrequencyWeekly:  "week",
	FrequencyMonthly: "month",
	FrequencyYearly:  "year",
}

// Describe renders a rule as an English phrase such as
// "Every 2 weeks on Monday and Wednesday" or "Every month on the 2nd Tuesday".
func Describe(rule Rule) string {
	if rule.IsZero() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Every ")
	unit := frequencyUnits[rule.Frequency()]
	if rule.interval > 1 {
		b.WriteString(strconv.Itoa(rule.interval))
		b.WriteString(" ")
		b.WriteString(unit)
		b.WriteString("s")
	} else {
		b.WriteString(unit)
	}

	switch p := rule.pattern.(type) {
	case WeeklyPattern:
		if len(p.Days) == 7 && rule.interval == 1 {
			return "Every day"
		}
		if len(p.Days) > 0 {
			names := make([]string, len(p.Days))
			for i, d := range p.Days {
				names[i] = d.String()
			}
			b.WriteString(" on ")
			b.WriteString(JoinAnd(names))
		}

	case MonthlyPattern:
		var phrases []string
		if len(p.Days) > 0 {
			phrases = append(phrases, "the "+JoinAnd(ordinalDays(p.Days)))
		}
		if len(p.Ordinals) > 0 {
			ords := make([]string, len(p.Ordinals))
			for i, o := range p.Ordinals {
				ords[i] = Ordinal(o.Ordinal) + " " + o.Weekday.String()
			}
			phrases = append(phrases, "the "+JoinAnd(ords))
		}
		if len(phrases) > 0 {
			b.WriteString(" on ")
			b.WriteString(strings.Join(phrases, " and on "))
		}

	case YearlyPattern:
		if len(p.Months) > 0 {
			names := make([]string, len(p.Months))
			for i, m := range p.Months {
				names[i] = m.String()
			}
			b.WriteString(" in ")
			b.WriteString(JoinAnd(names))
		}
		if len(p.Days) > 0 {
			b.WriteString(" on the ")
			b.WriteString(JoinAnd(ordinalDays(p.Days)))
		}
	}

	return b.String()
}

// Ordinal renders n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 21st.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// JoinAnd joins items as "A", "A and B" or "A, B and C".
func JoinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

func ordinalDays(days []int) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = Ordinal(d)
	}
	return out
}
