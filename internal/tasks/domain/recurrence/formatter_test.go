package recurrence_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	all := []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}

	tests := []struct {
		name string
		rule recurrence.Rule
		want string
	}{
		{"daily", recurrence.MustRule(recurrence.NewDailyRule(1)), "Every day"},
		{"every 3 days", recurrence.MustRule(recurrence.NewDailyRule(3)), "Every 3 days"},
		{"weekly plain", recurrence.MustRule(recurrence.NewWeeklyRule(1)), "Every week"},
		{"weekly two days", recurrence.MustRule(recurrence.NewWeeklyRule(2, time.Wednesday, time.Monday)),
			"Every 2 weeks on Monday and Wednesday"},
		{"weekly three days", recurrence.MustRule(recurrence.NewWeeklyRule(1, time.Monday, time.Wednesday, time.Friday)),
			"Every week on Monday, Wednesday and Friday"},
		{"weekly all days", recurrence.MustRule(recurrence.NewWeeklyRule(1, all...)), "Every day"},
		{"fortnightly all days", recurrence.MustRule(recurrence.NewWeeklyRule(2, all...)),
			"Every 2 weeks on Sunday, Monday, Tuesday, Wednesday, Thursday, Friday and Saturday"},
		{"monthly plain", recurrence.MustRule(recurrence.NewMonthlyRule(1, nil, nil)), "Every month"},
		{"monthly days", recurrence.MustRule(recurrence.NewMonthlyRule(1, []int{1, 15}, nil)), "Every month on the 1st and 15th"},
		{"monthly ordinal", recurrence.MustRule(recurrence.NewMonthlyRule(1, nil,
			[]recurrence.OrdinalWeekday{{Ordinal: 2, Weekday: time.Tuesday}})), "Every month on the 2nd Tuesday"},
		{"monthly both", recurrence.MustRule(recurrence.NewMonthlyRule(3, []int{1},
			[]recurrence.OrdinalWeekday{{Ordinal: 3, Weekday: time.Friday}})), "Every 3 months on the 1st and on the 3rd Friday"},
		{"yearly plain", recurrence.MustRule(recurrence.NewYearlyRule(1, nil, nil)), "Every year"},
		{"yearly months and days", recurrence.MustRule(recurrence.NewYearlyRule(2, []time.Month{time.June, time.March}, []int{21})),
			"Every 2 years in March and June on the 21st"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recurrence.Describe(tt.rule))
		})
	}

	assert.Empty(t, recurrence.Describe(recurrence.Rule{}))
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd", 31: "31st", 101: "101st", 111: "111th",
	}
	for n, want := range cases {
		assert.Equal(t, want, recurrence.Ordinal(n))
	}
}

func TestJoinAnd(t *testing.T) {
	assert.Equal(t, "", recurrence.JoinAnd(nil))
	assert.Equal(t, "A", recurrence.JoinAnd([]string{"A"}))
	assert.Equal(t, "A and B", recurrence.JoinAnd([]string{"A", "B"}))
	assert.Equal(t, "A, B and C", recurrence.JoinAnd([]string{"A", "B", "C"}))
}
