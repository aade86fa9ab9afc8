package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) *time.Time {
	t := now.AddDate(0, 0, -d)
	return &t
}

func TestEvaluateNeverDonated(t *testing.T) {
	res := Evaluate(nil, now)
	assert.True(t, res.Eligible)
	assert.Equal(t, 0, res.DaysRemaining)
	assert.Equal(t, now, res.NextEligibleDate)

	zero := time.Time{}
	res = Evaluate(&zero, now)
	assert.True(t, res.Eligible, "zero time means no donation on record")
}

func TestEvaluateWithinWaitPeriod(t *testing.T) {
	cases := []struct {
		daysAgo       int
		daysRemaining int
	}{
		{1, 89},
		{45, 45},
		{89, 1},
	}
	for _, tc := range cases {
		res := Evaluate(daysAgo(tc.daysAgo), now)
		require.False(t, res.Eligible, "donated %d days ago", tc.daysAgo)
		assert.Equal(t, tc.daysRemaining, res.DaysRemaining)
		assert.Equal(t, daysAgo(tc.daysAgo).AddDate(0, 0, MinIntervalDays), res.NextEligibleDate)
	}
}

func TestEvaluateAfterWaitPeriod(t *testing.T) {
	for _, d := range []int{90, 91, 365} {
		res := Evaluate(daysAgo(d), now)
		require.True(t, res.Eligible, "donated %d days ago", d)
		assert.Equal(t, 0, res.DaysRemaining)
	}
}

func TestEvaluatePartialDayRoundsUp(t *testing.T) {
	// 89 days and one hour elapsed counts as 90 elapsed days.
	last := now.Add(-(89*24 + 1) * time.Hour)
	res := Evaluate(&last, now)
	assert.True(t, res.Eligible)
}
