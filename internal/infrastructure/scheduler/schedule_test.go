package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(30*time.Minute), s.Next(now))
	assert.Equal(t, "@every 30m0s", s.String())
}

func TestParseCronExpression_Valid(t *testing.T) {
	ce, err := ParseCronExpression("*/5 * * * *")
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", ce.String())

	from := time.Date(2026, 3, 10, 9, 3, 20, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 5, 0, 0, time.UTC), ce.Next(from))
}

func TestParseCronExpression_FixedTimeOfDay(t *testing.T) {
	ce, err := ParseCronExpression("0 21 * * *")
	require.NoError(t, err)

	morning := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC), ce.Next(morning))

	// past today's slot -> tomorrow
	evening := time.Date(2026, 3, 10, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 21, 0, 0, 0, time.UTC), ce.Next(evening))
}

func TestParseCronExpression_Weekday(t *testing.T) {
	// Sundays at midnight
	ce, err := ParseCronExpression("0 0 * * 0")
	require.NoError(t, err)

	// 2026-03-10 is a Tuesday; next Sunday is the 15th
	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), ce.Next(from))
}

func TestParseCronExpression_RangesAndLists(t *testing.T) {
	ce, err := ParseCronExpression("0 8-10 * * 1,3,5")
	require.NoError(t, err)

	// Monday 2026-03-09 09:30 -> next slot is 10:00 the same day
	from := time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), ce.Next(from))

	// after the last Monday slot -> Wednesday 08:00
	from = time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), ce.Next(from))
}

func TestParseCronExpression_Invalid(t *testing.T) {
	cases := []string{
		"* * * *",       // too few fields
		"* * * * * *",   // too many fields
		"60 * * * *",    // minute out of range
		"* 24 * * *",    // hour out of range
		"*/0 * * * *",   // zero step
		"abc * * * *",   // not a number
	}
	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
}

func TestMustParseCronExpression_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		MustParseCronExpression("not a cron")
	})
	assert.NotPanics(t, func() {
		MustParseCronExpression("0 */6 * * *")
	})
}
