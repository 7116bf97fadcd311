package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/routing-service/internal/domain"
)

func weekdaySchedule(t *testing.T) *Schedule {
	t.Helper()
	sched, err := New(domain.BusinessHours{
		Start:    "09:00",
		End:      "17:00",
		Timezone: "UTC",
		WorkDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
	})
	require.NoError(t, err)
	return sched
}

// 2024-01-08 is a Monday.
func utc(day, hour, min int) time.Time {
	return time.Date(2024, time.January, day, hour, min, 0, 0, time.UTC)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	weekdays := []time.Weekday{time.Monday}
	cases := map[string]domain.BusinessHours{
		"overnight window": {Start: "22:00", End: "06:00", Timezone: "UTC", WorkDays: weekdays},
		"start equals end": {Start: "09:00", End: "09:00", Timezone: "UTC", WorkDays: weekdays},
		"no work days":     {Start: "09:00", End: "17:00", Timezone: "UTC"},
		"bad clock":        {Start: "9am", End: "17:00", Timezone: "UTC", WorkDays: weekdays},
		"bad timezone":     {Start: "09:00", End: "17:00", Timezone: "Mars/Olympus", WorkDays: weekdays},
	}
	for name, bh := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(bh)
			assert.Error(t, err)
		})
	}
}

func TestContains(t *testing.T) {
	sched := weekdaySchedule(t)
	cases := map[string]struct {
		at   time.Time
		want bool
	}{
		"monday mid-window":      {utc(8, 12, 0), true},
		"window start inclusive": {utc(8, 9, 0), true},
		"window end inclusive":   {utc(8, 17, 0), true},
		"before window":          {utc(8, 8, 59), false},
		"after window":           {utc(8, 17, 1), false},
		"saturday":               {utc(13, 12, 0), false},
		"sunday":                 {utc(14, 12, 0), false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, sched.Contains(tc.at))
		})
	}
}

func TestContainsHonoursTimezone(t *testing.T) {
	sched, err := New(domain.BusinessHours{
		Start:    "09:00",
		End:      "17:00",
		Timezone: "America/New_York",
		WorkDays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	})
	require.NoError(t, err)

	// 15:00 UTC on Monday is 10:00 in New York.
	assert.True(t, sched.Contains(utc(8, 15, 0)))
	// 09:00 UTC is 04:00 in New York.
	assert.False(t, sched.Contains(utc(8, 9, 0)))
}

func TestAddBusinessMinutes(t *testing.T) {
	sched := weekdaySchedule(t)
	cases := map[string]struct {
		from    time.Time
		minutes int
		want    time.Time
	}{
		"within window":           {utc(8, 9, 0), 30, utc(8, 9, 30)},
		"zero minutes":            {utc(8, 9, 0), 0, utc(8, 9, 0)},
		"negative minutes":        {utc(8, 9, 0), -5, utc(8, 9, 0)},
		"friday spills to monday": {utc(12, 16, 50), 60, utc(15, 9, 50)},
		"start before window":     {utc(8, 7, 0), 15, utc(8, 9, 15)},
		"start after window":      {utc(8, 17, 30), 15, utc(9, 9, 15)},
		"start on weekend":        {utc(13, 12, 0), 30, utc(15, 9, 30)},
		"exactly one work day":    {utc(8, 9, 0), 480, utc(8, 17, 0)},
		"one work day plus one":   {utc(8, 9, 0), 481, utc(9, 9, 1)},
		"two work days":           {utc(8, 9, 0), 960, utc(9, 17, 0)},
		"week long window":        {utc(8, 13, 0), 2400, utc(15, 13, 0)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := sched.AddBusinessMinutes(tc.from, tc.minutes)
			assert.WithinDuration(t, tc.want, got, 0)
		})
	}
}

func TestBusinessMinutesBetween(t *testing.T) {
	sched := weekdaySchedule(t)
	cases := map[string]struct {
		from time.Time
		to   time.Time
		want int
	}{
		"same window":         {utc(8, 9, 0), utc(8, 9, 30), 30},
		"reversed bounds":     {utc(8, 9, 30), utc(8, 9, 0), 0},
		"across weekend":      {utc(12, 16, 50), utc(15, 9, 50), 60},
		"full work day":       {utc(8, 9, 0), utc(8, 17, 0), 480},
		"weekend contributes": {utc(13, 0, 0), utc(14, 23, 0), 0},
		"overnight gap":       {utc(8, 16, 0), utc(9, 10, 0), 120},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, sched.BusinessMinutesBetween(tc.from, tc.to))
		})
	}
}

// Advancing by n business minutes and counting the business minutes between
// the endpoints must agree, including across weekends.
func TestAddAndBetweenAgree(t *testing.T) {
	sched := weekdaySchedule(t)
	starts := []time.Time{
		utc(8, 9, 0),
		utc(12, 16, 50),
		utc(13, 3, 12),
		utc(10, 11, 7),
	}
	for _, from := range starts {
		for _, minutes := range []int{1, 30, 240, 480, 1000, 2400} {
			deadline := sched.AddBusinessMinutes(from, minutes)
			assert.Equal(t, minutes, sched.BusinessMinutesBetween(from, deadline),
				"from %v plus %d minutes", from, minutes)
		}
	}
}
