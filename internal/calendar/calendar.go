package calendar

import (
	"fmt"
	"time"

	"github.com/spec-kit/routing-service/internal/domain"
)

// Schedule is a compiled weekly business-hours window. It is immutable
// after construction and safe for concurrent use.
type Schedule struct {
	loc      *time.Location
	startMin int
	endMin   int
	workDays map[time.Weekday]bool
}

// New compiles business hours into a Schedule. The configuration is
// validated: overnight windows (start >= end) and empty work-day sets are
// rejected here rather than producing undefined arithmetic later.
func New(bh domain.BusinessHours) (*Schedule, error) {
	if err := bh.Validate(); err != nil {
		return nil, err
	}
	startMin, err := domain.ParseClock(bh.Start)
	if err != nil {
		return nil, err
	}
	endMin, err := domain.ParseClock(bh.End)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(bh.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", bh.Timezone, err)
	}
	days := make(map[time.Weekday]bool, len(bh.WorkDays))
	for _, d := range bh.WorkDays {
		days[d] = true
	}
	return &Schedule{loc: loc, startMin: startMin, endMin: endMin, workDays: days}, nil
}

// Contains reports whether t falls within business hours: its weekday (in
// the schedule timezone) is a work day and its time-of-day lies within
// [start, end] inclusive.
func (s *Schedule) Contains(t time.Time) bool {
	local := t.In(s.loc)
	if !s.workDays[local.Weekday()] {
		return false
	}
	mod := local.Hour()*60 + local.Minute()
	return mod >= s.startMin && mod <= s.endMin
}

// AddBusinessMinutes advances from the given instant by the requested number
// of business minutes, skipping over non-business intervals wholesale. The
// result is identical to advancing minute by minute and counting only
// business instants.
func (s *Schedule) AddBusinessMinutes(from time.Time, minutes int) time.Time {
	if minutes <= 0 {
		return from
	}
	remaining := time.Duration(minutes) * time.Minute
	cur := from.In(s.loc)
	for {
		cur = s.nextWindowInstant(cur)
		end := s.windowEnd(cur)
		avail := end.Sub(cur)
		if avail >= remaining {
			return cur.Add(remaining)
		}
		remaining -= avail
		cur = end
	}
}

// BusinessMinutesBetween counts whole business minutes elapsed between from
// and to. It is the inverse check for AddBusinessMinutes.
func (s *Schedule) BusinessMinutesBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	total := time.Duration(0)
	cur := from.In(s.loc)
	limit := to.In(s.loc)
	for cur.Before(limit) {
		cur = s.nextWindowInstant(cur)
		if !cur.Before(limit) {
			break
		}
		end := s.windowEnd(cur)
		if end.After(limit) {
			end = limit
		}
		total += end.Sub(cur)
		cur = s.windowEnd(cur)
	}
	return int(total / time.Minute)
}

// nextWindowInstant returns t itself when t has business capacity ahead of
// it in the current day's window, else the start of the next window.
func (s *Schedule) nextWindowInstant(t time.Time) time.Time {
	cur := t
	for i := 0; i < 8; i++ {
		mod := cur.Hour()*60 + cur.Minute()
		if s.workDays[cur.Weekday()] {
			if mod < s.startMin {
				return s.atMinute(cur, s.startMin)
			}
			// Capacity exists strictly before the window end.
			if mod < s.endMin {
				return cur
			}
		}
		cur = s.atMinute(cur.AddDate(0, 0, 1), 0)
	}
	// workDays is validated non-empty, so a window exists within 7 days.
	return cur
}

// windowEnd returns the end of the business window on t's day.
func (s *Schedule) windowEnd(t time.Time) time.Time {
	return s.atMinute(t, s.endMin)
}

func (s *Schedule) atMinute(t time.Time, minuteOfDay int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), minuteOfDay/60, minuteOfDay%60, 0, 0, s.loc)
}
