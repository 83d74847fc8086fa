// Package deadline holds the pure calendar math used by every stage that
// enforces a filing window: admissibility review, defense, appeals and the
// election voting window. Nothing here reads a clock; callers inject time.
package deadline

import "time"

const dayKeyLayout = "2006-01-02"

// Calendar carries election-specific dates that do not count as deadline
// days (recesses, local holidays declared by the electoral calendar).
type Calendar struct {
	exceptions map[string]struct{}
}

func NewCalendar(exceptions []time.Time) Calendar {
	index := make(map[string]struct{}, len(exceptions))
	for _, day := range exceptions {
		index[day.UTC().Format(dayKeyLayout)] = struct{}{}
	}
	return Calendar{exceptions: index}
}

func (c Calendar) IsException(day time.Time) bool {
	if len(c.exceptions) == 0 {
		return false
	}
	_, ok := c.exceptions[day.UTC().Format(dayKeyLayout)]
	return ok
}

// Compute returns the filing deadline: windowDays calendar days after base,
// at end of day UTC. When the landing day is a calendar exception the
// deadline rolls forward to the next non-exception day.
func Compute(base time.Time, windowDays int, cal Calendar) time.Time {
	day := base.UTC().AddDate(0, 0, windowDays)
	for cal.IsException(day) {
		day = day.AddDate(0, 0, 1)
	}
	return endOfDay(day)
}

// IsTimely reports whether a submission landed inside its deadline. The
// boundary is inclusive: a submission at exactly the deadline is timely,
// any instant after it is not.
func IsTimely(submittedAt time.Time, deadline time.Time) bool {
	return !submittedAt.UTC().After(deadline.UTC())
}

// WithinWindow reports whether now falls inside [start, end], both ends
// inclusive.
func WithinWindow(now time.Time, start time.Time, end time.Time) bool {
	now = now.UTC()
	return !now.Before(start.UTC()) && !now.After(end.UTC())
}

func endOfDay(day time.Time) time.Time {
	day = day.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999999999, time.UTC)
}
