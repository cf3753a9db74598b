package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
)

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Today returns the local calendar day of now.
func Today(now time.Time) Date {
	return DateOf(now)
}

// WeekRange returns the seven days starting on the most recent weekStart
// on or before today.
func WeekRange(now time.Time, weekStart time.Weekday) DateRange {
	today := Today(now)
	back := (int(today.Weekday()) - int(weekStart) + 7) % 7
	start := today.AddDays(-back)
	return DateRange{Start: start, End: start.AddDays(6)}
}

// MonthRange spans the first and last calendar day of the current month.
func MonthRange(now time.Time) DateRange {
	today := Today(now)
	first := NewDate(today.Year(), int(today.Month()), 1)
	// Day 0 of the next month is the last day of this one.
	last := Date{Time: time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, time.UTC)}
	return DateRange{Start: first, End: last}
}

// ParseRange resolves a named range relative to now.
func ParseRange(name string, now time.Time, weekStart time.Weekday) (DateRange, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case RangeToday, "":
		today := Today(now)
		return DateRange{Start: today, End: today}, nil
	case RangeWeek:
		return WeekRange(now, weekStart), nil
	case RangeMonth:
		return MonthRange(now), nil
	default:
		return DateRange{}, fmt.Errorf("unknown range %q", name)
	}
}

// ParseWeekday accepts an English weekday name ("sunday", "Mon").
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", s)
}
