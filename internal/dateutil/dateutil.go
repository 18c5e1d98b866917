// Package dateutil provides date parsing and week arithmetic in local wall-clock time.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidClock      = errors.New("time must be in HH:MM format")
	ErrInvalidWeekday    = errors.New("day must be a weekday name such as 'mon' or 'tuesday'")
)

// weekdayIndex maps weekday names and prefixes to grid column indexes (Monday = 0).
var weekdayIndex = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// ParseDate parses a date string in YYYY-MM-DD format in the local time zone.
// If the string is empty, returns today's date.
func ParseDate(s string) (time.Time, error) {
	return ParseDateAt(s, time.Now())
}

// ParseDateAt is ParseDate with an explicit "now". It also accepts "today",
// "next-week" and "last-week".
func ParseDateAt(s string, now time.Time) (time.Time, error) {
	today := TruncateToDay(now)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "next-week":
		return today.AddDate(0, 0, 7), nil
	case "last-week", "prev-week":
		return today.AddDate(0, 0, -7), nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (monday, sunday time.Time) {
	t = TruncateToDay(t)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday becomes day 7 in ISO week
	}
	monday = t.AddDate(0, 0, -(weekday - 1))
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}

// WeekStart returns midnight of the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	monday, _ := WeekRange(t)
	return monday
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayIndex returns the column of t in the week beginning at weekStart,
// or -1 when t falls outside that week. Calendar days are compared, so DST
// shifts do not move an instant to a neighbouring column.
func DayIndex(weekStart, t time.Time) int {
	weekStart = TruncateToDay(weekStart)
	for i := range 7 {
		if SameDay(weekStart.AddDate(0, 0, i), t) {
			return i
		}
	}
	return -1
}

// ParseClock parses "HH:MM" into hour and minute. Hour 24 is accepted only as
// "24:00", the midnight boundary.
func ParseClock(s string) (hour, minute int, err error) {
	s = strings.TrimSpace(s)
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, ErrInvalidClock
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, 0, ErrInvalidClock
	}
	return hour, minute, nil
}

// ParseWeekday returns the column index for a weekday name. Any unambiguous
// prefix of at least three letters is accepted.
func ParseWeekday(s string) (int, error) {
	input := strings.ToLower(strings.TrimSpace(s))
	if len(input) < 3 {
		return 0, ErrInvalidWeekday
	}
	for name, idx := range weekdayIndex {
		if strings.HasPrefix(name, input) {
			return idx, nil
		}
	}
	return 0, ErrInvalidWeekday
}

// WeekdayName returns the short name of a column index, e.g. "Mon".
func WeekdayName(day int) string {
	names := [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if day < 0 || day >= len(names) {
		return "?"
	}
	return names[day]
}
