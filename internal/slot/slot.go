// Package slot maps pointer positions inside a day column to half-hour
// positions on the scheduling window.
package slot

import (
	"fmt"
	"math"
	"time"
)

const (
	// WindowStartHour is the first hour shown on the grid.
	WindowStartHour = 5
	// WindowEndHour is the closing boundary of the window (midnight).
	WindowEndHour = 24
	// RowsPerColumn is the number of hour rows in a day column (05 through 24).
	RowsPerColumn = WindowEndHour - WindowStartHour + 1
	// SlotMinutes is the snapping granularity.
	SlotMinutes = 30
	// SlotsPerDay is the number of half-hour slots between 05:00 and 24:00.
	SlotsPerDay = (WindowEndHour - WindowStartHour) * 60 / SlotMinutes
	// DaysPerWeek is the number of day columns.
	DaysPerWeek = 7
)

// Slot is a snapped grid position.
type Slot struct {
	Hour   int  // 5..24, 24 is the midnight boundary
	Minute int  // 0 or 30
	Lower  bool // pointer sits in the lower half of the hour row
}

// DaySlot addresses a half-hour slot on a given day column.
type DaySlot struct {
	Day   int // 0=Monday, 6=Sunday
	Index int // 0..SlotsPerDay-1, 0 is 05:00
}

// Map converts a vertical offset inside a day column to a slot.
// The column is divided into RowsPerColumn equal hour rows. The offset is
// snapped down to the half-hour cell containing it and clamped to [05:00, 24:00].
func Map(offsetY, columnHeight float64) Slot {
	if columnHeight <= 0 || math.IsNaN(offsetY) {
		return Slot{Hour: WindowStartHour}
	}
	offsetY = math.Max(0, math.Min(offsetY, columnHeight))

	minutes := int(math.Floor(offsetY * RowsPerColumn * 60 / columnHeight))
	snapped := (minutes / SlotMinutes) * SlotMinutes

	s := Slot{
		Hour:   WindowStartHour + snapped/60,
		Minute: snapped % 60,
	}
	s.Lower = s.Minute == 30
	if s.Hour >= WindowEndHour {
		s.Hour = WindowEndHour
		s.Minute = 0
		s.Lower = false
	}
	return s
}

// OffsetFor returns the top offset of the cell for hour:minute in a column of
// the given height. It is the inverse of Map for snapped positions.
func OffsetFor(hour, minute int, columnHeight float64) float64 {
	minutes := (hour-WindowStartHour)*60 + minute
	return float64(minutes) * columnHeight / float64(RowsPerColumn*60)
}

// Column returns the day column under a horizontal offset, or -1 when the
// offset is outside the grid.
func Column(offsetX, gridWidth float64) int {
	if gridWidth <= 0 || offsetX < 0 || offsetX >= gridWidth {
		return -1
	}
	return int(offsetX * DaysPerWeek / gridWidth)
}

// Open returns true if a span may start at this slot. The 24:00 boundary closes
// the window, so nothing can start there.
func (s Slot) Open() bool {
	return s.Hour >= WindowStartHour && s.Hour < WindowEndHour
}

// Index returns the half-hour index of the slot from 05:00.
func (s Slot) Index() int {
	return ((s.Hour-WindowStartHour)*60 + s.Minute) / SlotMinutes
}

// Clock returns the wall-clock hour and minute. The 24:00 boundary maps back
// to 00:00 with dayOffset 1.
func (s Slot) Clock() (hour, minute, dayOffset int) {
	if s.Hour >= WindowEndHour {
		return 0, 0, 1
	}
	return s.Hour, s.Minute, 0
}

// On returns the instant of the slot on the given calendar day in the day's
// location.
func (s Slot) On(day time.Time) time.Time {
	h, m, off := s.Clock()
	return time.Date(day.Year(), day.Month(), day.Day()+off, h, m, 0, 0, day.Location())
}

// String returns "HH:MM". The boundary prints as "24:00".
func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// FromIndex returns the slot for a half-hour index.
func FromIndex(index int) Slot {
	index = max(0, min(index, SlotsPerDay))
	minutes := index * SlotMinutes
	s := Slot{Hour: WindowStartHour + minutes/60, Minute: minutes % 60}
	s.Lower = s.Minute == 30
	return s
}

// FromTime returns the slot containing t's wall-clock time, and false when t
// falls before the window opens.
func FromTime(t time.Time) (Slot, bool) {
	minutes := t.Hour()*60 + t.Minute()
	start := WindowStartHour * 60
	if minutes < start {
		return Slot{Hour: WindowStartHour}, false
	}
	return FromIndex((minutes - start) / SlotMinutes), true
}

// WindowEnd returns the closing boundary (24:00) for the calendar day of t.
func WindowEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}

// WindowStart returns 05:00 on the calendar day of t.
func WindowStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), WindowStartHour, 0, 0, 0, t.Location())
}

// FormatRange formats a span as "14:00–16:00". Ends at midnight print as 24:00.
func FormatRange(start, end time.Time) string {
	endLabel := end.Format("15:04")
	if end.Hour() == 0 && end.Minute() == 0 && !sameDay(start, end) {
		endLabel = "24:00"
	}
	return start.Format("15:04") + "–" + endLabel
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
