package tui

import (
	"github.com/javiermolinar/weekgrid/internal/slot"
)

const (
	maxListWidth = 30
	minListWidth = 16
	gutterWidth  = 6 // "HH:00 "
	headerLines  = 2 // title, day names
	footerLines  = 2 // preview or status, help
	minColWidth  = 6
)

// Layout is the terminal geometry of one frame. The side list occupies the
// left edge, the seven day columns sit to the right of the hour gutter and
// every hour row of the window spans RowLines terminal lines.
type Layout struct {
	Width     int
	Height    int
	ListWidth int
	GridX     int
	GridY     int
	ColWidth  int
	RowLines  int
}

// NewLayout computes the geometry for a terminal of the given size.
func NewLayout(width, height int) Layout {
	l := Layout{Width: width, Height: height, GridY: headerLines}
	l.ListWidth = max(minListWidth, min(maxListWidth, width/4))
	l.GridX = l.ListWidth + gutterWidth
	l.ColWidth = max(0, (width-l.GridX)/slot.DaysPerWeek)

	l.RowLines = 1
	if height-headerLines-footerLines >= 2*slot.RowsPerColumn {
		l.RowLines = 2
	}
	return l
}

// Fits reports whether the grid can be drawn.
func (l Layout) Fits() bool {
	return l.ColWidth >= minColWidth && l.Height >= headerLines+footerLines+slot.RowsPerColumn
}

// ColumnHeight returns the height of a day column in lines.
func (l Layout) ColumnHeight() int {
	return slot.RowsPerColumn * l.RowLines
}

// ListRows returns how many side list entries fit.
func (l Layout) ListRows() int {
	return l.ColumnHeight()
}

// Area is the surface under a terminal cell.
type Area int

const (
	AreaNone Area = iota
	AreaList
	AreaGrid
)

// Hit describes what lies under a terminal cell.
type Hit struct {
	Area    Area
	Row     int     // side list row, relative to the first entry
	Day     int     // day column
	OffsetY float64 // lines from the top of the day column
}

// Hit resolves a terminal cell.
func (l Layout) Hit(x, y int) Hit {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return Hit{Area: AreaNone}
	}
	if x < l.ListWidth && y >= l.GridY-1 && y < l.GridY+l.ListRows() {
		return Hit{Area: AreaList, Row: y - l.GridY}
	}
	gridW := l.ColWidth * slot.DaysPerWeek
	if y >= l.GridY && y < l.GridY+l.ColumnHeight() {
		if day := slot.Column(float64(x-l.GridX), float64(gridW)); day >= 0 {
			return Hit{Area: AreaGrid, Day: day, OffsetY: float64(y - l.GridY)}
		}
	}
	return Hit{Area: AreaNone}
}

// SlotAt returns the slot drawn on a column line.
func (l Layout) SlotAt(line int) slot.Slot {
	return slot.Map(float64(line), float64(l.ColumnHeight()))
}

// LineFor returns the first column line of a slot.
func (l Layout) LineFor(s slot.Slot) int {
	return (s.Hour-slot.WindowStartHour)*l.RowLines + s.Minute*l.RowLines/60
}

// Cell returns the terminal cell at the top-left of a day column line.
func (l Layout) Cell(day, line int) (x, y int) {
	return l.GridX + day*l.ColWidth, l.GridY + line
}
