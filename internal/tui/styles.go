package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/weekgrid/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	Title          lipgloss.Style
	WeekRange      lipgloss.Style
	DayHeader      lipgloss.Style
	DayHeaderToday lipgloss.Style
	HourLabel      lipgloss.Style

	Empty    lipgloss.Style
	EmptyAlt lipgloss.Style // alternating hour rows
	Boundary lipgloss.Style // the 24:00 row
	Cursor   lipgloss.Style

	PreviewValid   lipgloss.Style
	PreviewInvalid lipgloss.Style

	ListTitle    lipgloss.Style
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	ListRoutine  lipgloss.Style
	ListDrop     lipgloss.Style // side list while a placed unit hovers over it

	Status      lipgloss.Style
	StatusError lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)

	return &Styles{
		palette: p,

		Title:          lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		WeekRange:      lipgloss.NewStyle().Foreground(p.FgMuted),
		DayHeader:      lipgloss.NewStyle().Foreground(p.Fg).Bold(true),
		DayHeaderToday: lipgloss.NewStyle().Foreground(p.TextOnAccent).Background(p.Accent).Bold(true),
		HourLabel:      lipgloss.NewStyle().Foreground(p.FgMuted),

		Empty:    lipgloss.NewStyle().Background(p.Bg),
		EmptyAlt: lipgloss.NewStyle().Background(p.BgHighlight),
		Boundary: lipgloss.NewStyle().Foreground(p.FgMuted).Faint(true),
		Cursor:   lipgloss.NewStyle().Background(p.BgSelection).Foreground(p.Fg),

		PreviewValid:   lipgloss.NewStyle().Background(p.ValidBg).Foreground(p.TextOnValid).Bold(true),
		PreviewInvalid: lipgloss.NewStyle().Background(p.InvalidBg).Foreground(p.TextOnInvalid).Bold(true),

		ListTitle:    lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		ListItem:     lipgloss.NewStyle().Foreground(p.Fg),
		ListSelected: lipgloss.NewStyle().Foreground(p.Fg).Background(p.BgSelection),
		ListRoutine:  lipgloss.NewStyle().Foreground(p.Routine),
		ListDrop:     lipgloss.NewStyle().Foreground(p.Warning).Bold(true),

		Status:      lipgloss.NewStyle().Foreground(p.Valid),
		StatusError: lipgloss.NewStyle().Foreground(p.Warning).Bold(true),
	}
}

// Block returns the style of a placement drawn in a project color.
func (s *Styles) Block(color string) lipgloss.Style {
	bg, fg := s.palette.Block(color)
	return lipgloss.NewStyle().Background(bg).Foreground(fg)
}

// Swatch returns a foreground-only style in a project color.
func (s *Styles) Swatch(color string) lipgloss.Style {
	if color == "" {
		return lipgloss.NewStyle().Foreground(s.palette.Accent)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
