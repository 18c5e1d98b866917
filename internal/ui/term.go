package ui

import (
	"os"

	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Days and section titles
	colorHeader = color.New(color.Bold)

	// Time ranges: cyan so the eye can scan down a day
	colorTime = color.New(color.FgCyan)

	// Routine occurrences: magenta, matching the ↻ marker
	colorRoutine = color.New(color.FgMagenta)

	// Confirmations
	colorOK = color.New(color.FgGreen)

	// Rejected drops
	colorWarn = color.New(color.FgYellow)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// noColorRequested reports whether the environment asks for plain output.
func noColorRequested() bool {
	return termenv.EnvNoColor()
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatTime(s string) string {
	return colorTime.Sprint(s)
}

func formatRoutine(s string) string {
	return colorRoutine.Sprint(s)
}

func formatOK(s string) string {
	return colorOK.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
