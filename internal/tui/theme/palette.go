// Package theme provides color themes for the TUI.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette holds precomputed colors derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Valid       lipgloss.Color
	Invalid     lipgloss.Color
	Routine     lipgloss.Color
	Warning     lipgloss.Color

	ValidBg   lipgloss.Color
	InvalidBg lipgloss.Color

	TextOnAccent  lipgloss.Color
	TextOnValid   lipgloss.Color
	TextOnInvalid lipgloss.Color

	light bool
	bg    string
	fg    string
}

// NewPalette derives a Palette from the provided Theme.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load("mocha")
	}

	isLight := isLightTheme(t.Bg)
	validBg := blockBg(t.Valid, t.Bg, isLight)
	invalidBg := blockBg(t.Invalid, t.Bg, isLight)

	return &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Valid:       lipgloss.Color(t.Valid),
		Invalid:     lipgloss.Color(t.Invalid),
		Routine:     lipgloss.Color(t.Routine),
		Warning:     lipgloss.Color(t.Warning),

		ValidBg:   lipgloss.Color(validBg),
		InvalidBg: lipgloss.Color(invalidBg),

		TextOnAccent:  lipgloss.Color(chooseTextColor(t.Accent, t.Bg, t.Fg)),
		TextOnValid:   lipgloss.Color(chooseTextColor(validBg, t.Fg, t.Bg)),
		TextOnInvalid: lipgloss.Color(chooseTextColor(invalidBg, t.Fg, t.Bg)),

		light: isLight,
		bg:    t.Bg,
		fg:    t.Fg,
	}
}

// Block returns the background and text colors for a block drawn in a
// project color. An empty or malformed color falls back to the accent.
func (p *Palette) Block(hex string) (bg, fg lipgloss.Color) {
	if len(hex) != 7 || hex[0] != '#' {
		hex = string(p.Accent)
	}
	b := blockBg(hex, p.bg, p.light)
	return lipgloss.Color(b), lipgloss.Color(chooseTextColor(b, p.fg, p.bg))
}

func isLightTheme(bg string) bool {
	return luminance(bg) > 0.55
}

// blockBg derives a block background from an accent color: pulled towards
// the background on light themes, dimmed on dark ones.
func blockBg(accent, bg string, isLight bool) string {
	if isLight {
		return blend(accent, bg, 0.75)
	}
	return dim(accent)
}

// minChannel keeps dimmed blocks visible against near-black backgrounds.
const minChannel = 40.0 / 255.0

// dim halves each channel of hex, never going below minChannel.
func dim(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return colorful.Color{
		R: max(c.R*0.5, minChannel),
		G: max(c.G*0.5, minChannel),
		B: max(c.B*0.5, minChannel),
	}.Hex()
}

// blend mixes a towards b; ratio 0 is a, 1 is b.
func blend(a, b string, ratio float64) string {
	ca, err := colorful.Hex(a)
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(b)
	if err != nil {
		return a
	}
	return ca.BlendRgb(cb, min(max(ratio, 0), 1)).Clamped().Hex()
}

// chooseTextColor returns whichever of light and dark reads better on bg.
func chooseTextColor(bg, light, dark string) string {
	if contrast(bg, light) >= contrast(bg, dark) {
		return light
	}
	return dark
}

func contrast(a, b string) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// luminance is the WCAG relative luminance of hex, 0 when unparsable.
func luminance(hex string) float64 {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
