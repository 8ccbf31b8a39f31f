// Package theme derives the panel colors from the background of the page
// they float over.
package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme is the fallback color scheme used when the page background is unknown.
type Theme struct {
	Primary lipgloss.Color
	Accent  lipgloss.Color

	BgSurface  lipgloss.Color
	BgElevated lipgloss.Color

	TextPrimary lipgloss.Color
	TextMuted   lipgloss.Color

	Error lipgloss.Color

	Border lipgloss.Color
}

var DarkTheme = Theme{
	Primary: lipgloss.Color("#818CF8"), // Indigo 400
	Accent:  lipgloss.Color("#B39DDB"),

	BgSurface:  lipgloss.Color("#141419"),
	BgElevated: lipgloss.Color("#1E1E2A"),

	TextPrimary: lipgloss.Color("#F3F3F3"),
	TextMuted:   lipgloss.Color("#64748B"), // Slate 500

	Error: lipgloss.Color("#FB7185"), // Rose 400

	Border: lipgloss.Color("#3F3F46"),
}

var LightTheme = Theme{
	Primary: lipgloss.Color("#4F46E5"), // Indigo 600
	Accent:  lipgloss.Color("#7E57C2"),

	BgSurface:  lipgloss.Color("#FFFFFF"),
	BgElevated: lipgloss.Color("#F4F4F5"), // Zinc 100

	TextPrimary: lipgloss.Color("#111111"),
	TextMuted:   lipgloss.Color("#A1A1AA"), // Zinc 400

	Error: lipgloss.Color("#EF4444"), // Red 500

	Border: lipgloss.Color("#D4D4D8"),
}

// IsLight reports whether text on c should be dark.
func IsLight(c colorful.Color) bool {
	r, g, b := c.RGB255()
	return 0.299*float64(r)+0.587*float64(g)+0.114*float64(b) > 186
}

// Palette is the resolved set of colors for one panel.
type Palette struct {
	Light bool

	PanelBg lipgloss.Color
	InputBg lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Border  lipgloss.Color
	Accent  lipgloss.Color
	Error   lipgloss.Color
}

// FromBackground builds a palette that blends into bg.
func FromBackground(bg colorful.Color) Palette {
	base := DarkTheme
	border := lipgloss.Color("#5A5A5A")
	text := lipgloss.Color("#F3F3F3")
	light := IsLight(bg)
	if light {
		base = LightTheme
		border = lipgloss.Color("#BDBDBD")
		text = lipgloss.Color("#111111")
	}
	hex := lipgloss.Color(bg.Clamped().Hex())
	return Palette{
		Light:   light,
		PanelBg: hex,
		InputBg: hex,
		Text:    text,
		Muted:   base.TextMuted,
		Border:  border,
		Accent:  base.Accent,
		Error:   base.Error,
	}
}

// FromTheme builds a palette from one of the fallback themes.
func FromTheme(t Theme, light bool) Palette {
	return Palette{
		Light:   light,
		PanelBg: t.BgSurface,
		InputBg: t.BgElevated,
		Text:    t.TextPrimary,
		Muted:   t.TextMuted,
		Border:  t.Border,
		Accent:  t.Accent,
		Error:   t.Error,
	}
}

// Resolve samples the page background and falls back to the terminal's
// dark or light preference.
func Resolve(s Sampler, hasDarkBackground bool) Palette {
	if s != nil {
		if bg, ok := s.SampleBackground(); ok {
			return FromBackground(bg)
		}
	}
	if hasDarkBackground {
		return FromTheme(DarkTheme, false)
	}
	return FromTheme(LightTheme, true)
}
