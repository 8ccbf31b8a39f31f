package theme

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles the panels render with.
type Styles struct {
	Palette Palette

	Box       lipgloss.Style
	Title     lipgloss.Style
	Hint      lipgloss.Style
	Input     lipgloss.Style
	UserLabel lipgloss.Style
	UserMsg   lipgloss.Style
	BotLabel  lipgloss.Style
	BotMsg    lipgloss.Style
	Error     lipgloss.Style
	Loading   lipgloss.Style

	FieldLabel   lipgloss.Style
	Field        lipgloss.Style
	FieldFocused lipgloss.Style
	SwitchOn     lipgloss.Style
	SwitchOff    lipgloss.Style
	Button       lipgloss.Style
}

func NewStyles(p Palette) Styles {
	return Styles{
		Palette: p,

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Background(p.PanelBg).
			Foreground(p.Text).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent),

		Hint: lipgloss.NewStyle().
			Foreground(p.Muted),

		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Background(p.InputBg).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#90CAF9")).
			Bold(true).
			Padding(0, 1),

		UserMsg: lipgloss.NewStyle().
			Foreground(p.Text).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#90CAF9")),

		BotLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Accent).
			Bold(true).
			Padding(0, 1),

		BotMsg: lipgloss.NewStyle().
			Foreground(p.Text).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(p.Accent),

		Error: lipgloss.NewStyle().
			Foreground(p.Error).
			Bold(true),

		Loading: lipgloss.NewStyle().
			Foreground(p.Accent),

		FieldLabel: lipgloss.NewStyle().
			Foreground(p.Muted),

		Field: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),

		FieldFocused: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.Accent).
			Padding(0, 1),

		SwitchOn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Accent).
			Padding(0, 1),

		SwitchOff: lipgloss.NewStyle().
			Foreground(p.Muted).
			Padding(0, 1),

		Button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(p.Accent).
			Bold(true).
			Padding(0, 2),
	}
}
