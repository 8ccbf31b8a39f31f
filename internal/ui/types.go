package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"inflow/internal/config"
	"inflow/internal/db"
	"inflow/internal/gesture"
	"inflow/internal/models"
	"inflow/internal/options"
	"inflow/internal/panel"
	"inflow/internal/port"
	"inflow/internal/theme"
)

const (
	// Domain reported for documents read from disk.
	LocalDomain = "localhost"

	statusBarHeight = 1
	overlayMargin   = 1
)

// Options configures the reader.
type Options struct {
	Path     string
	Document string

	Store  db.SettingsStore
	Dialer port.Dialer
	Keys   config.KeyConfig

	WordWindow time.Duration
	Typing     panel.TypingConfig

	// Terminal reports the terminal background. Nil asks the terminal through termenv.
	Terminal theme.Sampler
	// DarkBackground is used when no background can be sampled.
	DarkBackground bool
	Now            func() time.Time
}

// keyMap covers document navigation. Letters are left to the typing gesture.
type keyMap struct {
	LineUp   key.Binding
	LineDown key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Search   key.Binding
	Quit     key.Binding
	Invoke   key.Binding
	Options  key.Binding
}

func newKeyMap(keys config.KeyConfig) keyMap {
	return keyMap{
		LineUp:   key.NewBinding(key.WithKeys("up")),
		LineDown: key.NewBinding(key.WithKeys("down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", " ")),
		Top:      key.NewBinding(key.WithKeys("home")),
		Bottom:   key.NewBinding(key.WithKeys("end")),
		Search:   key.NewBinding(key.WithKeys("/")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c")),
		Invoke:   key.NewBinding(key.WithKeys(keys.Invoke)),
		Options:  key.NewBinding(key.WithKeys(keys.Options)),
	}
}

type prefsMsg struct {
	settings models.Settings
	err      error
}

// hotkeyMsg carries the result of the invoke hotkey gate.
type hotkeyMsg struct {
	allowed bool
}

type pageConnectedMsg struct {
	port port.Port
}

type pageMsg struct {
	env models.Envelope
}

type pageClosedMsg struct {
	err error
}

type Model struct {
	opts Options
	keys keyMap

	Viewport viewport.Model
	Renderer *glamour.TermRenderer
	// lines are the rendered document lines; plain holds the same lines without styling.
	lines []string
	plain []string
	title string

	Panel    *panel.Model
	Settings *options.Model
	Detector *gesture.Detector

	Search     textinput.Model
	SearchOpen bool
	searchErr  string

	typingEnabled bool
	pagePort      port.Port

	styles       theme.Styles
	darkBg       bool
	panelRect    panel.Rect
	WindowWidth  int
	WindowHeight int
	Program      *tea.Program
}
