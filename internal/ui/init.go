package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"inflow/internal/gesture"
	"inflow/internal/logger"
	"inflow/internal/models"
	"inflow/internal/options"
	"inflow/internal/panel"
	"inflow/internal/theme"
)

func InitialModel(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Terminal == nil {
		opts.Terminal = theme.TerminalSampler{}
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search"
	ti.CharLimit = 200

	m := &Model{
		opts:          opts,
		keys:          newKeyMap(opts.Keys),
		Viewport:      viewport.New(80, 20),
		Detector:      gesture.New(opts.WordWindow, opts.Now),
		Search:        ti,
		typingEnabled: true,
		darkBg:        opts.DarkBackground,
		title:         DocumentTitle(opts.Document, opts.Path),
	}
	m.render(80)
	m.styles = theme.NewStyles(m.palette())
	m.Panel = panel.New(m.panelConfig())
	m.Settings = options.New(options.Config{Store: opts.Store, Styles: m.styles})
	return m
}

func (m *Model) panelConfig() panel.Config {
	return panel.Config{
		Store:    m.opts.Store,
		Dialer:   m.opts.Dialer,
		Snapshot: m.Snapshot,
		Styles:   m.styles,
		Typing:   m.opts.Typing,
	}
}

// palette samples the visible document first and the terminal second.
func (m *Model) palette() theme.Palette {
	root := newRootElement(m.opts.Terminal, m.darkBg)
	surface := newANSISurface(m.visibleLines(), m.Viewport.Width, root)
	return theme.Resolve(theme.GridSampler{Surface: surface, Step: 2}, m.darkBg)
}

// render lays the document out for the given width.
func (m *Model) render(width int) {
	style := "dark"
	if !m.darkBg {
		style = "light"
	}
	wrap := width - 2
	if wrap < 20 {
		wrap = 20
	}

	var out string
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.Renderer = r
		out, err = r.Render(m.opts.Document)
	}
	if err != nil {
		logger.Warnf("render document: %v", err)
		out = lipgloss.NewStyle().Width(wrap).Render(m.opts.Document)
	}

	out = strings.TrimRight(out, "\n")
	m.lines = strings.Split(out, "\n")
	m.plain = plainLines(m.lines)
	m.Viewport.SetContent(out)
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadPrefs(), m.connectPage())
}

func (m *Model) loadPrefs() tea.Cmd {
	store := m.opts.Store
	return func() tea.Msg {
		s, err := store.LoadSettings(context.Background())
		return prefsMsg{settings: s, err: err}
	}
}

// hotkeyGate re-reads the invocation preference for an explicit invoke.
func (m *Model) hotkeyGate() tea.Cmd {
	store := m.opts.Store
	return func() tea.Msg {
		s, err := store.LoadSettings(context.Background())
		if err != nil {
			logger.Warnf("load settings: %v", err)
			s = models.DefaultSettings()
		}
		return hotkeyMsg{allowed: s.HotkeyEnabled()}
	}
}

func NewProgram(opts Options) *tea.Program {
	m := InitialModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	m.Program = p
	return p
}
