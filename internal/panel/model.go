// Package panel is the chat panel that floats over the reader. It owns the
// panel lifecycle (closed, collapsed, expanded), the conversation of the
// current session and the rendering of streamed replies.
package panel

import (
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"inflow/internal/db"
	"inflow/internal/markdown"
	"inflow/internal/models"
	"inflow/internal/port"
	"inflow/internal/theme"
)

type State int

const (
	Closed State = iota
	Collapsed
	Expanded
)

func (s State) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	default:
		return "closed"
	}
}

const (
	PanelWidth = 60

	// transcript lines from the bottom that still count as "at the bottom"
	bottomThreshold = 2
)

type TypingConfig struct {
	Interval time.Duration
	MinChars int
	MaxChars int
}

func DefaultTyping() TypingConfig {
	return TypingConfig{Interval: 25 * time.Millisecond, MinChars: 2, MaxChars: 4}
}

type Config struct {
	Store  db.SettingsStore
	Dialer port.Dialer
	// Snapshot captures the visible part of the page.
	Snapshot func() models.Snapshot
	Styles   theme.Styles
	Typing   TypingConfig
	// Rand returns a number in [0, n). Defaults to math/rand.
	Rand func(n int) int
}

// EntryKind tells the view how to draw an entry.
type EntryKind int

const (
	EntryUser EntryKind = iota
	EntryBot
	EntryError
	EntryLoading
)

// Entry is one item shown in the transcript area.
type Entry struct {
	Kind EntryKind
	Text string
}

// Role maps an entry to its transcript role.
func (e Entry) Role() string {
	if e.Kind == EntryUser {
		return models.RoleUser
	}
	return models.RoleBot
}

// Session lives from Open to Close.
type Session struct {
	// Transcript holds the completed request/response pairs sent upstream.
	Transcript []models.Message
	Entries    []Entry
	Context    *models.Snapshot
	// Pending is a scroll snapshot not yet used by a submission.
	Pending     *models.Snapshot
	lastScrollY int

	Stream *StreamState
}

// StreamState belongs to the one request in flight.
type StreamState struct {
	ID     int
	Port   port.Port
	Prompt string

	Queue    []rune
	Rendered string
	Received []rune
	Typing   bool
	Finished bool

	bubble  int
	loading int
}

type Model struct {
	cfg Config

	state    State
	title    string
	position models.PanelPosition

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	md       markdown.Terminal

	session  *Session
	streamID int

	width, height int
	bounds        Rect
}

// Rect is the screen area the panel occupies.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

func New(cfg Config) *Model {
	if cfg.Typing.Interval <= 0 {
		cfg.Typing = DefaultTyping()
	}
	if cfg.Typing.MinChars <= 0 {
		cfg.Typing.MinChars = 1
	}
	if cfg.Typing.MaxChars < cfg.Typing.MinChars {
		cfg.Typing.MaxChars = cfg.Typing.MinChars
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.IntN
	}
	if cfg.Snapshot == nil {
		cfg.Snapshot = func() models.Snapshot { return models.Snapshot{} }
	}

	ti := textinput.New()
	ti.Placeholder = "Ask anything..."
	ti.Prompt = "❯ "
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Ellipsis

	m := &Model{
		cfg:      cfg,
		input:    ti,
		viewport: viewport.New(PanelWidth-4, 12),
		spinner:  sp,
		md:       markdown.NewTerminal(),
		position: models.PositionBottomRight,
	}
	m.SetStyles(cfg.Styles)
	return m
}

// SetStyles recolors the panel. The host calls it before Open with colors
// sampled from the page underneath.
func (m *Model) SetStyles(st theme.Styles) {
	m.cfg.Styles = st
	m.input.PromptStyle = lipgloss.NewStyle().Foreground(st.Palette.Accent).Bold(true)
	m.input.PlaceholderStyle = st.Hint
	m.spinner.Style = st.Loading
	m.md.Text = lipgloss.NewStyle().Foreground(st.Palette.Text)
}

func (m *Model) State() State { return m.state }

func (m *Model) IsOpen() bool { return m.state != Closed }

func (m *Model) Position() models.PanelPosition { return m.position }

// Session returns the live session or nil when closed.
func (m *Model) Session() *Session { return m.session }

func (m *Model) InputValue() string { return m.input.Value() }

// SetSize tells the panel how large the page area is.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	w := m.panelWidth()
	m.input.Width = w - 8
	m.viewport.Width = w - 4
	h := height - 12
	if h > 16 {
		h = 16
	}
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
	m.refresh()
}

func (m *Model) panelWidth() int {
	w := PanelWidth
	if m.width > 0 && m.width-4 < w {
		w = m.width - 4
	}
	if w < 24 {
		w = 24
	}
	return w
}

// SetBounds records where the host drew the panel, for outside clicks.
func (m *Model) SetBounds(r Rect) { m.bounds = r }

// Open shows a fresh collapsed panel. A non-empty initialQuery pre-fills the input.
func (m *Model) Open(initialQuery, title string) tea.Cmd {
	m.Close()
	m.state = Collapsed
	m.title = TruncateTitle(title)
	m.session = &Session{}
	m.input.Reset()
	m.input.SetValue(initialQuery)
	m.input.CursorEnd()
	m.viewport.SetContent("")
	return tea.Batch(m.input.Focus(), textinput.Blink, m.loadPosition())
}

// Close tears the panel down from any state.
func (m *Model) Close() {
	if m.session != nil && m.session.Stream != nil {
		closeStream(m.session.Stream)
	}
	m.session = nil
	m.state = Closed
	m.input.Blur()
	m.input.Reset()
}

func closeStream(s *StreamState) {
	if s.Port != nil {
		_ = s.Port.Close()
	}
}
