// Package options is the settings panel. It edits a copy of the stored
// settings and writes them back in one SaveSettings call.
package options

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"inflow/internal/db"
	"inflow/internal/logger"
	"inflow/internal/models"
	"inflow/internal/theme"
)

const Width = 56

type Field int

const (
	FieldProvider Field = iota
	FieldBaseURL
	FieldAPIKey
	FieldModel
	FieldPosition
	FieldInvocation
	FieldSave
)

type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

type Config struct {
	Store  db.SettingsStore
	Styles theme.Styles
}

type loadedMsg struct {
	settings models.Settings
	err      error
}

type savedMsg struct {
	err error
}

type Model struct {
	cfg Config

	open   bool
	loaded bool
	// stored is the last loaded state; provider switches reload fields from it.
	stored   models.Settings
	provider models.Provider
	position models.PanelPosition
	method   models.InvocationMethod

	apiKey  textinput.Model
	model   textinput.Model
	baseURL textinput.Model

	focus  Field
	err    error
	bounds Rect
}

func New(cfg Config) *Model {
	key := textinput.New()
	key.Placeholder = "sk-..."
	key.Prompt = ""

	mdl := textinput.New()
	mdl.Placeholder = models.DefaultModel
	mdl.Prompt = ""

	base := textinput.New()
	base.Placeholder = "https://your-custom-host/v1/"
	base.Prompt = ""

	return &Model{cfg: cfg, apiKey: key, model: mdl, baseURL: base}
}

func (m *Model) IsOpen() bool { return m.open }

func (m *Model) Focus() Field { return m.focus }

func (m *Model) Provider() models.Provider { return m.provider }

func (m *Model) Err() error { return m.err }

func (m *Model) SetBounds(r Rect) { m.bounds = r }

func (m *Model) SetStyles(st theme.Styles) { m.cfg.Styles = st }

// Open shows the panel and loads the stored settings into it.
func (m *Model) Open() tea.Cmd {
	m.open = true
	m.loaded = false
	m.err = nil
	m.focus = FieldProvider
	m.syncFocus()
	store := m.cfg.Store
	return func() tea.Msg {
		s, err := store.LoadSettings(context.Background())
		return loadedMsg{settings: s, err: err}
	}
}

func (m *Model) Close() {
	m.open = false
	m.loaded = false
	m.apiKey.Blur()
	m.model.Blur()
	m.baseURL.Blur()
}

// Toggle opens a closed panel and closes an open one.
func (m *Model) Toggle() tea.Cmd {
	if m.open {
		m.Close()
		return nil
	}
	return m.Open()
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if !m.open {
		return nil
	}

	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			logger.Warnf("load settings: %v", msg.err)
			m.err = msg.err
			msg.settings = models.DefaultSettings()
		}
		m.apply(msg.settings)
		return nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return nil
		}
		m.Close()
		return nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && !m.bounds.Contains(msg.X, msg.Y) {
			m.Close()
		}
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *Model) apply(s models.Settings) {
	m.stored = s.Clone()
	m.provider = s.Provider
	m.position = s.PanelPosition
	m.method = s.InvocationMethod
	m.baseURL.SetValue(s.BaseURL)
	m.loadProviderFields()
	m.loaded = true
}

// loadProviderFields fills key and model with what is stored for the
// selected provider. Unsaved edits for the previous provider are dropped.
func (m *Model) loadProviderFields() {
	m.apiKey.SetValue(m.stored.APIKeys[m.provider])
	m.apiKey.CursorEnd()
	m.model.SetValue(m.stored.APIModels[m.provider])
	m.model.CursorEnd()
	m.syncMask()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.Close()
		return nil
	case "ctrl+s":
		return m.Save()
	case "tab", "down":
		m.move(1)
		return nil
	case "shift+tab", "up":
		m.move(-1)
		return nil
	}

	switch m.focus {
	case FieldProvider:
		switch msg.String() {
		case "right", "l", " ", "enter":
			m.SetProvider(cycle(models.Providers, m.provider, 1))
		case "left", "h":
			m.SetProvider(cycle(models.Providers, m.provider, -1))
		}
		return nil

	case FieldPosition:
		switch msg.String() {
		case "left", "right", "h", "l", " ", "enter":
			if m.position == models.PositionTopRight {
				m.position = models.PositionBottomRight
			} else {
				m.position = models.PositionTopRight
			}
		}
		return nil

	case FieldInvocation:
		methods := []models.InvocationMethod{models.InvokeTypingOrHotkey, models.InvokeTyping, models.InvokeHotkey}
		switch msg.String() {
		case "right", "l", " ", "enter":
			m.method = cycle(methods, m.method, 1)
		case "left", "h":
			m.method = cycle(methods, m.method, -1)
		}
		return nil

	case FieldSave:
		if msg.String() == "enter" || msg.String() == " " {
			return m.Save()
		}
		return nil
	}

	if msg.Type == tea.KeyEnter {
		m.move(1)
		return nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case FieldAPIKey:
		m.apiKey, cmd = m.apiKey.Update(msg)
		m.syncMask()
	case FieldModel:
		m.model, cmd = m.model.Update(msg)
	case FieldBaseURL:
		m.baseURL, cmd = m.baseURL.Update(msg)
	}
	return cmd
}

// SetProvider selects p and reloads its stored key and model.
func (m *Model) SetProvider(p models.Provider) {
	m.provider = p
	m.loadProviderFields()
	if m.focus == FieldBaseURL && !m.ShowBaseURL() {
		m.focus = FieldProvider
		m.syncFocus()
	}
}

// ShowBaseURL reports whether the custom base URL field is visible.
func (m *Model) ShowBaseURL() bool {
	return m.provider == models.ProviderCustom
}

func (m *Model) fields() []Field {
	fs := []Field{FieldProvider}
	if m.ShowBaseURL() {
		fs = append(fs, FieldBaseURL)
	}
	return append(fs, FieldAPIKey, FieldModel, FieldPosition, FieldInvocation, FieldSave)
}

func (m *Model) move(delta int) {
	fs := m.fields()
	idx := 0
	for i, f := range fs {
		if f == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fs)) % len(fs)
	m.focus = fs[idx]
	m.syncFocus()
}

func (m *Model) syncFocus() {
	m.apiKey.Blur()
	m.model.Blur()
	m.baseURL.Blur()
	switch m.focus {
	case FieldAPIKey:
		m.apiKey.Focus()
	case FieldModel:
		m.model.Focus()
	case FieldBaseURL:
		m.baseURL.Focus()
	}
	m.syncMask()
}

// Masked reports whether the key field hides its text: it does when it has
// content and is not being edited.
func (m *Model) Masked() bool {
	return m.apiKey.Value() != "" && m.focus != FieldAPIKey
}

func (m *Model) syncMask() {
	if m.Masked() {
		m.apiKey.EchoMode = textinput.EchoPassword
	} else {
		m.apiKey.EchoMode = textinput.EchoNormal
	}
}

// KeyPreview shows the first and last four characters of a stored key.
func KeyPreview(key string) string {
	if key == "" {
		return ""
	}
	r := []rune(key)
	if len(r) < 4 {
		return string(r) + "..." + string(r)
	}
	return string(r[:4]) + "..." + string(r[len(r)-4:])
}

// Settings returns what Save would write.
func (m *Model) Settings() models.Settings {
	s := m.stored.Clone()
	s.Provider = m.provider
	s.PanelPosition = m.position
	s.InvocationMethod = m.method
	s.BaseURL = strings.TrimSpace(m.baseURL.Value())

	if key := strings.TrimSpace(m.apiKey.Value()); key != "" {
		s.APIKeys[m.provider] = key
	} else {
		delete(s.APIKeys, m.provider)
	}
	if mdl := strings.TrimSpace(m.model.Value()); mdl != "" {
		s.APIModels[m.provider] = mdl
	} else {
		delete(s.APIModels, m.provider)
	}
	return s
}

// Save writes every setting in one store call. The panel closes once it lands.
func (m *Model) Save() tea.Cmd {
	if !m.loaded {
		return nil
	}
	s := m.Settings()
	store := m.cfg.Store
	return func() tea.Msg {
		return savedMsg{err: store.SaveSettings(context.Background(), s)}
	}
}

func cycle[T comparable](values []T, current T, delta int) T {
	idx := 0
	for i, v := range values {
		if v == current {
			idx = i
		}
	}
	return values[(idx+delta+len(values))%len(values)]
}
