package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"inflow/internal/gesture"
	"inflow/internal/logger"
	"inflow/internal/panel"
	"inflow/internal/theme"
)

const wheelLines = 3

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case prefsMsg:
		if msg.err != nil {
			logger.Warnf("load settings: %v", msg.err)
			return m, nil
		}
		m.typingEnabled = msg.settings.TypingEnabled()
		return m, nil

	case hotkeyMsg:
		if !msg.allowed {
			logger.Debugf("invoke hotkey ignored: invocation method is typing")
			return m, nil
		}
		if m.Panel.IsOpen() {
			m.Panel.Close()
			return m, nil
		}
		return m, m.openPanel("")

	case pageConnectedMsg:
		m.pagePort = msg.port
		return m, waitForPage(msg.port)

	case pageMsg:
		cmd := m.handlePage(msg.env)
		if m.pagePort != nil {
			cmd = tea.Batch(cmd, waitForPage(m.pagePort))
		}
		return m, cmd

	case pageClosedMsg:
		logger.Warnf("page channel closed: %v", msg.err)
		m.pagePort = nil
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	}

	return m, m.forward(msg)
}

// forward hands messages the reader does not own to the overlays.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	wasOpen := m.Settings.IsOpen()
	cmds := []tea.Cmd{m.Panel.Update(msg), m.Settings.Update(msg)}
	if m.SearchOpen {
		var cmd tea.Cmd
		m.Search, cmd = m.Search.Update(msg)
		cmds = append(cmds, cmd)
	}
	if wasOpen && !m.Settings.IsOpen() {
		cmds = append(cmds, m.loadPrefs())
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.shutdown()
		return tea.Quit
	}

	switch {
	case m.Panel.IsOpen():
		switch {
		case key.Matches(msg, m.keys.Invoke):
			m.Panel.Close()
			return nil
		case key.Matches(msg, m.keys.Options):
			return m.toggleOptions()
		}
		return m.Panel.Update(msg)

	case m.Settings.IsOpen():
		switch {
		case key.Matches(msg, m.keys.Options):
			return m.toggleOptions()
		case key.Matches(msg, m.keys.Invoke):
			return m.hotkeyGate()
		}
		cmd := m.Settings.Update(msg)
		if !m.Settings.IsOpen() {
			return tea.Batch(cmd, m.loadPrefs())
		}
		return cmd

	case m.SearchOpen && !key.Matches(msg, m.keys.Invoke, m.keys.Options):
		ev := toKeyEvent(msg)
		ev.InEditable = true
		m.Detector.HandleKey(ev)
		return m.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Invoke):
		return m.hotkeyGate()
	case key.Matches(msg, m.keys.Options):
		return m.toggleOptions()
	}

	if m.typingEnabled {
		d := m.Detector.HandleKey(toKeyEvent(msg))
		if d.Trigger {
			return m.openPanel(d.Query)
		}
		if d.PreventDefault {
			return nil
		}
	}

	if key.Matches(msg, m.keys.Search) {
		m.SearchOpen = true
		m.searchErr = ""
		m.Search.Reset()
		return tea.Batch(m.Search.Focus(), textinput.Blink)
	}
	m.scrollKey(msg)
	return nil
}

func toKeyEvent(msg tea.KeyMsg) gesture.KeyEvent {
	ev := gesture.KeyEvent{Alt: msg.Alt}
	switch msg.Type {
	case tea.KeySpace:
		ev.Key = gesture.KeySpace
	case tea.KeyBackspace:
		ev.Key = gesture.KeyBackspace
	case tea.KeyRunes:
		if len(msg.Runes) == 1 {
			ev.Key = string(msg.Runes)
		} else {
			ev.Key = "paste"
		}
	default:
		ev.Key = msg.String()
		ev.Ctrl = strings.HasPrefix(ev.Key, "ctrl+")
	}
	return ev
}

func (m *Model) scrollKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.LineUp):
		m.scrollBy(-1)
	case key.Matches(msg, m.keys.LineDown):
		m.scrollBy(1)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-m.Viewport.Height)
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(m.Viewport.Height)
	case key.Matches(msg, m.keys.Top):
		m.Viewport.GotoTop()
		m.afterScroll()
	case key.Matches(msg, m.keys.Bottom):
		m.Viewport.GotoBottom()
		m.afterScroll()
	}
}

func (m *Model) scrollBy(lines int) {
	m.Viewport.SetYOffset(m.Viewport.YOffset + lines)
	m.afterScroll()
}

// afterScroll tells an open panel where the page is now.
func (m *Model) afterScroll() {
	if m.Panel.IsOpen() {
		m.Panel.Update(panel.ScrollMsg{Y: m.Viewport.YOffset, Height: m.Viewport.Height})
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	wheel := 0
	if msg.Action == tea.MouseActionPress {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			wheel = -wheelLines
		case tea.MouseButtonWheelDown:
			wheel = wheelLines
		}
	}

	switch {
	case m.Panel.IsOpen():
		if wheel != 0 && !m.panelRect.Contains(msg.X, msg.Y) {
			m.scrollBy(wheel)
			return nil
		}
		return m.Panel.Update(msg)

	case m.Settings.IsOpen():
		cmd := m.Settings.Update(msg)
		if !m.Settings.IsOpen() {
			return tea.Batch(cmd, m.loadPrefs())
		}
		return cmd
	}

	if wheel != 0 {
		m.scrollBy(wheel)
	}
	return nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeSearch()
		return nil
	case tea.KeyEnter:
		query := m.Search.Value()
		m.closeSearch()
		idx, ok := find(m.plain, query, m.Viewport.YOffset+1)
		if !ok {
			m.searchErr = "not found: " + query
			return nil
		}
		m.Viewport.SetYOffset(idx)
		m.afterScroll()
		return nil
	}

	var cmd tea.Cmd
	m.Search, cmd = m.Search.Update(msg)
	return cmd
}

func (m *Model) closeSearch() {
	m.SearchOpen = false
	m.Search.Blur()
}

// openPanel shows the chat panel. The options panel is closed first.
func (m *Model) openPanel(query string) tea.Cmd {
	m.Settings.Close()
	m.closeSearch()
	m.Detector.Reset()
	m.Panel.SetStyles(theme.NewStyles(m.palette()))
	m.Panel.SetSize(m.Viewport.Width, m.Viewport.Height)
	cmd := m.Panel.Open(query, m.title)
	m.afterScroll()
	return cmd
}

// toggleOptions opens or closes the options panel. Opening it closes the chat panel.
func (m *Model) toggleOptions() tea.Cmd {
	if m.Settings.IsOpen() {
		m.Settings.Close()
		return m.loadPrefs()
	}
	m.Panel.Close()
	m.closeSearch()
	m.Detector.Reset()
	m.Settings.SetStyles(theme.NewStyles(m.palette()))
	return m.Settings.Open()
}

func (m *Model) resize(width, height int) {
	m.WindowWidth = width
	m.WindowHeight = height
	m.Viewport.Width = width
	m.Viewport.Height = height - statusBarHeight
	if m.Viewport.Height < 1 {
		m.Viewport.Height = 1
	}
	m.render(width)
	m.Panel.SetSize(m.Viewport.Width, m.Viewport.Height)
}

func (m *Model) shutdown() {
	m.Panel.Close()
	if m.pagePort != nil {
		_ = m.pagePort.Close()
		m.pagePort = nil
	}
}
