package panel

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	userLabel = "You"
	botLabel  = "Inflow"
)

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if m.session == nil {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.renderEntries())
}

func (m *Model) refreshToBottom() {
	m.refresh()
	m.viewport.GotoBottom()
}

func (m *Model) nearBottom() bool {
	remaining := m.viewport.TotalLineCount() - (m.viewport.YOffset + m.viewport.Height)
	return remaining <= bottomThreshold
}

func (m *Model) renderEntries() string {
	st := m.cfg.Styles
	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}

	blocks := make([]string, 0, len(m.session.Entries))
	for _, e := range m.session.Entries {
		var label, body string
		switch e.Kind {
		case EntryUser:
			label = st.UserLabel.Render(userLabel)
			body = st.UserMsg.Width(width).Render(e.Text)
		case EntryBot:
			label = st.BotLabel.Render(botLabel)
			body = st.BotMsg.Width(width).Render(m.md.Render(e.Text))
		case EntryError:
			label = st.BotLabel.Render(botLabel)
			body = st.BotMsg.Width(width).Render(st.Error.Render(e.Text))
		case EntryLoading:
			label = st.BotLabel.Render(botLabel)
			body = st.BotMsg.Render(m.spinner.View())
		}
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, label, body))
	}
	return strings.Join(blocks, "\n\n")
}

// View draws the panel, or nothing when closed.
func (m *Model) View() string {
	if m.state == Closed {
		return ""
	}
	st := m.cfg.Styles
	w := m.panelWidth()

	header := st.Title.Render(m.title)
	if m.title == "" {
		header = st.Title.Render(botLabel)
	}

	parts := []string{header}
	if m.state == Expanded {
		parts = append(parts, "", m.viewport.View())
	}
	parts = append(parts,
		"",
		st.Input.Width(w-4).Render(m.input.View()),
		st.Hint.Render("enter: ask • esc: close"),
	)

	return st.Box.Width(w - 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
