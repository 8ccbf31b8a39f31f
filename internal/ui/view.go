package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"inflow/internal/models"
	"inflow/internal/options"
	"inflow/internal/panel"
)

func (m *Model) View() string {
	base := m.Viewport.View()
	width := m.Viewport.Width
	height := m.Viewport.Height

	// Bounds are recorded here so outside clicks are measured against what
	// was actually drawn.
	switch {
	case m.Panel.IsOpen():
		box := m.Panel.View()
		bw, bh := lipgloss.Width(box), lipgloss.Height(box)
		x := max(width-bw-overlayMargin, 0)
		y := max(height-bh-overlayMargin, 0)
		if m.Panel.Position() == models.PositionTopRight {
			y = overlayMargin
		}
		m.panelRect = panel.Rect{X: x, Y: y, W: bw, H: bh}
		m.Panel.SetBounds(m.panelRect)
		base = overlay(base, box, x, y)

	case m.Settings.IsOpen():
		box := m.Settings.View()
		bw, bh := lipgloss.Width(box), lipgloss.Height(box)
		x := max((width-bw)/2, 0)
		y := max((height-bh)/2, 0)
		m.Settings.SetBounds(options.Rect{X: x, Y: y, W: bw, H: bh})
		base = overlay(base, box, x, y)
	}

	return lipgloss.JoinVertical(lipgloss.Left, base, m.RenderStatusBar())
}

func (m *Model) RenderStatusBar() string {
	width := m.WindowWidth
	if width <= 0 {
		width = m.Viewport.Width
	}
	bar := lipgloss.NewStyle().Width(width).MaxHeight(1)

	if m.SearchOpen {
		return bar.Render(m.Search.View())
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(m.styles.Palette.Accent).
		Padding(0, 1).
		Render(panel.TruncateTitle(m.title))

	pct := lipgloss.NewStyle().
		Foreground(m.styles.Palette.Muted).
		Render(fmt.Sprintf("%3.0f%%", m.Viewport.ScrollPercent()*100))

	var hint string
	if m.searchErr != "" {
		hint = m.styles.Error.Render(m.searchErr)
	} else {
		hint = m.styles.Hint.Render(fmt.Sprintf("%s: ask • %s: settings • /: search • ctrl+c: quit",
			m.opts.Keys.Invoke, m.opts.Keys.Options))
	}

	left := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", pct)
	gap := width - lipgloss.Width(left) - lipgloss.Width(hint) - 1
	if gap < 1 {
		gap = 1
	}
	return bar.Render(left + strings.Repeat(" ", gap) + hint)
}
