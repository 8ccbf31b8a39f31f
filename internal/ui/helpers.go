package ui

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"inflow/internal/models"
)

// DocumentTitle is the first markdown heading, or the file name without
// extension when the document has none.
func DocumentTitle(doc, path string) string {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			if t := strings.TrimSpace(strings.TrimLeft(line, "#")); t != "" {
				return t
			}
		}
	}
	base := filepath.Base(path)
	if path == "" || base == "." {
		return "Untitled"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func plainLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRight(ansi.Strip(l), " ")
	}
	return out
}

func (m *Model) visibleRange() (int, int) {
	start := m.Viewport.YOffset
	if start < 0 {
		start = 0
	}
	end := start + m.Viewport.Height
	if end > len(m.lines) {
		end = len(m.lines)
	}
	if start > end {
		start = end
	}
	return start, end
}

func (m *Model) visibleLines() []string {
	start, end := m.visibleRange()
	return m.lines[start:end]
}

// Snapshot describes what is on screen right now.
func (m *Model) Snapshot() models.Snapshot {
	start, end := m.visibleRange()
	var text []string
	for _, l := range m.plain[start:end] {
		if l = strings.TrimSpace(l); l != "" {
			text = append(text, l)
		}
	}
	return models.Snapshot{
		Domain:       LocalDomain,
		Title:        m.title,
		ViewportText: strings.Join(text, "\n"),
	}
}

// overlay draws box over base with its top-left corner at (x, y).
func overlay(base, box string, x, y int) string {
	lines := strings.Split(base, "\n")
	for i, row := range strings.Split(box, "\n") {
		ly := y + i
		if ly < 0 || ly >= len(lines) {
			continue
		}
		under := lines[ly]
		left := ansi.Truncate(under, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(under, x+ansi.StringWidth(row), "")
		lines[ly] = left + "\x1b[0m" + row + "\x1b[0m" + right
	}
	return strings.Join(lines, "\n")
}

// find returns the first line at or after from that contains query,
// wrapping around to the top. Matching ignores case.
func find(lines []string, query string, from int) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(lines) == 0 {
		return 0, false
	}
	if from < 0 || from >= len(lines) {
		from = 0
	}
	for i := 0; i < len(lines); i++ {
		idx := (from + i) % len(lines)
		if strings.Contains(strings.ToLower(lines[idx]), q) {
			return idx, true
		}
	}
	return 0, false
}
