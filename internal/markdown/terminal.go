package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal renders the same subset for the chat panel.
type Terminal struct {
	Text   lipgloss.Style
	Bold   lipgloss.Style
	Italic lipgloss.Style
	Bullet lipgloss.Style
}

func NewTerminal() Terminal {
	return Terminal{
		Text:   lipgloss.NewStyle(),
		Bold:   lipgloss.NewStyle().Bold(true),
		Italic: lipgloss.NewStyle().Italic(true),
		Bullet: lipgloss.NewStyle().Faint(true),
	}
}

// Render formats text, one output line per paragraph or list item, with a
// blank line between blocks.
func (t Terminal) Render(text string) string {
	blocks := Parse(text)
	out := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		switch blk.Kind {
		case Paragraph:
			out = append(out, t.inline(blk.Lines[0]))
		case UnorderedList:
			items := make([]string, len(blk.Lines))
			for i, item := range blk.Lines {
				items[i] = t.Bullet.Render("•") + " " + t.inline(item)
			}
			out = append(out, strings.Join(items, "\n"))
		case OrderedList:
			items := make([]string, len(blk.Lines))
			for i, item := range blk.Lines {
				items[i] = t.Bullet.Render(fmt.Sprintf("%d.", i+1)) + " " + t.inline(item)
			}
			out = append(out, strings.Join(items, "\n"))
		}
	}
	return strings.Join(out, "\n\n")
}

func (t Terminal) inline(line string) string {
	var b strings.Builder
	for _, sp := range Inline(line) {
		style := t.Text
		switch {
		case sp.Bold && sp.Italic:
			style = t.Bold.Inherit(t.Italic)
		case sp.Bold:
			style = t.Bold
		case sp.Italic:
			style = t.Italic
		}
		b.WriteString(style.Render(sp.Text))
	}
	return b.String()
}
