package markdown

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestPlainParagraphIsUnchanged(t *testing.T) {
	for _, text := range []string{
		"Hi there",
		"A sentence, with punctuation; and numbers 42.",
		"  leading spaces kept",
	} {
		assert.Equal(t, "<p>"+text+"</p>", HTML(text))
	}
}

func TestParagraphPerLine(t *testing.T) {
	assert.Equal(t, "<p>one</p><p>two</p>", HTML("one\n\ntwo"))
	assert.Equal(t, "<p>one</p><p>two</p>", HTML("one\ntwo"))
}

func TestLists(t *testing.T) {
	got := HTML("Steps:\n1. open\n2. read\n\n- a\n* b\ntail")
	assert.Equal(t,
		"<p>Steps:</p><ol><li>open</li><li>read</li></ol><ul><li>a</li><li>b</li></ul><p>tail</p>",
		got)
}

func TestListKindSwitchClosesList(t *testing.T) {
	blocks := Parse("- a\n1. b\n- c")
	if assert.Len(t, blocks, 3) {
		assert.Equal(t, UnorderedList, blocks[0].Kind)
		assert.Equal(t, OrderedList, blocks[1].Kind)
		assert.Equal(t, UnorderedList, blocks[2].Kind)
	}
}

func TestIndentedMarkers(t *testing.T) {
	blocks := Parse("  - nested looking\n   3. also flat")
	if assert.Len(t, blocks, 2) {
		assert.Equal(t, []string{"nested looking"}, blocks[0].Lines)
		assert.Equal(t, []string{"also flat"}, blocks[1].Lines)
	}
}

func TestMarkerNeedsSpace(t *testing.T) {
	assert.Equal(t, "<p>-dash</p><p>1.5 apples</p>", HTML("-dash\n1.5 apples"))
}

func TestInlineSpans(t *testing.T) {
	assert.Equal(t, "<p>a <strong>bold</strong> and <em>it</em> or <em>this</em></p>",
		HTML("a **bold** and *it* or _this_"))

	assert.Equal(t, []Span{
		{Text: "x "},
		{Text: "both", Bold: true, Italic: true},
	}, Inline("x **_both_**"))
}

func TestInlineIsNonGreedy(t *testing.T) {
	assert.Equal(t, []Span{
		{Text: "a", Bold: true},
		{Text: " b "},
		{Text: "c", Bold: true},
	}, Inline("**a** b **c**"))
}

func TestUnclosedMarkerStaysLiteral(t *testing.T) {
	assert.Equal(t, "<p>2 * 3 is six</p>", HTML("2 * 3 is six"))
}

func TestListItemWithEmphasis(t *testing.T) {
	assert.Equal(t, "<ul><li>item <em>x</em></li></ul>", HTML("* item *x*"))
}

func TestHTMLEscapesText(t *testing.T) {
	assert.Equal(t, "<p>&lt;b&gt; &amp; <strong>&lt;i&gt;</strong></p>", HTML("<b> & **<i>**"))
}

func TestEmptyInput(t *testing.T) {
	assert.Empty(t, HTML(""))
	assert.Empty(t, HTML("\n\n  \n"))
}

func plainTerminal() Terminal {
	s := lipgloss.NewStyle()
	return Terminal{Text: s, Bold: s, Italic: s, Bullet: s}
}

func TestTerminalLayout(t *testing.T) {
	got := plainTerminal().Render("Intro **here**\n- a\n- b\n\n7. x\n8. y")
	assert.Equal(t, "Intro here\n\n• a\n• b\n\n1. x\n2. y", got)
}
