// Package markdown formats the small markdown subset used in chat replies:
// paragraphs, flat unordered and ordered lists, **bold**, and *italic* or
// _italic_ spans. Nothing nests and nothing else is recognized.
package markdown

import (
	"html"
	"regexp"
	"strings"
)

type BlockKind int

const (
	Paragraph BlockKind = iota
	UnorderedList
	OrderedList
)

// Block is a paragraph (one line) or a run of list items.
type Block struct {
	Kind  BlockKind
	Lines []string
}

var (
	unorderedItem = regexp.MustCompile(`^\s*[-*]\s`)
	orderedItem   = regexp.MustCompile(`^\s*\d+\.\s`)
)

// Parse splits text into blocks line by line. A list continues while lines
// keep its marker; a blank line or any other line closes it. Each non-blank,
// non-list line is its own paragraph.
func Parse(text string) []Block {
	var blocks []Block
	open := -1

	for _, line := range strings.Split(text, "\n") {
		kind := Paragraph
		var marker *regexp.Regexp
		switch {
		case unorderedItem.MatchString(line):
			kind, marker = UnorderedList, unorderedItem
		case orderedItem.MatchString(line):
			kind, marker = OrderedList, orderedItem
		}

		if marker == nil {
			open = -1
			if strings.TrimSpace(line) != "" {
				blocks = append(blocks, Block{Kind: Paragraph, Lines: []string{line}})
			}
			continue
		}

		item := marker.ReplaceAllString(line, "")
		if open >= 0 && blocks[open].Kind == kind {
			blocks[open].Lines = append(blocks[open].Lines, item)
			continue
		}
		blocks = append(blocks, Block{Kind: kind, Lines: []string{item}})
		open = len(blocks) - 1
	}
	return blocks
}

// Span is a run of text with uniform emphasis.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
}

var spanRules = []struct {
	re     *regexp.Regexp
	bold   bool
	italic bool
}{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), true, false},
	{regexp.MustCompile(`_(.*?)_`), false, true},
	{regexp.MustCompile(`\*(.*?)\*`), false, true},
}

// Inline splits one line into emphasis spans. Rules apply in order, bold
// first, each within the spans left by the previous one.
func Inline(line string) []Span {
	spans := []Span{{Text: line}}
	for _, rule := range spanRules {
		next := make([]Span, 0, len(spans))
		for _, sp := range spans {
			last := 0
			for _, m := range rule.re.FindAllStringSubmatchIndex(sp.Text, -1) {
				next = appendSpan(next, Span{Text: sp.Text[last:m[0]], Bold: sp.Bold, Italic: sp.Italic})
				next = appendSpan(next, Span{
					Text:   sp.Text[m[2]:m[3]],
					Bold:   sp.Bold || rule.bold,
					Italic: sp.Italic || rule.italic,
				})
				last = m[1]
			}
			next = appendSpan(next, Span{Text: sp.Text[last:], Bold: sp.Bold, Italic: sp.Italic})
		}
		spans = next
	}
	return spans
}

func appendSpan(spans []Span, sp Span) []Span {
	if sp.Text == "" {
		return spans
	}
	return append(spans, sp)
}

// HTML renders text to HTML. Text content is escaped.
func HTML(text string) string {
	var b strings.Builder
	for _, blk := range Parse(text) {
		switch blk.Kind {
		case Paragraph:
			b.WriteString("<p>")
			writeInlineHTML(&b, blk.Lines[0])
			b.WriteString("</p>")
		case UnorderedList, OrderedList:
			tag := "ul"
			if blk.Kind == OrderedList {
				tag = "ol"
			}
			b.WriteString("<" + tag + ">")
			for _, item := range blk.Lines {
				b.WriteString("<li>")
				writeInlineHTML(&b, item)
				b.WriteString("</li>")
			}
			b.WriteString("</" + tag + ">")
		}
	}
	return b.String()
}

func writeInlineHTML(b *strings.Builder, line string) {
	for _, sp := range Inline(line) {
		if sp.Bold {
			b.WriteString("<strong>")
		}
		if sp.Italic {
			b.WriteString("<em>")
		}
		b.WriteString(html.EscapeString(sp.Text))
		if sp.Italic {
			b.WriteString("</em>")
		}
		if sp.Bold {
			b.WriteString("</strong>")
		}
	}
}
