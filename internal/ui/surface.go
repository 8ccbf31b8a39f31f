package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"inflow/internal/theme"
)

// rootElement is the terminal itself.
type rootElement struct {
	color colorful.Color
}

func newRootElement(terminal theme.Sampler, dark bool) *rootElement {
	if terminal != nil {
		if c, ok := terminal.SampleBackground(); ok {
			return &rootElement{color: c}
		}
	}
	if dark {
		return &rootElement{color: colorful.Color{}}
	}
	return &rootElement{color: colorful.Color{R: 1, G: 1, B: 1}}
}

func (r *rootElement) Background() (colorful.Color, float64, bool) { return r.color, 1, true }

func (r *rootElement) Parent() theme.Element { return nil }

// cellElement is a run of cells sharing one background color.
type cellElement struct {
	color  colorful.Color
	parent theme.Element
}

func (c *cellElement) Background() (colorful.Color, float64, bool) { return c.color, 1, true }

func (c *cellElement) Parent() theme.Element { return c.parent }

// ansiSurface exposes rendered lines to theme.GridSampler. Cells without
// an explicit background belong to the root.
type ansiSurface struct {
	width int
	cells [][]theme.Element
}

func newANSISurface(lines []string, width int, root *rootElement) *ansiSurface {
	s := &ansiSurface{width: width}
	elems := map[colorful.Color]*cellElement{}
	for _, line := range lines {
		row := make([]theme.Element, 0, width)
		for _, bg := range lineBackgrounds(line) {
			if bg == nil {
				row = append(row, root)
				continue
			}
			el, ok := elems[*bg]
			if !ok {
				el = &cellElement{color: *bg, parent: root}
				elems[*bg] = el
			}
			row = append(row, el)
		}
		for len(row) < width {
			row = append(row, root)
		}
		s.cells = append(s.cells, row)
	}
	return s
}

func (s *ansiSurface) Size() (int, int) {
	return s.width, len(s.cells)
}

func (s *ansiSurface) ElementAt(x, y int) theme.Element {
	if y < 0 || y >= len(s.cells) {
		return nil
	}
	row := s.cells[y]
	if x < 0 || x >= len(row) {
		return nil
	}
	return row[x]
}

// lineBackgrounds returns the background of every printed cell of line;
// nil means the terminal default.
func lineBackgrounds(line string) []*colorful.Color {
	var (
		out []*colorful.Color
		bg  *colorful.Color
	)
	for i := 0; i < len(line); {
		if line[i] == '\x1b' && i+1 < len(line) && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && (line[j] < 0x40 || line[j] > 0x7e) {
				j++
			}
			if j < len(line) && line[j] == 'm' {
				bg = applySGR(bg, line[i+2:j])
			}
			i = j + 1
			continue
		}
		end := i + 1
		for end < len(line) && line[end] != '\x1b' {
			end++
		}
		for k := 0; k < ansi.StringWidth(line[i:end]); k++ {
			out = append(out, bg)
		}
		i = end
	}
	return out
}

func applySGR(bg *colorful.Color, params string) *colorful.Color {
	if params == "" {
		return nil
	}
	parts := strings.Split(params, ";")
	for i := 0; i < len(parts); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		switch {
		case n == 0 || n == 49:
			bg = nil
		case n >= 40 && n <= 47:
			bg = ansiColor(n - 40)
		case n >= 100 && n <= 107:
			bg = ansiColor(n - 100 + 8)
		case n == 48 && i+2 < len(parts) && parts[i+1] == "5":
			idx, _ := strconv.Atoi(parts[i+2])
			bg = ansiColor(idx)
			i += 2
		case n == 48 && i+4 < len(parts) && parts[i+1] == "2":
			r, _ := strconv.Atoi(parts[i+2])
			g, _ := strconv.Atoi(parts[i+3])
			b, _ := strconv.Atoi(parts[i+4])
			c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
			bg = &c
			i += 4
		case n == 38 && i+1 < len(parts):
			// skip foreground color arguments
			if parts[i+1] == "5" {
				i += 2
			} else if parts[i+1] == "2" {
				i += 4
			}
		}
	}
	return bg
}

func ansiColor(idx int) *colorful.Color {
	c := termenv.ConvertToRGB(termenv.ANSI256Color(idx))
	return &c
}
