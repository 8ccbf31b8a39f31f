package theme

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

// Sampler finds the dominant background color of the page.
type Sampler interface {
	SampleBackground() (colorful.Color, bool)
}

// Element is one node of a sampled surface.
type Element interface {
	// Background returns the element's own background and its opacity.
	// ok is false when the element sets no background at all.
	Background() (c colorful.Color, alpha float64, ok bool)
	// Parent returns the enclosing element or nil at the root.
	Parent() Element
}

// Surface is something laid out on a grid of cells.
type Surface interface {
	Size() (width, height int)
	// ElementAt returns the topmost element at a cell, or nil.
	ElementAt(x, y int) Element
}

var white = colorful.Color{R: 1, G: 1, B: 1}

// GridSampler samples a surface every Step cells, takes the element seen
// most often and walks up from it to the first opaque background.
type GridSampler struct {
	Surface Surface
	Step    int
}

func (g GridSampler) SampleBackground() (colorful.Color, bool) {
	if g.Surface == nil {
		return colorful.Color{}, false
	}
	el := g.dominant()
	if el == nil {
		return colorful.Color{}, false
	}
	return EffectiveBackground(el), true
}

func (g GridSampler) dominant() Element {
	step := g.Step
	if step <= 0 {
		step = 1
	}
	w, h := g.Surface.Size()

	// first seen wins a tie
	var order []Element
	counts := map[Element]int{}
	for x := 0; x < w; x += step {
		for y := 0; y < h; y += step {
			el := g.Surface.ElementAt(x, y)
			if el == nil {
				continue
			}
			if counts[el] == 0 {
				order = append(order, el)
			}
			counts[el]++
		}
	}

	var best Element
	most := 0
	for _, el := range order {
		if counts[el] > most {
			best, most = el, counts[el]
		}
	}
	return best
}

// EffectiveBackground walks from el towards the root and returns the first
// background that is not fully transparent. White if there is none.
func EffectiveBackground(el Element) colorful.Color {
	for ; el != nil; el = el.Parent() {
		if c, alpha, ok := el.Background(); ok && alpha > 0 {
			return c
		}
	}
	return white
}

// TerminalSampler asks the terminal for its background color.
type TerminalSampler struct {
	Output *termenv.Output
}

func (s TerminalSampler) SampleBackground() (colorful.Color, bool) {
	out := s.Output
	if out == nil {
		out = termenv.DefaultOutput()
	}
	switch c := out.BackgroundColor().(type) {
	case termenv.RGBColor, termenv.ANSIColor, termenv.ANSI256Color:
		return termenv.ConvertToRGB(c), true
	}
	return colorful.Color{}, false
}

// Fixed is a Sampler that always reports the same color.
type Fixed struct {
	Color colorful.Color
	OK    bool
}

func (f Fixed) SampleBackground() (colorful.Color, bool) { return f.Color, f.OK }
