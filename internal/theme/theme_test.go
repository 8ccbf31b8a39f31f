package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
)

type node struct {
	bg     *colorful.Color
	alpha  float64
	parent *node
}

func (n *node) Background() (colorful.Color, float64, bool) {
	if n.bg == nil {
		return colorful.Color{}, 0, false
	}
	return *n.bg, n.alpha, true
}

func (n *node) Parent() Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// gridSurface maps each cell to an element; nil cells are empty.
type gridSurface [][]*node

func (g gridSurface) Size() (int, int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g[0]), len(g)
}

func (g gridSurface) ElementAt(x, y int) Element {
	if n := g[y][x]; n != nil {
		return n
	}
	return nil
}

func hex(t *testing.T, s string) *colorful.Color {
	t.Helper()
	c, err := colorful.Hex(s)
	assert.NoError(t, err)
	return &c
}

func TestGridSamplerWalksToOpaqueAncestor(t *testing.T) {
	root := &node{bg: hex(t, "#202020"), alpha: 1}
	body := &node{parent: root}
	clear := &node{bg: hex(t, "#ff0000"), alpha: 0, parent: body}
	code := &node{bg: hex(t, "#fafafa"), alpha: 1, parent: body}

	surface := gridSurface{
		{clear, clear, code},
		{clear, clear, code},
		{clear, nil, code},
	}
	got, ok := GridSampler{Surface: surface, Step: 1}.SampleBackground()
	assert.True(t, ok)
	assert.Equal(t, "#202020", got.Hex())
}

func TestGridSamplerMajority(t *testing.T) {
	code := &node{bg: hex(t, "#fafafa"), alpha: 0.5}
	text := &node{}
	surface := gridSurface{
		{code, code, text},
		{code, text, text},
		{code, code, text},
	}
	got, ok := GridSampler{Surface: surface, Step: 1}.SampleBackground()
	assert.True(t, ok)
	assert.Equal(t, "#fafafa", got.Hex())
}

func TestGridSamplerStepAndFallbacks(t *testing.T) {
	a := &node{bg: hex(t, "#000000"), alpha: 1}
	b := &node{}
	// with step 2 only the corners are seen
	surface := gridSurface{
		{a, b, a},
		{b, b, b},
		{a, b, a},
	}
	got, ok := GridSampler{Surface: surface, Step: 2}.SampleBackground()
	assert.True(t, ok)
	assert.Equal(t, "#000000", got.Hex())

	// no opaque background anywhere means white
	got, ok = GridSampler{Surface: gridSurface{{b}}, Step: 1}.SampleBackground()
	assert.True(t, ok)
	assert.Equal(t, "#ffffff", got.Hex())

	_, ok = GridSampler{Surface: gridSurface{{nil}}}.SampleBackground()
	assert.False(t, ok)
	_, ok = GridSampler{}.SampleBackground()
	assert.False(t, ok)
}

func TestIsLight(t *testing.T) {
	assert.True(t, IsLight(*hex(t, "#ffffff")))
	assert.True(t, IsLight(*hex(t, "#f0f0f0")))
	assert.False(t, IsLight(*hex(t, "#b0b0b0")))
	assert.False(t, IsLight(*hex(t, "#1e1e1e")))
}

func TestResolve(t *testing.T) {
	p := Resolve(Fixed{Color: *hex(t, "#ffffff"), OK: true}, true)
	assert.True(t, p.Light)
	assert.Equal(t, lipgloss.Color("#ffffff"), p.PanelBg)
	assert.Equal(t, lipgloss.Color("#111111"), p.Text)

	p = Resolve(Fixed{Color: *hex(t, "#101010"), OK: true}, false)
	assert.False(t, p.Light)
	assert.Equal(t, lipgloss.Color("#F3F3F3"), p.Text)

	p = Resolve(Fixed{}, true)
	assert.Equal(t, FromTheme(DarkTheme, false), p)
	p = Resolve(nil, false)
	assert.Equal(t, FromTheme(LightTheme, true), p)
}
