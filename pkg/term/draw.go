package term

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/ritzau/gridlights/pkg/sim"
)

// A terminal cell stands for CellWidth x CellHeight pixels of simulation space
const (
	CellWidth  = 8
	CellHeight = 16
)

const (
	particleRune  = '●'
	explosionRune = '*'
)

// toCell maps a simulation point to the terminal cell containing it
func toCell(x, y float64) (int, int) {
	return int(math.Floor(x / CellWidth)), int(math.Floor(y / CellHeight))
}

// glyph picks a box-drawing rune for a segment direction in pixel space
func glyph(dx, dy float64) rune {
	// Compare in cell units so a hexagon's slanted edge reads as a diagonal
	cx, cy := math.Abs(dx/CellWidth), math.Abs(dy/CellHeight)
	switch {
	case cy < cx*0.4:
		return '─'
	case cx < cy*0.4:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// blend mixes from toward to; t is clamped to [0,1]
func blend(from, to tcell.Color, t float64) tcell.Color {
	t = max(0, min(1, t))
	r1, g1, b1 := from.RGB()
	r2, g2, b2 := to.RGB()
	mix := func(a, b int32) int32 {
		return a + int32(math.Round(float64(b-a)*t))
	}
	return tcell.NewRGBColor(mix(r1, r2), mix(g1, g2), mix(b1, b2))
}

// parseColor accepts #rrggbb or a named color, falling back to def
func parseColor(s string, def tcell.Color) tcell.Color {
	c := tcell.GetColor(s)
	if c == tcell.ColorDefault {
		return def
	}
	return c
}

type canvas struct {
	screen tcell.Screen
	width  int
	height int
}

func (c canvas) set(x, y int, r rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.screen.SetContent(x, y, r, nil, style)
}

// segment rasterizes (x1,y1)->(x2,y2) in pixel space, one rune per cell
func (c canvas) segment(x1, y1, x2, y2 float64, style tcell.Style) {
	r := glyph(x2-x1, y2-y1)
	steps := int(math.Ceil(max(math.Abs(x2-x1)/CellWidth, math.Abs(y2-y1)/CellHeight)))
	if steps == 0 {
		cx, cy := toCell(x1, y1)
		c.set(cx, cy, r, style)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cx, cy := toCell(x1+(x2-x1)*t, y1+(y2-y1)*t)
		c.set(cx, cy, r, style)
	}
}

// ring draws a circle outline of radius r pixels around (x,y)
func (c canvas) ring(x, y, radius float64, style tcell.Style) {
	if radius <= 0 {
		return
	}
	n := max(8, int(2*math.Pi*radius/CellWidth))
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		cx, cy := toCell(x+radius*math.Cos(a), y+radius*math.Sin(a))
		c.set(cx, cy, explosionRune, style)
	}
}

// palette holds the resolved colors of the current lines
type palette struct {
	background tcell.Color
	line       tcell.Color
	light      tcell.Color
}

func newPalette(lines sim.GridLines) palette {
	return palette{
		background: tcell.ColorBlack,
		line:       parseColor(lines.LineColor, tcell.ColorDarkSlateGray),
		light:      parseColor(lines.LightColor, tcell.ColorAqua),
	}
}

// draw paints one frame: lattice, trails, explosions, then particles on top
func draw(c canvas, lines sim.GridLines, frame sim.Frame) {
	pal := newPalette(lines)
	base := tcell.StyleDefault.Background(pal.background)

	lineStyle := base.Foreground(pal.line)
	for _, s := range lines.Segments {
		c.segment(s[0], s[1], s[2], s[3], lineStyle)
	}

	// Frames from before a rebuild refer to a graph that no longer exists
	if frame.GridVersion != lines.Version {
		return
	}

	for _, t := range frame.Trails {
		style := base.Foreground(blend(pal.line, pal.light, t.Opacity))
		x2 := t.X1 + (t.X2-t.X1)*t.Progress
		y2 := t.Y1 + (t.Y2-t.Y1)*t.Progress
		c.segment(t.X1, t.Y1, x2, y2, style)
	}

	for _, e := range frame.Explosions {
		c.ring(e.X, e.Y, e.Radius, base.Foreground(blend(pal.background, pal.light, e.Opacity)))
	}

	particleStyle := base.Foreground(pal.light).Bold(true)
	for _, p := range frame.Particles {
		cx, cy := toCell(p.X, p.Y)
		c.set(cx, cy, particleRune, particleStyle)
	}
}
