package term

import (
	"math/rand"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ritzau/gridlights/pkg/grid"
	"github.com/ritzau/gridlights/pkg/sim"
)

func TestGlyph(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   rune
	}{
		{40, 0, '─'},
		{-40, 0, '─'},
		{0, 40, '│'},
		{0, -40, '│'},
		{8, 16, '╲'},
		{-8, -16, '╲'},
		{8, -16, '╱'},
		{-8, 16, '╱'},
	}
	for _, tt := range tests {
		if got := glyph(tt.dx, tt.dy); got != tt.want {
			t.Errorf("glyph(%v, %v) = %q, want %q", tt.dx, tt.dy, got, tt.want)
		}
	}
}

func TestToCell(t *testing.T) {
	tests := []struct {
		x, y         float64
		wantX, wantY int
	}{
		{0, 0, 0, 0},
		{7.9, 15.9, 0, 0},
		{8, 16, 1, 1},
		{-0.5, 3, -1, 0},
	}
	for _, tt := range tests {
		if x, y := toCell(tt.x, tt.y); x != tt.wantX || y != tt.wantY {
			t.Errorf("toCell(%v, %v) = %d,%d want %d,%d", tt.x, tt.y, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestBlend(t *testing.T) {
	from := tcell.NewRGBColor(0, 0, 0)
	to := tcell.NewRGBColor(200, 100, 50)

	if got := blend(from, to, 0); got != from {
		t.Errorf("blend at 0 = %v, want %v", got, from)
	}
	if got := blend(from, to, 1); got != to {
		t.Errorf("blend at 1 = %v, want %v", got, to)
	}
	if got := blend(from, to, 7); got != to {
		t.Errorf("blend clamps above 1, got %v", got)
	}
	r, g, b := blend(from, to, 0.5).RGB()
	if r != 100 || g != 50 || b != 25 {
		t.Errorf("blend at 0.5 = %d,%d,%d", r, g, b)
	}
}

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init simulation screen: %v", err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

func runeAt(screen tcell.Screen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func TestDrawLayers(t *testing.T) {
	screen := newScreen(t, 20, 6)
	c := canvas{screen: screen, width: 20, height: 6}

	lines := sim.GridLines{
		Version:    3,
		LineColor:  "#1e293b",
		LightColor: "#38bdf8",
		Segments:   [][4]float64{{0, 8, 80, 8}, {160, 0, 160, 80}},
	}
	frame := sim.Frame{
		GridVersion: 3,
		Particles:   []sim.ParticleView{{ID: 1, X: 40, Y: 8}},
		Explosions:  []sim.ExplosionView{{X: 120, Y: 48, Radius: 2, Opacity: 1}},
	}
	draw(c, lines, frame)

	if got := runeAt(screen, 2, 0); got != '─' {
		t.Errorf("Expected horizontal line at (2,0), got %q", got)
	}
	if got := runeAt(screen, 5, 0); got != particleRune {
		t.Errorf("Expected particle drawn over the line at (5,0), got %q", got)
	}
	if got := runeAt(screen, 15, 3); got != explosionRune {
		t.Errorf("Expected explosion at (15,3), got %q", got)
	}

	// A frame from an older graph only gets the lattice
	screen.Clear()
	frame.GridVersion = 2
	draw(c, lines, frame)
	if got := runeAt(screen, 5, 0); got != '─' {
		t.Errorf("Stale frame drawn: got %q at (5,0)", got)
	}
}

func TestRendererKeys(t *testing.T) {
	screen := newScreen(t, 40, 10)
	opts := sim.DefaultOptions()
	opts.Shape = grid.Square
	loop := sim.NewLoop(sim.New(opts, rand.New(rand.NewSource(3))), 60)
	r := NewRenderer(screen, loop, nil, 60)
	r.resize()

	loop.Start()
	if !r.handleEvent(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone)) || loop.Running() {
		t.Error("Space should pause a running loop")
	}
	if !r.handleEvent(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone)) || !loop.Running() {
		t.Error("Space should resume a paused loop")
	}

	loop.Step(time.Now())
	if w, h := loop.Lines().Width, loop.Lines().Height; w != 40*CellWidth || h != 10*CellHeight {
		t.Errorf("Expected region %dx%d, got %vx%v", 40*CellWidth, 10*CellHeight, w, h)
	}

	for _, ev := range []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl),
	} {
		if r.handleEvent(ev) {
			t.Errorf("Expected %v to quit", ev.Name())
		}
	}
}
