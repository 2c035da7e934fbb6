package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ritzau/gridlights/pkg/grid"
)

func newState(t *testing.T, mutate func(*Options)) *State {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts, rand.New(rand.NewSource(42)))
}

func TestSpawnInterval(t *testing.T) {
	s := newState(t, func(o *Options) {
		o.SpawnRate = 800 * time.Millisecond
		o.Shape = grid.Square
	})
	s.Rebuild(400, 400)

	start := time.Unix(1000, 0)
	tests := []struct {
		offset  time.Duration
		attempt bool
	}{
		{0, true},
		{100 * time.Millisecond, false},
		{800 * time.Millisecond, false}, // interval must be exceeded, not met
		{801 * time.Millisecond, true},
		{1200 * time.Millisecond, false},
		{1700 * time.Millisecond, true},
	}

	for i, tt := range tests {
		stats := s.Tick(start.Add(tt.offset))
		if stats.SpawnAttempted != tt.attempt {
			t.Errorf("at +%v attempted=%v, want %v", tt.offset, stats.SpawnAttempted, tt.attempt)
		}
		if !tt.attempt && stats.Spawned != 0 {
			t.Errorf("at +%v spawned without an attempt", tt.offset)
		}
		if i == 0 && stats.Spawned != 1 {
			t.Errorf("first attempt on an empty grid spawned %d", stats.Spawned)
		}
	}
}

func TestNotAnimatedOnlyRebuilds(t *testing.T) {
	s := newState(t, func(o *Options) { o.Animated = false })
	s.Resize(300, 200)

	stats := s.Tick(time.Now())
	if !stats.Rebuilt {
		t.Fatal("Expected pending resize to rebuild even when not animated")
	}
	for i := 0; i < 10; i++ {
		stats = s.Tick(time.Now().Add(time.Duration(i) * time.Second))
		if stats.Spawned != 0 || stats.Arrived != 0 {
			t.Fatalf("Static simulation moved: %+v", stats)
		}
	}
	if p, tr, ex := s.Live(); p+tr+ex != 0 {
		t.Errorf("Static simulation has %d particles, %d trails, %d explosions", p, tr, ex)
	}
	if len(s.Lines().Segments) == 0 {
		t.Error("Expected static lines to be available")
	}
}

func TestEmptyRegionIsNoop(t *testing.T) {
	s := newState(t, nil)
	s.Rebuild(0, 0)

	now := time.Unix(0, 0)
	for i := 0; i < 50; i++ {
		stats := s.Tick(now.Add(time.Duration(i) * time.Second))
		if stats.Spawned != 0 || stats.Deaths != 0 {
			t.Fatalf("Empty grid produced activity: %+v", stats)
		}
	}
	if len(s.Lines().Segments) != 0 {
		t.Error("Expected no segments for an empty region")
	}
}

func runTicks(s *State, n int, frameStep time.Duration, check func(int)) {
	now := time.Unix(0, 0)
	for i := 0; i < n; i++ {
		now = now.Add(frameStep)
		s.Tick(now)
		if check != nil {
			check(i)
		}
	}
}

func TestRebuildDiscardsEverything(t *testing.T) {
	s := newState(t, func(o *Options) {
		o.SpawnRate = 0
		o.LightSpeed = 5
	})
	s.Rebuild(640, 480)
	runTicks(s, 120, 16*time.Millisecond, nil)

	if p, tr, _ := s.Live(); p == 0 && tr == 0 {
		t.Fatal("Expected activity before rebuild")
	}
	before := s.Graph()

	s.Rebuild(640, 480)
	if p, tr, ex := s.Live(); p+tr+ex != 0 {
		t.Errorf("Rebuild kept %d particles, %d trails, %d explosions", p, tr, ex)
	}
	if s.Occupied() != 0 {
		t.Errorf("Rebuild kept %d occupied edges", s.Occupied())
	}
	after := s.Graph()
	if before == after {
		t.Error("Rebuild reused the previous graph")
	}
	if len(before.Nodes) != len(after.Nodes) || len(before.Edges) != len(after.Edges) {
		t.Errorf("Rebuild at the same size changed topology: %d/%d vs %d/%d",
			len(before.Nodes), len(before.Edges), len(after.Nodes), len(after.Edges))
	}
}

func TestOccupancyTracksLiveTrails(t *testing.T) {
	for _, shape := range []grid.Shape{grid.Square, grid.Hexagon} {
		s := newState(t, func(o *Options) {
			o.Shape = shape
			o.SpawnRate = 30 * time.Millisecond
			o.LightSpeed = 4
			o.SplitChance = 0.5
			o.TrailFadeSpeed = 0.05
		})
		s.Rebuild(500, 400)

		runTicks(s, 600, 16*time.Millisecond, func(i int) {
			frame := s.Snapshot()
			keys := make(map[[4]float64]bool)
			for _, tr := range frame.Trails {
				if tr.Opacity <= 0 {
					t.Fatalf("%v tick %d: faded trail still live", shape, i)
				}
				keys[[4]float64{tr.X1, tr.Y1, tr.X2, tr.Y2}] = true
			}
			if s.Occupied() != len(frame.Trails) || len(keys) != len(frame.Trails) {
				t.Fatalf("%v tick %d: %d occupied edges, %d trails (%d distinct)",
					shape, i, s.Occupied(), len(frame.Trails), len(keys))
			}
		})

		if s.Totals().Spawned == 0 || s.Totals().Deaths == 0 {
			t.Errorf("%v: expected spawns and deaths over the run, got %+v", shape, s.Totals())
		}
	}
}

func TestConfigureAppliesOnNextTick(t *testing.T) {
	s := newState(t, func(o *Options) { o.Shape = grid.Square; o.CellSize = 40 })
	s.Rebuild(120, 120)
	if len(s.Graph().Nodes) != 25 {
		t.Fatalf("Expected 25 nodes, got %d", len(s.Graph().Nodes))
	}

	opts := s.Options()
	opts.CellSize = 60
	s.Configure(opts)
	if s.Options().CellSize != 40 {
		t.Error("Configure applied before the next tick")
	}

	stats := s.Tick(time.Now())
	if !stats.Rebuilt || s.Options().CellSize != 60 {
		t.Fatalf("Expected rebuild with new options, got %+v cellSize=%v", stats, s.Options().CellSize)
	}
	if len(s.Graph().Nodes) != 16 {
		t.Errorf("Expected 4x4 lattice after reconfigure, got %d nodes", len(s.Graph().Nodes))
	}
	if w, h := s.Size(); w != 120 || h != 120 {
		t.Errorf("Configure changed the size to %vx%v", w, h)
	}
}

func TestSnapshotPositionsOnGraph(t *testing.T) {
	s := newState(t, func(o *Options) {
		o.Shape = grid.Square
		o.SpawnRate = 0
	})
	s.Rebuild(400, 300)

	runTicks(s, 200, 16*time.Millisecond, nil)
	frame := s.Snapshot()
	if len(frame.Particles) == 0 {
		t.Fatal("Expected live particles")
	}

	lines := s.Lines()
	for _, p := range frame.Particles {
		// The lattice runs up to two cells past the region
		if p.X < 0 || p.X > lines.Width+2*lines.CellSize || p.Y < 0 || p.Y > lines.Height+2*lines.CellSize {
			t.Errorf("Particle %d at (%v, %v) outside the lattice", p.ID, p.X, p.Y)
		}
		// Square lattice: one coordinate is always on a grid line
		onX := int(p.X*100)%4000 == 0
		onY := int(p.Y*100)%4000 == 0
		if !onX && !onY {
			t.Errorf("Particle %d at (%v, %v) is off the lattice", p.ID, p.X, p.Y)
		}
	}
	if frame.GridVersion != lines.Version {
		t.Errorf("Frame grid version %d, lines version %d", frame.GridVersion, lines.Version)
	}
}
