package ledger

import (
	"testing"

	"github.com/ritzau/gridlights/pkg/geom"
	"github.com/ritzau/gridlights/pkg/occupancy"
)

var (
	origin = geom.Point{X: 0, Y: 0}
	right  = geom.Point{X: 40, Y: 0}
	down   = geom.Point{X: 0, Y: 40}
)

func key(a, b geom.Point) geom.EdgeKey {
	return geom.MakeEdgeKey(geom.KeyOf(a), geom.KeyOf(b))
}

func TestTrailOccupiesUntilFaded(t *testing.T) {
	tr := occupancy.NewTracker()
	l := New(tr, Rates{TrailFade: 0.25})

	trail := l.AddTrail(origin, right, key(origin, right))
	if !tr.IsOccupied(trail.EdgeKey) {
		t.Fatal("Expected new trail to occupy its edge")
	}

	// Mid-crossing trails never fade
	trail.Progress = 0.5
	for i := 0; i < 10; i++ {
		l.Tick()
	}
	if trail.Opacity != 1 {
		t.Errorf("Mid-crossing trail faded to %v", trail.Opacity)
	}

	trail.Progress = 1
	for i := 0; i < 3; i++ {
		l.Tick()
		if len(l.Trails()) != 1 || !tr.IsOccupied(trail.EdgeKey) {
			t.Fatalf("Trail released early at tick %d (opacity %v)", i, trail.Opacity)
		}
	}

	l.Tick()
	if len(l.Trails()) != 0 {
		t.Errorf("Expected trail purged, %d left", len(l.Trails()))
	}
	if tr.IsOccupied(trail.EdgeKey) {
		t.Error("Expected edge released after trail faded")
	}
}

func TestOccupancyMatchesLiveTrails(t *testing.T) {
	tr := occupancy.NewTracker()
	l := New(tr, Rates{TrailFade: 0.3})

	a := l.AddTrail(origin, right, key(origin, right))
	b := l.AddTrail(origin, down, key(origin, down))
	a.Progress = 1
	b.Progress = 0.2

	for tick := 0; tick < 8; tick++ {
		l.Tick()

		live := make(map[geom.EdgeKey]bool)
		for _, trail := range l.Trails() {
			if trail.Opacity <= 0 {
				t.Errorf("tick %d: trail with opacity %v still live", tick, trail.Opacity)
			}
			live[trail.EdgeKey] = true
		}
		if tr.Len() != len(live) {
			t.Errorf("tick %d: %d occupied edges, %d live trails", tick, tr.Len(), len(live))
		}
		for k := range live {
			if !tr.IsOccupied(k) {
				t.Errorf("tick %d: live trail %v not occupied", tick, k)
			}
		}
	}
}

func TestExplosionGrowsAndFades(t *testing.T) {
	l := New(occupancy.NewTracker(), Rates{ExplosionGrowth: 1.5, ExplosionFade: 0.5})

	e := l.AddExplosion(right)
	if e.Radius != ExplosionStartRadius || e.Opacity != 1 {
		t.Fatalf("Unexpected fresh explosion %+v", e)
	}

	l.Tick()
	if e.Radius != ExplosionStartRadius+1.5 || e.Opacity != 0.5 {
		t.Errorf("After one tick got radius %v opacity %v", e.Radius, e.Opacity)
	}
	if len(l.Explosions()) != 1 {
		t.Fatalf("Explosion purged early")
	}

	l.Tick()
	if len(l.Explosions()) != 0 {
		t.Errorf("Expected explosion purged at zero opacity, %d left", len(l.Explosions()))
	}
}

func TestTrailHead(t *testing.T) {
	trail := &Trail{From: origin, To: right, Progress: 0.25}
	if h := trail.Head(); h.X != 10 || h.Y != 0 {
		t.Errorf("Head = %+v, want {10 0}", h)
	}

	trail.Progress = 1.7
	if h := trail.Head(); h != right {
		t.Errorf("Head past the end = %+v, want %+v", h, right)
	}
}

func TestReset(t *testing.T) {
	l := New(occupancy.NewTracker(), Rates{TrailFade: 0.1})
	l.AddTrail(origin, right, key(origin, right))
	l.AddExplosion(origin)

	l.Reset()
	if len(l.Trails()) != 0 || len(l.Explosions()) != 0 {
		t.Errorf("Expected empty ledger, got %d trails, %d explosions", len(l.Trails()), len(l.Explosions()))
	}
}
