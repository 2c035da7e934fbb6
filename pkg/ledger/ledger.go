package ledger

import (
	"github.com/ritzau/gridlights/pkg/geom"
	"github.com/ritzau/gridlights/pkg/occupancy"
)

// ExplosionStartRadius is the radius of a fresh explosion in pixels
const ExplosionStartRadius = 2.0

// Trail is the fading trace of one edge crossing. Endpoints are copied so a
// trail never points into a graph that has been rebuilt.
type Trail struct {
	From     geom.Point
	To       geom.Point
	EdgeKey  geom.EdgeKey
	Progress float64 // Mirrors the owning particle until frozen at 1
	Opacity  float64
}

// Head returns the point the trail has been drawn up to
func (t *Trail) Head() geom.Point {
	return geom.Lerp(t.From, t.To, min(t.Progress, 1))
}

// Explosion is a short radial burst where a particle died
type Explosion struct {
	Center  geom.Point
	Radius  float64
	Opacity float64
}

// Rates are per-tick decay parameters
type Rates struct {
	TrailFade       float64 // Opacity lost per tick by a static trail
	ExplosionGrowth float64 // Radius gained per tick
	ExplosionFade   float64 // Opacity lost per tick
}

// Ledger owns trails and explosions and releases trail edges once faded
type Ledger struct {
	rates      Rates
	tracker    *occupancy.Tracker
	trails     []*Trail
	explosions []*Explosion
}

// New creates a ledger that releases edges on tracker
func New(tracker *occupancy.Tracker, rates Rates) *Ledger {
	return &Ledger{
		rates:   rates,
		tracker: tracker,
	}
}

// SetRates replaces the decay parameters
func (l *Ledger) SetRates(rates Rates) {
	l.rates = rates
}

// AddTrail records a new crossing of the edge from a to b and occupies it
func (l *Ledger) AddTrail(from, to geom.Point, key geom.EdgeKey) *Trail {
	t := &Trail{
		From:    from,
		To:      to,
		EdgeKey: key,
		Opacity: 1,
	}
	l.tracker.Occupy(key)
	l.trails = append(l.trails, t)
	return t
}

// AddExplosion starts a burst at p
func (l *Ledger) AddExplosion(p geom.Point) *Explosion {
	e := &Explosion{
		Center:  p,
		Radius:  ExplosionStartRadius,
		Opacity: 1,
	}
	l.explosions = append(l.explosions, e)
	return e
}

// Tick fades static trails, ages explosions and purges everything fully faded
func (l *Ledger) Tick() {
	live := l.trails[:0]
	for _, t := range l.trails {
		if t.Progress >= 1 {
			t.Opacity -= l.rates.TrailFade
		}
		if t.Opacity <= 0 {
			l.tracker.Release(t.EdgeKey)
			continue
		}
		live = append(live, t)
	}
	clear(l.trails[len(live):])
	l.trails = live

	alive := l.explosions[:0]
	for _, e := range l.explosions {
		e.Radius += l.rates.ExplosionGrowth
		e.Opacity -= l.rates.ExplosionFade
		if e.Opacity <= 0 {
			continue
		}
		alive = append(alive, e)
	}
	clear(l.explosions[len(alive):])
	l.explosions = alive
}

// Trails returns the live trails; callers must not retain the slice across ticks
func (l *Ledger) Trails() []*Trail {
	return l.trails
}

// Explosions returns the live explosions; callers must not retain the slice across ticks
func (l *Ledger) Explosions() []*Explosion {
	return l.explosions
}

// Reset drops all trails and explosions without touching the tracker
func (l *Ledger) Reset() {
	l.trails = nil
	l.explosions = nil
}
