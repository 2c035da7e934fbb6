package particle

import (
	"github.com/ritzau/gridlights/pkg/geom"
	"github.com/ritzau/gridlights/pkg/grid"
	"github.com/ritzau/gridlights/pkg/ledger"
	"github.com/ritzau/gridlights/pkg/logging"
	"github.com/ritzau/gridlights/pkg/occupancy"
)

// Rand is the uniform random source used for every engine decision.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Settings control particle motion and lifespan
type Settings struct {
	Speed       float64 // Multiplier on Step
	Step        float64 // Progress added per tick at speed 1
	MinTravel   int     // Inclusive lower bound on edges crossed before dying
	MaxTravel   int     // Inclusive upper bound
	SplitChance float64 // Probability of branching at an eligible node
}

// Particle is a light walking the grid
type Particle struct {
	ID          uint64
	Current     *grid.Node
	Target      *grid.Node
	Progress    float64
	Traveled    int
	TravelLimit int
	CanSplit    bool
	Dead        bool

	trail *ledger.Trail
}

// Position interpolates the particle along its current edge
func (p *Particle) Position() geom.Point {
	return geom.Lerp(p.Current.Point(), p.Target.Point(), min(p.Progress, 1))
}

// Stats counts what happened during one Advance or Spawn
type Stats struct {
	Spawned int
	Arrived int
	Splits  int
	Deaths  int
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.Spawned += o.Spawned
	s.Arrived += o.Arrived
	s.Splits += o.Splits
	s.Deaths += o.Deaths
}

// Engine owns the live particles on one graph
type Engine struct {
	graph     *grid.Graph
	tracker   *occupancy.Tracker
	ledger    *ledger.Ledger
	rnd       Rand
	settings  Settings
	particles []*Particle
	nextID    uint64
}

// NewEngine creates an engine walking g. Trails go to l, which shares tracker.
func NewEngine(g *grid.Graph, tracker *occupancy.Tracker, l *ledger.Ledger, rnd Rand, settings Settings) *Engine {
	return &Engine{
		graph:    g,
		tracker:  tracker,
		ledger:   l,
		rnd:      rnd,
		settings: settings,
	}
}

// SetSettings replaces the motion settings; live particles keep their limits
func (e *Engine) SetSettings(settings Settings) {
	e.settings = settings
}

// Reset drops every particle and binds the engine to g. Ids keep counting.
func (e *Engine) Reset(g *grid.Graph) {
	e.graph = g
	clear(e.particles)
	e.particles = e.particles[:0]
}

// Particles returns the live particles; callers must not retain the slice across ticks
func (e *Engine) Particles() []*Particle {
	return e.particles
}

// Len returns the number of live particles
func (e *Engine) Len() int {
	return len(e.particles)
}

// Advance moves every particle one tick. Children created by splits are
// appended during the pass and first move on the next tick. Dead particles
// are compacted out at the end.
func (e *Engine) Advance() Stats {
	var stats Stats

	n := len(e.particles)
	for i := 0; i < n; i++ {
		p := e.particles[i]
		if p.Dead {
			continue
		}
		e.step(p, &stats)
	}

	alive := 0
	for _, p := range e.particles {
		if p.Dead {
			continue
		}
		e.particles[alive] = p
		alive++
	}
	clear(e.particles[alive:])
	e.particles = e.particles[:alive]

	return stats
}

func (e *Engine) step(p *Particle, stats *Stats) {
	p.Progress += e.settings.Speed * e.settings.Step
	if p.trail != nil {
		p.trail.Progress = min(p.Progress, 1)
	}
	if p.Progress < 1 {
		return
	}

	p.Traveled++
	stats.Arrived++
	if p.Traveled >= p.TravelLimit {
		e.kill(p, stats)
		return
	}

	arrivedAt, cameFrom := p.Target, p.Current
	candidates := e.candidates(arrivedAt, cameFrom)
	if len(candidates) == 0 {
		e.kill(p, stats)
		return
	}

	if p.CanSplit && len(candidates) >= 2 && e.rnd.Float64() < e.settings.SplitChance {
		i := e.rnd.Intn(len(candidates))
		j := e.rnd.Intn(len(candidates) - 1)
		if j >= i {
			j++
		}

		p.CanSplit = false
		e.moveOnto(p, arrivedAt, candidates[i])

		child := &Particle{
			ID:          e.newID(),
			Traveled:    p.Traveled,
			TravelLimit: p.TravelLimit,
		}
		e.moveOnto(child, arrivedAt, candidates[j])
		e.particles = append(e.particles, child)

		stats.Splits++
		logging.Trace("particle split", "parent", p.ID, "child", child.ID, "at", arrivedAt.Key.String())
		return
	}

	e.moveOnto(p, arrivedAt, candidates[e.rnd.Intn(len(candidates))])
}

// candidates lists neighbors of at, excluding prev and any node behind an occupied edge
func (e *Engine) candidates(at, prev *grid.Node) []*grid.Node {
	var out []*grid.Node
	for _, edge := range e.graph.Incident(at) {
		next := edge.Other(at)
		if next == prev || e.tracker.IsOccupied(edge.Key) {
			continue
		}
		out = append(out, next)
	}
	return out
}

func (e *Engine) kill(p *Particle, stats *Stats) {
	p.Dead = true
	if p.trail != nil {
		p.trail.Progress = 1
	}
	e.ledger.AddExplosion(p.Target.Point())
	stats.Deaths++
	logging.Trace("particle died", "id", p.ID, "traveled", p.Traveled, "at", p.Target.Key.String())
}

// moveOnto starts p crossing from -> to, occupying the edge with a new trail
func (e *Engine) moveOnto(p *Particle, from, to *grid.Node) {
	if p.trail != nil {
		p.trail.Progress = 1
	}
	p.Current = from
	p.Target = to
	p.Progress = 0
	p.trail = e.ledger.AddTrail(from.Point(), to.Point(), geom.MakeEdgeKey(from.Key, to.Key))
}

// Spawn releases a new particle from a random entry node. It is a silent no-op
// when the graph has no entry nodes or every exit from the chosen node is occupied.
func (e *Engine) Spawn() (*Particle, bool) {
	entries := e.graph.EntryNodes
	if len(entries) == 0 {
		return nil, false
	}

	origin := entries[e.rnd.Intn(len(entries))]
	exits := e.exits(origin)
	if len(exits) == 0 {
		logging.Trace("spawn skipped, exits occupied", "at", origin.Key.String())
		return nil, false
	}

	p := &Particle{
		ID:          e.newID(),
		TravelLimit: e.travelLimit(),
		CanSplit:    true,
	}
	e.moveOnto(p, origin, exits[e.rnd.Intn(len(exits))])
	e.particles = append(e.particles, p)
	return p, true
}

// exits lists free edges out of an entry node, preferring those that lead down
func (e *Engine) exits(origin *grid.Node) []*grid.Node {
	incident := e.graph.Incident(origin)

	var downward []*grid.Edge
	for _, edge := range incident {
		if edge.Other(origin).Key.Y > origin.Key.Y {
			downward = append(downward, edge)
		}
	}
	if len(downward) == 0 {
		downward = incident
	}

	var out []*grid.Node
	for _, edge := range downward {
		if e.tracker.IsOccupied(edge.Key) {
			continue
		}
		out = append(out, edge.Other(origin))
	}
	return out
}

func (e *Engine) travelLimit() int {
	lo, hi := e.settings.MinTravel, e.settings.MaxTravel
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo + e.rnd.Intn(hi-lo+1)
}

func (e *Engine) newID() uint64 {
	e.nextID++
	return e.nextID
}
