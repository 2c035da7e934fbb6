package sim

import (
	"time"

	"github.com/google/uuid"

	"github.com/ritzau/gridlights/pkg/grid"
	"github.com/ritzau/gridlights/pkg/ledger"
	"github.com/ritzau/gridlights/pkg/logging"
	"github.com/ritzau/gridlights/pkg/occupancy"
	"github.com/ritzau/gridlights/pkg/particle"
)

// TickStats describes one call to Tick
type TickStats struct {
	Frame          uint64
	Rebuilt        bool
	SpawnAttempted bool
	particle.Stats
}

// State owns everything a running background needs: the graph, occupancy,
// trails, explosions and particles. It is not safe for concurrent use; Loop
// serializes access for hosts that tick from a goroutine.
type State struct {
	ID string

	opts          Options
	width, height float64

	graph   *grid.Graph
	tracker *occupancy.Tracker
	ledger  *ledger.Ledger
	engine  *particle.Engine
	rnd     particle.Rand

	rebuildPending bool
	pendingWidth   float64
	pendingHeight  float64
	pendingOpts    *Options

	lastSpawn  time.Time
	frame      uint64
	version    int
	components int
	totals     particle.Stats
}

// New creates a simulation with an empty graph. Call Rebuild or Resize to
// give it a size.
func New(opts Options, rnd particle.Rand) *State {
	s := &State{
		ID:      uuid.New().String(),
		opts:    opts,
		graph:   grid.NewGraph(),
		tracker: occupancy.NewTracker(),
		rnd:     rnd,
	}
	s.ledger = ledger.New(s.tracker, opts.rates())
	s.engine = particle.NewEngine(s.graph, s.tracker, s.ledger, rnd, opts.settings())
	return s
}

// Rebuild discards the graph and every particle, trail and explosion, then
// tessellates a width x height region with the current options.
func (s *State) Rebuild(width, height float64) {
	s.width, s.height = width, height
	s.rebuildPending = false

	s.graph = grid.Build(s.opts.Shape, s.opts.CellSize, width, height)
	s.tracker.Reset()
	s.ledger.Reset()
	s.ledger.SetRates(s.opts.rates())
	s.engine.SetSettings(s.opts.settings())
	s.engine.Reset(s.graph)

	s.version++
	s.components = 0
	if !s.graph.Empty() {
		s.components = s.graph.Components()
	}

	logging.Info("grid rebuilt",
		"sim", s.ID[:8],
		"shape", s.opts.Shape.String(),
		"width", width,
		"height", height,
		"nodes", len(s.graph.Nodes),
		"edges", len(s.graph.Edges),
		"entries", len(s.graph.EntryNodes),
		"components", s.components,
	)
}

// Resize schedules a rebuild at the new size for the next tick
func (s *State) Resize(width, height float64) {
	s.pendingWidth, s.pendingHeight = width, height
	s.rebuildPending = true
}

// Configure schedules a rebuild with new options for the next tick
func (s *State) Configure(opts Options) {
	if !s.rebuildPending {
		s.pendingWidth, s.pendingHeight = s.width, s.height
	}
	s.pendingOpts = &opts
	s.rebuildPending = true
}

// Tick advances the simulation by one frame: pending rebuild, spawn if the
// spawn interval has elapsed, particle advance, then trail and explosion decay.
func (s *State) Tick(now time.Time) TickStats {
	var stats TickStats

	if s.rebuildPending {
		if s.pendingOpts != nil {
			s.opts = *s.pendingOpts
			s.pendingOpts = nil
		}
		s.Rebuild(s.pendingWidth, s.pendingHeight)
		stats.Rebuilt = true
	}

	s.frame++
	stats.Frame = s.frame

	if !s.opts.Animated {
		return stats
	}

	if now.Sub(s.lastSpawn) > s.opts.SpawnRate {
		s.lastSpawn = now
		stats.SpawnAttempted = true
		if _, ok := s.engine.Spawn(); ok {
			stats.Spawned++
		}
	}

	stats.Add(s.engine.Advance())
	s.ledger.Tick()

	s.totals.Add(stats.Stats)
	return stats
}

// Options returns the active options
func (s *State) Options() Options {
	return s.opts
}

// Graph returns the current graph; it is replaced on every rebuild
func (s *State) Graph() *grid.Graph {
	return s.graph
}

// Size returns the tessellated region
func (s *State) Size() (float64, float64) {
	return s.width, s.height
}

// Totals returns counters accumulated since the simulation was created
func (s *State) Totals() particle.Stats {
	return s.totals
}

// Live returns the number of live particles, trails and explosions
func (s *State) Live() (particles, trails, explosions int) {
	return s.engine.Len(), len(s.ledger.Trails()), len(s.ledger.Explosions())
}

// Occupied returns the number of claimed edges
func (s *State) Occupied() int {
	return s.tracker.Len()
}
