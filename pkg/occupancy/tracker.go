package occupancy

import "github.com/ritzau/gridlights/pkg/geom"

// Tracker is the set of edges currently claimed by a particle or a fading trail
type Tracker struct {
	edges map[geom.EdgeKey]struct{}
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{edges: make(map[geom.EdgeKey]struct{})}
}

// IsOccupied reports whether key is claimed
func (t *Tracker) IsOccupied(key geom.EdgeKey) bool {
	_, ok := t.edges[key]
	return ok
}

// Occupy claims key. Claiming an occupied edge is a no-op.
func (t *Tracker) Occupy(key geom.EdgeKey) {
	t.edges[key] = struct{}{}
}

// Release frees key. Releasing a free edge is a no-op.
func (t *Tracker) Release(key geom.EdgeKey) {
	delete(t.edges, key)
}

// Len returns the number of claimed edges
func (t *Tracker) Len() int {
	return len(t.edges)
}

// Reset releases every edge
func (t *Tracker) Reset() {
	clear(t.edges)
}
