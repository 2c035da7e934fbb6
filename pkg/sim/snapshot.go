package sim

// ParticleView is a particle position for drawing
type ParticleView struct {
	ID uint64  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// TrailView is a trail segment drawn from (X1,Y1) toward (X2,Y2) up to Progress
type TrailView struct {
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	Progress float64 `json:"progress"`
	Opacity  float64 `json:"opacity"`
}

// ExplosionView is a burst ring for drawing
type ExplosionView struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Opacity float64 `json:"opacity"`
}

// Frame is a read-only copy of the dynamic state after a tick
type Frame struct {
	Frame       uint64          `json:"frame"`
	GridVersion int             `json:"gridVersion"`
	Particles   []ParticleView  `json:"particles"`
	Trails      []TrailView     `json:"trails"`
	Explosions  []ExplosionView `json:"explosions"`
}

// GridLines is the static part of the picture, rebuilt with the graph
type GridLines struct {
	Version    int          `json:"version"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Shape      string       `json:"shape"`
	CellSize   float64      `json:"cellSize"`
	LineColor  string       `json:"lineColor"`
	LineWidth  float64      `json:"lineWidth"`
	LightColor string       `json:"lightColor"`
	Nodes      int          `json:"nodes"`
	Components int          `json:"components"`
	Segments   [][4]float64 `json:"segments"` // x1, y1, x2, y2
}

// Snapshot copies the particles, trails and explosions for a renderer
func (s *State) Snapshot() Frame {
	f := Frame{
		Frame:       s.frame,
		GridVersion: s.version,
		Particles:   make([]ParticleView, 0, s.engine.Len()),
		Trails:      make([]TrailView, 0, len(s.ledger.Trails())),
		Explosions:  make([]ExplosionView, 0, len(s.ledger.Explosions())),
	}

	for _, p := range s.engine.Particles() {
		pos := p.Position()
		f.Particles = append(f.Particles, ParticleView{ID: p.ID, X: pos.X, Y: pos.Y})
	}
	for _, t := range s.ledger.Trails() {
		f.Trails = append(f.Trails, TrailView{
			X1:       t.From.X,
			Y1:       t.From.Y,
			X2:       t.To.X,
			Y2:       t.To.Y,
			Progress: min(t.Progress, 1),
			Opacity:  t.Opacity,
		})
	}
	for _, e := range s.ledger.Explosions() {
		f.Explosions = append(f.Explosions, ExplosionView{
			X:       e.Center.X,
			Y:       e.Center.Y,
			Radius:  e.Radius,
			Opacity: e.Opacity,
		})
	}
	return f
}

// Lines returns the static edge list and styling of the current graph
func (s *State) Lines() GridLines {
	lines := GridLines{
		Version:    s.version,
		Width:      s.width,
		Height:     s.height,
		Shape:      s.opts.Shape.String(),
		CellSize:   s.opts.CellSize,
		LineColor:  s.opts.LineColor,
		LineWidth:  s.opts.LineWidth,
		LightColor: s.opts.LightColor,
		Nodes:      len(s.graph.Nodes),
		Components: s.components,
		Segments:   make([][4]float64, 0, len(s.graph.Edges)),
	}
	for _, e := range s.graph.Edges {
		lines.Segments = append(lines.Segments, [4]float64{e.A.X, e.A.Y, e.B.X, e.B.Y})
	}
	return lines
}
