package grid

import (
	"math"
	"sort"

	"github.com/ritzau/gridlights/pkg/geom"
	"github.com/ritzau/gridlights/pkg/logging"
)

// Shape selects the tessellation
type Shape int

const (
	Square  Shape = 4
	Hexagon Shape = 6
)

// MaxNodes caps the lattice size; larger requests build an empty graph
const MaxNodes = 1 << 20

func (s Shape) String() string {
	switch s {
	case Square:
		return "square"
	case Hexagon:
		return "hexagon"
	default:
		return "unknown"
	}
}

// Build tessellates [0,width]x[0,height] with the given shape. Degenerate input
// yields an empty graph. Unknown shapes are built as squares.
func Build(shape Shape, cellSize, width, height float64) *Graph {
	if !positive(cellSize) || !positive(width) || !positive(height) {
		logging.Debug("degenerate grid request", "shape", shape.String(),
			"cellSize", cellSize, "width", width, "height", height)
		return NewGraph()
	}

	var g *Graph
	switch shape {
	case Hexagon:
		g = buildHex(cellSize, width, height)
	default:
		g = buildSquare(cellSize, width, height)
	}

	logging.Debug("grid built", "shape", shape.String(), "nodes", len(g.Nodes),
		"edges", len(g.Edges), "entries", len(g.EntryNodes))
	return g
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func buildSquare(cellSize, width, height float64) *Graph {
	// Cells per axis, one past the bounds; each axis has one more node than cells
	cols := int(math.Ceil(width/cellSize)) + 1
	rows := int(math.Ceil(height/cellSize)) + 1

	g := NewGraph()
	if float64(cols+1)*float64(rows+1) > MaxNodes {
		logging.Warn("square grid too large, skipping", "cols", cols, "rows", rows)
		return g
	}

	at := func(c, r int) geom.Point {
		return geom.Point{X: float64(c) * cellSize, Y: float64(r) * cellSize}
	}

	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			g.AddNode(at(c, r))
			if c < cols {
				g.AddEdge(at(c, r), at(c+1, r))
			}
			if r < rows {
				g.AddEdge(at(c, r), at(c, r+1))
			}
		}
	}

	for c := 0; c <= cols; c++ {
		if n, ok := g.Node(geom.KeyOf(at(c, 0))); ok {
			g.EntryNodes = append(g.EntryNodes, n)
		}
	}
	return g
}

func buildHex(cellSize, width, height float64) *Graph {
	size := cellSize / 2
	horiz := math.Sqrt(3) * size
	vert := 1.5 * size

	// One extra ring beyond the bounds so boundary hexagons are whole
	cols := int(math.Ceil(width/horiz)) + 2
	rows := int(math.Ceil(height/vert)) + 2

	g := NewGraph()
	if float64(cols)*float64(rows)*2 > MaxNodes {
		logging.Warn("hex grid too large, skipping", "cols", cols, "rows", rows)
		return g
	}

	for r := 0; r < rows; r++ {
		offset := 0.0
		if r%2 == 1 {
			offset = horiz / 2
		}
		for c := 0; c < cols; c++ {
			addHexagon(g, geom.Point{X: float64(c)*horiz + offset, Y: float64(r) * vert}, size)
		}
	}

	g.EntryNodes = topRow(g, size)
	return g
}

// hexVertex returns vertex i of the hexagon at center; vertex 0 points up
func hexVertex(center geom.Point, size float64, i int) geom.Point {
	angle := math.Pi / 180 * (60*float64(i) - 90)
	return geom.Point{
		X: center.X + size*math.Cos(angle),
		Y: center.Y + size*math.Sin(angle),
	}
}

func addHexagon(g *Graph, center geom.Point, size float64) {
	for i := 0; i < 6; i++ {
		g.AddEdge(hexVertex(center, size, i), hexVertex(center, size, (i+1)%6))
	}
}

// topRow returns nodes within tolerance of the minimum y, sorted by x
func topRow(g *Graph, tolerance float64) []*Node {
	if len(g.Nodes) == 0 {
		return nil
	}

	minY := g.Nodes[0].Y
	for _, n := range g.Nodes[1:] {
		minY = math.Min(minY, n.Y)
	}

	var entries []*Node
	for _, n := range g.Nodes {
		if n.Y <= minY+tolerance {
			entries = append(entries, n)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].X != entries[j].X {
			return entries[i].X < entries[j].X
		}
		return entries[i].Y < entries[j].Y
	})
	return entries
}
