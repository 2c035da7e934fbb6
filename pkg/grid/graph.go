package grid

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/gridlights/pkg/geom"
)

// Node is a lattice vertex. Nodes are unique per quantized coordinate.
type Node struct {
	ID  int64 // Dense id, also the id in the gonum mirror
	X   float64
	Y   float64
	Key geom.NodeKey
}

// Point returns the node position
func (n *Node) Point() geom.Point {
	return geom.Point{X: n.X, Y: n.Y}
}

// Edge is an undirected connection between two nodes
type Edge struct {
	A   *Node
	B   *Node
	Key geom.EdgeKey
}

// Other returns the endpoint of e that is not n
func (e *Edge) Other(n *Node) *Node {
	if e.A == n {
		return e.B
	}
	return e.A
}

// Graph is a planar tessellation graph
type Graph struct {
	Nodes      []*Node
	Edges      []*Edge
	Adjacency  map[geom.NodeKey][]*Edge // Incident edges per node, maintained by AddEdge
	EntryNodes []*Node                  // Spawn points along the top boundary

	nodes map[geom.NodeKey]*Node
	edges map[geom.EdgeKey]*Edge
	topo  *simple.UndirectedGraph
}

// NewGraph creates a new empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes:     make([]*Node, 0),
		Edges:     make([]*Edge, 0),
		Adjacency: make(map[geom.NodeKey][]*Edge),
		nodes:     make(map[geom.NodeKey]*Node),
		edges:     make(map[geom.EdgeKey]*Edge),
		topo:      simple.NewUndirectedGraph(),
	}
}

// AddNode returns the node at p, creating it if no node shares its quantized key
func (g *Graph) AddNode(p geom.Point) *Node {
	key := geom.KeyOf(p)
	if n, exists := g.nodes[key]; exists {
		return n
	}

	n := &Node{
		ID:  int64(len(g.Nodes)),
		X:   p.X,
		Y:   p.Y,
		Key: key,
	}
	g.nodes[key] = n
	g.Nodes = append(g.Nodes, n)
	g.topo.AddNode(simple.Node(n.ID))
	return n
}

// AddEdge connects the nodes at a and b. Duplicate edges return the existing
// edge; an edge whose endpoints share a key is dropped and nil is returned.
func (g *Graph) AddEdge(a, b geom.Point) *Edge {
	na := g.AddNode(a)
	nb := g.AddNode(b)
	if na == nb {
		return nil
	}

	key := geom.MakeEdgeKey(na.Key, nb.Key)
	if e, exists := g.edges[key]; exists {
		return e
	}

	e := &Edge{A: na, B: nb, Key: key}
	g.edges[key] = e
	g.Edges = append(g.Edges, e)
	g.Adjacency[na.Key] = append(g.Adjacency[na.Key], e)
	g.Adjacency[nb.Key] = append(g.Adjacency[nb.Key], e)
	g.topo.SetEdge(g.topo.NewEdge(simple.Node(na.ID), simple.Node(nb.ID)))
	return e
}

// Node looks up a node by key
func (g *Graph) Node(key geom.NodeKey) (*Node, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// EdgeBetween returns the edge connecting a and b, if any
func (g *Graph) EdgeBetween(a, b *Node) (*Edge, bool) {
	e, ok := g.edges[geom.MakeEdgeKey(a.Key, b.Key)]
	return e, ok
}

// Incident returns the edges touching n
func (g *Graph) Incident(n *Node) []*Edge {
	return g.Adjacency[n.Key]
}

// Degree returns the number of edges touching n
func (g *Graph) Degree(n *Node) int {
	return len(g.Adjacency[n.Key])
}

// Empty reports whether the graph has no edges
func (g *Graph) Empty() bool {
	return len(g.Edges) == 0
}

// Components returns the number of connected components
func (g *Graph) Components() int {
	return len(topo.ConnectedComponents(g.topo))
}

// Connected reports whether every node is reachable from every other node
func (g *Graph) Connected() bool {
	return len(g.Nodes) > 0 && g.Components() == 1
}
