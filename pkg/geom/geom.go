package geom

import (
	"fmt"
	"math"
)

// Precision is the number of quantization steps per pixel used for node keys.
// 100 keeps two decimal digits: enough to separate distinct lattice vertices and
// coarse enough to merge hexagon vertices that differ only by float drift.
const Precision = 100

// Point is a continuous coordinate in pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Lerp interpolates between a and b; t is not clamped
func Lerp(a, b Point, t float64) Point {
	return Point{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// Dist returns the euclidean distance between a and b
func Dist(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Quantize rounds a coordinate to the key grid
func Quantize(v float64) int64 {
	return int64(math.Round(v * Precision))
}

// NodeKey identifies a node by its quantized coordinate
type NodeKey struct {
	X, Y int64
}

// KeyOf returns the quantized key of p
func KeyOf(p Point) NodeKey {
	return NodeKey{X: Quantize(p.X), Y: Quantize(p.Y)}
}

// Less orders keys lexicographically, X first
func (k NodeKey) Less(o NodeKey) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	return k.Y < o.Y
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%.2f,%.2f", float64(k.X)/Precision, float64(k.Y)/Precision)
}

// EdgeKey identifies an undirected edge. A is never greater than B.
type EdgeKey struct {
	A, B NodeKey
}

// MakeEdgeKey builds the key for the edge between a and b regardless of direction
func MakeEdgeKey(a, b NodeKey) EdgeKey {
	if b.Less(a) {
		a, b = b, a
	}
	return EdgeKey{A: a, B: b}
}

func (k EdgeKey) String() string {
	return k.A.String() + "|" + k.B.String()
}

// MarshalText lets edge keys appear as JSON strings
func (k EdgeKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
