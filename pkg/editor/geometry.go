package editor

import (
	"math"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// Node box metrics, in world units.
const (
	NodeWidth        = 180.0
	NodeHeaderHeight = 32.0
	PortSpacing      = 24.0
	NodePadding      = 8.0
	PortRadius       = 7.0
	// PortHitRadius is more forgiving than the drawn radius.
	PortHitRadius = 12.0
	// GridSize is the snapping increment for dragged and dropped nodes.
	GridSize = 20.0
)

// Point is a 2-D coordinate, in world or screen space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p * k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Rect is an axis-aligned rectangle.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Union returns the smallest rectangle covering r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Inset grows r by d on every side; negative d shrinks it.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// NodeHeight returns the box height for a node type; the box grows with its port rows.
func NodeHeight(def domain.NodeTypeDefinition) float64 {
	rows := max(len(def.Inputs), len(def.Outputs), 1)
	return NodeHeaderHeight + float64(rows)*PortSpacing + NodePadding
}

// NodeRect returns the world-space box of a node.
func NodeRect(n domain.PathNode, def domain.NodeTypeDefinition) Rect {
	return Rect{X: n.X, Y: n.Y, W: NodeWidth, H: NodeHeight(def)}
}

// InputPortPos returns the world position of an input port on the node's left edge.
func InputPortPos(n domain.PathNode, def domain.NodeTypeDefinition, port string) (Point, bool) {
	for i, p := range def.Inputs {
		if p == port {
			return Point{X: n.X, Y: portY(n, i)}, true
		}
	}
	return Point{}, false
}

// OutputPortPos returns the world position of an output port on the node's right edge.
func OutputPortPos(n domain.PathNode, def domain.NodeTypeDefinition, port string) (Point, bool) {
	for i, p := range def.Outputs {
		if p == port {
			return Point{X: n.X + NodeWidth, Y: portY(n, i)}, true
		}
	}
	return Point{}, false
}

func portY(n domain.PathNode, row int) float64 {
	return n.Y + NodeHeaderHeight + float64(row)*PortSpacing + PortSpacing/2
}

// Snap rounds v to the nearest grid increment.
func Snap(v float64) float64 {
	return math.Round(v/GridSize) * GridSize
}

// SnapPoint snaps both coordinates of p.
func SnapPoint(p Point) Point {
	return Point{X: Snap(p.X), Y: Snap(p.Y)}
}
