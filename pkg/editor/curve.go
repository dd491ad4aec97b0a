package editor

import (
	"fmt"
	"math"
)

// minControlOffset keeps short or backward links visibly curved.
const minControlOffset = 50.0

// Curve is a cubic bezier from an output port to an input port.
type Curve struct {
	From Point `json:"from"`
	C1   Point `json:"c1"`
	C2   Point `json:"c2"`
	To   Point `json:"to"`
}

// NewCurve builds the horizontal-tangent curve used for every link.
func NewCurve(from, to Point) Curve {
	dx := math.Max(minControlOffset, math.Abs(to.X-from.X)/2)
	return Curve{
		From: from,
		C1:   Point{X: from.X + dx, Y: from.Y},
		C2:   Point{X: to.X - dx, Y: to.Y},
		To:   to,
	}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.From.X + b*c.C1.X + d*c.C2.X + e*c.To.X,
		Y: a*c.From.Y + b*c.C1.Y + d*c.C2.Y + e*c.To.Y,
	}
}

// Distance approximates the shortest distance from p to the curve by sampling.
func (c Curve) Distance(p Point) float64 {
	const samples = 24
	best := math.Inf(1)
	prev := c.From
	for i := 1; i <= samples; i++ {
		cur := c.At(float64(i) / samples)
		best = math.Min(best, segmentDistance(p, prev, cur))
		prev = cur
	}
	return best
}

// SVGPath renders the curve as an SVG path "d" attribute.
func (c Curve) SVGPath() string {
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		num(c.From.X), num(c.From.Y),
		num(c.C1.X), num(c.C1.Y),
		num(c.C2.X), num(c.C2.Y),
		num(c.To.X), num(c.To.Y))
}

func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(a.Add(ab.Scale(t)))
}
