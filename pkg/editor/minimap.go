package editor

import (
	"math"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// Minimap size in screen pixels and the world-space padding around the node bounds.
const (
	MinimapWidth   = 200.0
	MinimapHeight  = 140.0
	MinimapPadding = 50.0
)

// MiniNode is a node drawn in minimap space.
type MiniNode struct {
	ID    string `json:"id"`
	Rect  Rect   `json:"rect"`
	Color string `json:"color,omitempty"`
}

// MiniLink is a connection drawn as a straight segment in minimap space.
type MiniLink struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// Minimap is a proportional miniature of the graph with the camera viewport overlaid.
type Minimap struct {
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Bounds   Rect       `json:"bounds"` // world rectangle the miniature covers
	Scale    float64    `json:"scale"`  // minimap pixels per world unit
	Offset   Point      `json:"offset"` // centring margin in minimap pixels
	Nodes    []MiniNode `json:"nodes"`
	Links    []MiniLink `json:"links"`
	Viewport Rect       `json:"viewport"`
}

// Project maps a world point into minimap space.
func (m Minimap) Project(world Point) Point {
	return Point{
		X: (world.X-m.Bounds.X)*m.Scale + m.Offset.X,
		Y: (world.Y-m.Bounds.Y)*m.Scale + m.Offset.Y,
	}
}

// Unproject maps a minimap point back into world space.
func (m Minimap) Unproject(p Point) Point {
	return Point{
		X: (p.X-m.Offset.X)/m.Scale + m.Bounds.X,
		Y: (p.Y-m.Offset.Y)/m.Scale + m.Bounds.Y,
	}
}

func (m Minimap) projectRect(r Rect) Rect {
	p := m.Project(Point{X: r.X, Y: r.Y})
	return Rect{X: p.X, Y: p.Y, W: r.W * m.Scale, H: r.H * m.Scale}
}

type minimapKey struct {
	revision uint64
	camera   Camera
	viewport Point
}

type minimapCache struct {
	key   minimapKey
	valid bool
	value Minimap
}

// Minimap returns the miniature for the current graph and camera. It is recomputed
// whenever the graph revision, the camera or the viewport changed since the last call.
func (s *Session) Minimap() Minimap {
	key := minimapKey{revision: s.model.Revision(), camera: s.camera, viewport: s.viewport}
	if s.mini.valid && s.mini.key == key {
		return s.mini.value
	}
	s.mini.value = s.computeMinimap()
	s.mini.key = key
	s.mini.valid = true
	return s.mini.value
}

// NavigateMinimap centres the camera on the world point under a minimap click.
func (s *Session) NavigateMinimap(p Point) {
	s.CenterOn(s.Minimap().Unproject(p))
}

func (s *Session) computeMinimap() Minimap {
	visible := s.camera.Visible(s.viewport)
	nodes := s.model.Nodes()

	bounds := visible
	if len(nodes) > 0 {
		bounds = NodeRect(nodes[0], nodeDef(s.model, nodes[0]))
		for _, n := range nodes[1:] {
			bounds = bounds.Union(NodeRect(n, nodeDef(s.model, n)))
		}
		bounds = bounds.Inset(MinimapPadding)
	}

	scale := math.Min(MinimapWidth/bounds.W, MinimapHeight/bounds.H)
	mm := Minimap{
		Width:  MinimapWidth,
		Height: MinimapHeight,
		Bounds: bounds,
		Scale:  scale,
		Offset: Point{
			X: (MinimapWidth - bounds.W*scale) / 2,
			Y: (MinimapHeight - bounds.H*scale) / 2,
		},
		Nodes: make([]MiniNode, 0, len(nodes)),
		Links: make([]MiniLink, 0, len(s.model.Connections())),
	}

	centers := make(map[string]domain.PathNode, len(nodes))
	for _, n := range nodes {
		def := nodeDef(s.model, n)
		mm.Nodes = append(mm.Nodes, MiniNode{ID: n.ID, Rect: mm.projectRect(NodeRect(n, def)), Color: def.Color})
		centers[n.ID] = n
	}
	for _, c := range s.model.Connections() {
		from, ok1 := centers[c.From]
		to, ok2 := centers[c.To]
		if !ok1 || !ok2 {
			continue
		}
		mm.Links = append(mm.Links, MiniLink{
			From: mm.Project(NodeRect(from, nodeDef(s.model, from)).Center()),
			To:   mm.Project(NodeRect(to, nodeDef(s.model, to)).Center()),
		})
	}
	mm.Viewport = mm.projectRect(visible)
	return mm
}
