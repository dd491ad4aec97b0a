package editor

import (
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/graph"
)

// HitKind classifies what lies under a world point.
type HitKind int

const (
	HitNone HitKind = iota
	HitNode
	HitInputPort
	HitOutputPort
	HitConnection
)

func (k HitKind) String() string {
	switch k {
	case HitNode:
		return "node"
	case HitInputPort:
		return "input"
	case HitOutputPort:
		return "output"
	case HitConnection:
		return "connection"
	default:
		return "none"
	}
}

// connectionHitDistance is how close, in world units, a point must be to a link to hit it.
const connectionHitDistance = 6.0

// Hit is the result of a hit test.
type Hit struct {
	Kind       HitKind
	NodeID     string
	Port       string
	Connection domain.Connection
}

// HitTest finds the topmost element under a world point. Ports win over node bodies,
// node bodies over links. Later nodes are drawn on top and are tested first.
func HitTest(m *graph.Model, p Point) Hit {
	reg := m.Registry()
	nodes := m.Nodes()

	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		def, ok := reg.Get(n.Type)
		if !ok {
			continue
		}
		for _, port := range def.Outputs {
			if pos, _ := OutputPortPos(n, def, port); pos.Dist(p) <= PortHitRadius {
				return Hit{Kind: HitOutputPort, NodeID: n.ID, Port: port}
			}
		}
		for _, port := range def.Inputs {
			if pos, _ := InputPortPos(n, def, port); pos.Dist(p) <= PortHitRadius {
				return Hit{Kind: HitInputPort, NodeID: n.ID, Port: port}
			}
		}
	}

	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if NodeRect(n, nodeDef(m, n)).Contains(p) {
			return Hit{Kind: HitNode, NodeID: n.ID}
		}
	}

	for _, c := range m.Connections() {
		curve, ok := ConnectionCurve(m, c)
		if ok && curve.Distance(p) <= connectionHitDistance {
			return Hit{Kind: HitConnection, Connection: c}
		}
	}
	return Hit{Kind: HitNone}
}

// ConnectionCurve returns the drawn curve of c, or false when an endpoint cannot be placed.
func ConnectionCurve(m *graph.Model, c domain.Connection) (Curve, bool) {
	from, ok := m.Node(c.From)
	if !ok {
		return Curve{}, false
	}
	to, ok := m.Node(c.To)
	if !ok {
		return Curve{}, false
	}
	fromPos, ok := OutputPortPos(from, nodeDef(m, from), c.FromPort)
	if !ok {
		return Curve{}, false
	}
	toPos, ok := InputPortPos(to, nodeDef(m, to), c.ToPort)
	if !ok {
		return Curve{}, false
	}
	return NewCurve(fromPos, toPos), true
}

// nodeDef returns the node's type definition, or a bare definition labelled with the
// raw type id so unknown types still render as a box.
func nodeDef(m *graph.Model, n domain.PathNode) domain.NodeTypeDefinition {
	if def, ok := m.Registry().Get(n.Type); ok {
		return def
	}
	return domain.NodeTypeDefinition{ID: n.Type, Label: n.Type}
}
