package traversal

import (
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

// Order is the learner-facing sequence of node ids. The Start node is never part of it.
type Order struct {
	IDs []string `json:"order"`
	// Truncated is set when the walk stopped because it reached an already visited node.
	Truncated   bool   `json:"truncated"`
	RevisitedAt string `json:"revisitedAt,omitempty"`
}

// Linearize walks from the node playing the start role along each node's primary output port.
// A path without exactly one such node yields an empty order.
func Linearize(path *domain.LearningPath, reg *registry.Registry) Order {
	var start *domain.PathNode
	for i := range path.Nodes {
		if reg.RoleOf(path.Nodes[i].Type) != domain.RoleStart {
			continue
		}
		if start != nil {
			return Order{IDs: []string{}}
		}
		start = &path.Nodes[i]
	}
	if start == nil {
		return Order{IDs: []string{}}
	}

	visited := map[string]bool{start.ID: true}
	order := walk(path, reg, start.ID, visited)
	return order
}

// walk follows primary ports from the node after fromID, never re-entering a visited id.
func walk(path *domain.LearningPath, reg *registry.Registry, fromID string, visited map[string]bool) Order {
	out := Order{IDs: []string{}}
	current := fromID
	for {
		next, ok := primaryNext(path, reg, current)
		if !ok {
			return out
		}
		if visited[next] {
			out.Truncated = true
			out.RevisitedAt = next
			return out
		}
		visited[next] = true
		out.IDs = append(out.IDs, next)
		current = next
	}
}

func primaryNext(path *domain.LearningPath, reg *registry.Registry, nodeID string) (string, bool) {
	node := path.Node(nodeID)
	if node == nil {
		return "", false
	}
	port := domain.PortNext
	if def, ok := reg.Get(node.Type); ok {
		port = def.PrimaryOutput()
	}
	if port == "" {
		return "", false
	}
	conn, ok := path.OutgoingOnPort(nodeID, port)
	if !ok || !path.HasNode(conn.To) {
		return "", false
	}
	return conn.To, true
}
