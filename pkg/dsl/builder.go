package dsl

import (
	"time"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// Builder manages the path construction.
type Builder struct {
	path  *domain.LearningPath
	nodes []*NodeBuilder
	index map[string]*NodeBuilder
}

// New creates a new path builder.
func New(id string) *Builder {
	return &Builder{
		path:  domain.NewLearningPath(id, time.Time{}),
		index: make(map[string]*NodeBuilder),
	}
}

// Title sets the path title.
func (b *Builder) Title(title string) *Builder {
	b.path.Title = title
	return b
}

// Description sets the path description.
func (b *Builder) Description(desc string) *Builder {
	b.path.Description = desc
	return b
}

// Published marks the path as published.
func (b *Builder) Published() *Builder {
	b.path.Status = domain.StatusPublished
	return b
}

// LRS attaches a record-store configuration.
func (b *Builder) LRS(endpoint, key, secret string) *Builder {
	b.path.LRSConfig = &domain.LRSConfig{Endpoint: endpoint, Key: key, Secret: secret}
	return b
}

// Add creates a new node in the path.
// If the node already exists, it returns the existing builder.
// Nodes are laid out left to right unless positioned with At.
func (b *Builder) Add(id, nodeType string) *NodeBuilder {
	if nb, ok := b.index[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.PathNode{
			ID:   id,
			Type: nodeType,
			X:    float64(100 + 220*len(b.nodes)),
			Y:    200,
		},
		builder: b,
	}
	b.nodes = append(b.nodes, nb)
	b.index[id] = nb
	return nb
}

// Node adds a node with raw data.
func (b *Builder) Node(id, nodeType string, data map[string]any) *Builder {
	nb := b.Add(id, nodeType)
	for k, v := range data {
		nb.Set(k, v)
	}
	return b
}

// Start adds a Start node.
func (b *Builder) Start(id string) *Builder {
	b.Add(id, domain.NodeTypeStart)
	return b
}

// End adds an End node.
func (b *Builder) End(id string) *Builder {
	b.Add(id, domain.NodeTypeEnd)
	return b
}

// Theory adds a Theory node with a title.
func (b *Builder) Theory(id, title string) *Builder {
	b.Add(id, domain.NodeTypeTheory).Title(title)
	return b
}

// Gate adds a Gate node with a title.
func (b *Builder) Gate(id, title string) *Builder {
	b.Add(id, domain.NodeTypeGate).Title(title)
	return b
}

// Branch adds a Branch node asking question.
func (b *Builder) Branch(id, question string) *Builder {
	b.Add(id, domain.NodeTypeBranch).Set("question", question)
	return b
}

// Connect adds a raw connection. Endpoints are not checked.
func (b *Builder) Connect(from, fromPort, to, toPort string) *Builder {
	b.path.Connections = append(b.path.Connections, domain.Connection{
		From: from, FromPort: fromPort, To: to, ToPort: toPort,
	})
	return b
}

// Chain links ids in sequence through next → prev.
func (b *Builder) Chain(ids ...string) *Builder {
	for i := 0; i+1 < len(ids); i++ {
		b.Connect(ids[i], domain.PortNext, ids[i+1], domain.PortPrev)
	}
	return b
}

// Build returns the assembled document.
func (b *Builder) Build() *domain.LearningPath {
	p := b.path.Clone()
	p.Nodes = make([]domain.PathNode, 0, len(b.nodes))
	for _, nb := range b.nodes {
		p.Nodes = append(p.Nodes, nb.node)
	}
	return p.Clone()
}
