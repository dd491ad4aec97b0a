package dsl

import "github.com/pseng/MyH5P-pages/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.PathNode
	builder *Builder
}

// Set writes one data field.
func (n *NodeBuilder) Set(field string, value any) *NodeBuilder {
	if n.node.Data == nil {
		n.node.Data = make(map[string]any)
	}
	n.node.Data[field] = value
	return n
}

// Title sets the "title" field.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	return n.Set("title", title)
}

// At positions the node.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.X, n.node.Y = x, y
	return n
}

// Go connects the node's "next" port to the "prev" port of id.
func (n *NodeBuilder) Go(id string) *NodeBuilder {
	n.builder.Connect(n.node.ID, domain.PortNext, id, domain.PortPrev)
	return n
}

// Via connects a named output port to the "prev" port of id.
func (n *NodeBuilder) Via(port, id string) *NodeBuilder {
	n.builder.Connect(n.node.ID, port, id, domain.PortPrev)
	return n
}

// Done returns the path builder.
func (n *NodeBuilder) Done() *Builder {
	return n.builder
}
