package graph

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

// RejectReason explains why AddConnection refused an edge. The zero value means accepted.
type RejectReason string

const (
	Accepted            RejectReason = ""
	RejectDuplicate     RejectReason = "duplicate"
	RejectInputOccupied RejectReason = "input_occupied"
	RejectPortInUse     RejectReason = "output_in_use"
	RejectUnknownNode   RejectReason = "unknown_node"
	RejectUnknownPort   RejectReason = "unknown_port"
)

// Message returns a short author-facing description of the rejection.
func (r RejectReason) Message() string {
	switch r {
	case Accepted:
		return ""
	case RejectDuplicate:
		return "These ports are already connected"
	case RejectInputOccupied:
		return "That input already has a connection"
	case RejectPortInUse:
		return "That output already has a connection"
	case RejectUnknownNode:
		return "Connection references a missing node"
	case RejectUnknownPort:
		return "Ports are not compatible"
	default:
		return string(r)
	}
}

// Model is the authoritative graph of one learning path.
// Nodes and connections are only created and destroyed through its methods.
// A Model is not safe for concurrent use; callers serialize access (see pkg/session).
type Model struct {
	path     *domain.LearningPath
	reg      *registry.Registry
	newID    func() string
	metrics  *observability.Metrics
	logger   *slog.Logger
	revision uint64
}

// Option configures a Model.
type Option func(*Model)

// WithIDGenerator overrides node id generation.
func WithIDGenerator(fn func() string) Option {
	return func(m *Model) {
		m.newID = fn
	}
}

// WithMetrics records mutation outcomes.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Model) {
		m.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}

// New wraps a copy of path. The caller's document is never modified.
func New(path *domain.LearningPath, reg *registry.Registry, opts ...Option) *Model {
	m := &Model{
		path:   path.Clone(),
		reg:    reg,
		newID:  func() string { return "node-" + uuid.NewString()[:8] },
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.path.Nodes == nil {
		m.path.Nodes = []domain.PathNode{}
	}
	return m
}

// Path returns a snapshot of the current document.
func (m *Model) Path() *domain.LearningPath {
	return m.path.Clone()
}

// Registry returns the node-type catalog the model consults.
func (m *Model) Registry() *registry.Registry {
	return m.reg
}

// Revision increases on every successful mutation.
func (m *Model) Revision() uint64 {
	return m.revision
}

// Node returns a copy of a node.
func (m *Model) Node(id string) (domain.PathNode, bool) {
	n := m.path.Node(id)
	if n == nil {
		return domain.PathNode{}, false
	}
	cp := (&domain.LearningPath{Nodes: []domain.PathNode{*n}}).Clone()
	return cp.Nodes[0], true
}

// Nodes returns the nodes in document order. The slice must not be modified.
func (m *Model) Nodes() []domain.PathNode {
	return m.path.Nodes
}

// Connections returns the connections in document order. The slice must not be modified.
func (m *Model) Connections() []domain.Connection {
	return m.path.Connections
}

// AddNode creates a node of typeID at pos with field defaults.
// It returns a *domain.CapacityError when the type's instance cap is reached.
func (m *Model) AddNode(typeID string, pos domain.Position) (domain.PathNode, error) {
	def, err := m.reg.Lookup(typeID)
	if err != nil {
		m.metrics.Mutation("add_node", "rejected")
		return domain.PathNode{}, err
	}
	if def.MaxInstances > 0 && m.path.CountType(typeID) >= def.MaxInstances {
		m.metrics.Mutation("add_node", "rejected")
		return domain.PathNode{}, &domain.CapacityError{TypeID: def.ID, Label: def.Label, Limit: def.MaxInstances}
	}

	id := m.newID()
	for m.path.HasNode(id) {
		id = m.newID()
	}
	node := domain.PathNode{
		ID:   id,
		Type: typeID,
		X:    pos.X,
		Y:    pos.Y,
		Data: def.DefaultData(),
	}
	m.path.Nodes = append(m.path.Nodes, node)
	m.touch("add_node")
	m.logger.Debug("node added", "node_id", id, "type", typeID)

	out, _ := m.Node(id)
	return out, nil
}

// MoveNode updates a node's layout position.
func (m *Model) MoveNode(id string, pos domain.Position) error {
	n := m.path.Node(id)
	if n == nil {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	if n.X == pos.X && n.Y == pos.Y {
		return nil
	}
	n.X, n.Y = pos.X, pos.Y
	m.revision++
	return nil
}

// DeleteNode removes a node and every connection touching it.
// It returns the connections that were removed.
func (m *Model) DeleteNode(id string) ([]domain.Connection, error) {
	idx := -1
	for i, n := range m.path.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	nodes := make([]domain.PathNode, 0, len(m.path.Nodes)-1)
	nodes = append(nodes, m.path.Nodes[:idx]...)
	m.path.Nodes = append(nodes, m.path.Nodes[idx+1:]...)

	kept := make([]domain.Connection, 0, len(m.path.Connections))
	var removed []domain.Connection
	for _, c := range m.path.Connections {
		if c.Touches(id) {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	m.path.Connections = kept
	m.touch("delete_node")
	m.logger.Debug("node deleted", "node_id", id, "connections_removed", len(removed))
	return removed, nil
}

// CanConnect reports whether AddConnection would accept c, without mutating.
func (m *Model) CanConnect(c domain.Connection) RejectReason {
	from := m.path.Node(c.From)
	to := m.path.Node(c.To)
	if from == nil || to == nil {
		return RejectUnknownNode
	}
	fromDef, ok := m.reg.Get(from.Type)
	if !ok || !fromDef.HasOutput(c.FromPort) {
		return RejectUnknownPort
	}
	toDef, ok := m.reg.Get(to.Type)
	if !ok || !toDef.HasInput(c.ToPort) {
		return RejectUnknownPort
	}
	for _, existing := range m.path.Connections {
		if existing == c {
			return RejectDuplicate
		}
	}
	for _, existing := range m.path.Connections {
		if existing.To == c.To && existing.ToPort == c.ToPort {
			return RejectInputOccupied
		}
		if existing.From == c.From && existing.FromPort == c.FromPort {
			return RejectPortInUse
		}
	}
	return Accepted
}

// AddConnection adds an edge. A rejected edge leaves the graph unchanged.
func (m *Model) AddConnection(c domain.Connection) RejectReason {
	reason := m.CanConnect(c)
	if reason != Accepted {
		m.metrics.Mutation("add_connection", "rejected")
		m.logger.Debug("connection rejected", "from", c.From, "from_port", c.FromPort, "to", c.To, "to_port", c.ToPort, "reason", string(reason))
		return reason
	}
	m.path.Connections = append(m.path.Connections, c)
	m.touch("add_connection")
	return Accepted
}

// RemoveConnection removes an edge. It reports whether anything was removed.
func (m *Model) RemoveConnection(c domain.Connection) bool {
	for i, existing := range m.path.Connections {
		if existing == c {
			conns := make([]domain.Connection, 0, len(m.path.Connections)-1)
			conns = append(conns, m.path.Connections[:i]...)
			m.path.Connections = append(conns, m.path.Connections[i+1:]...)
			m.touch("remove_connection")
			return true
		}
	}
	return false
}

// UpdateNodeField writes value into a node's data map. No type coercion is applied.
func (m *Model) UpdateNodeField(id, field string, value any) error {
	n := m.path.Node(id)
	if n == nil {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	if n.Data == nil {
		n.Data = make(map[string]any)
	}
	n.Data[field] = value
	m.touch("update_field")
	return nil
}

// SetMeta updates document-level properties.
func (m *Model) SetMeta(title, description string, status domain.PathStatus) {
	m.path.Title = title
	m.path.Description = description
	if status != "" {
		m.path.Status = status
	}
	m.revision++
}

func (m *Model) touch(op string) {
	m.revision++
	m.metrics.Mutation(op, "ok")
}
