package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// PathStatus is the publication state of a path.
type PathStatus string

const (
	StatusDraft     PathStatus = "draft"
	StatusPublished PathStatus = "published"
)

// Position is an authoring-layout coordinate. It carries no semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PathNode is one step of a learning path.
type PathNode struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Data map[string]any `json:"data"`
}

// Position returns the layout coordinate of the node.
func (n PathNode) Position() Position {
	return Position{X: n.X, Y: n.Y}
}

// StringField returns a data value as a trimmed string, or "" when absent or not textual.
func (n PathNode) StringField(name string) string {
	if n.Data == nil {
		return ""
	}
	switch v := n.Data[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// DisplayTitle resolves the label shown for a node: its "title" field,
// then the type label, then the node id.
func (n PathNode) DisplayTitle(def *NodeTypeDefinition) string {
	if title := n.StringField("title"); title != "" {
		return title
	}
	if def != nil && def.Label != "" {
		return def.Label
	}
	return n.ID
}

// Connection is a directed port-to-port edge.
type Connection struct {
	From     string `json:"from"`
	FromPort string `json:"fromPort"`
	To       string `json:"to"`
	ToPort   string `json:"toPort"`
}

// Touches reports whether the connection references nodeID on either end.
func (c Connection) Touches(nodeID string) bool {
	return c.From == nodeID || c.To == nodeID
}

// LRSConfig locates the record store that receives statements for a path.
type LRSConfig struct {
	Endpoint string `json:"endpoint" validate:"omitempty,url"`
	Key      string `json:"key"`
	Secret   string `json:"secret"`
}

// Configured reports whether an endpoint is set.
func (c *LRSConfig) Configured() bool {
	return c != nil && strings.TrimSpace(c.Endpoint) != ""
}

// LearningPath is the unit of persistence and the unit of traversal.
type LearningPath struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      PathStatus   `json:"status"`
	Nodes       []PathNode   `json:"nodes"`
	Connections []Connection `json:"connections"`
	LRSConfig   *LRSConfig   `json:"lrsConfig"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Node returns a pointer to the node with the given id, or nil.
// The pointer aliases the path's slice and is invalidated by node removal.
func (p *LearningPath) Node(id string) *PathNode {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i]
		}
	}
	return nil
}

// HasNode reports whether a node with the given id exists.
func (p *LearningPath) HasNode(id string) bool {
	return p.Node(id) != nil
}

// CountType returns how many nodes of the given type the path holds.
func (p *LearningPath) CountType(typeID string) int {
	n := 0
	for _, node := range p.Nodes {
		if node.Type == typeID {
			n++
		}
	}
	return n
}

// Outgoing returns the connections leaving nodeID, in document order.
func (p *LearningPath) Outgoing(nodeID string) []Connection {
	var out []Connection
	for _, c := range p.Connections {
		if c.From == nodeID {
			out = append(out, c)
		}
	}
	return out
}

// OutgoingOnPort returns the first connection leaving (nodeID, port).
func (p *LearningPath) OutgoingOnPort(nodeID, port string) (Connection, bool) {
	for _, c := range p.Connections {
		if c.From == nodeID && c.FromPort == port {
			return c, true
		}
	}
	return Connection{}, false
}

// Clone returns a deep copy of the path.
func (p *LearningPath) Clone() *LearningPath {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Nodes = make([]PathNode, len(p.Nodes))
	for i, n := range p.Nodes {
		cp.Nodes[i] = n
		cp.Nodes[i].Data = copyMap(n.Data)
	}
	cp.Connections = append([]Connection(nil), p.Connections...)
	if cp.Connections == nil {
		cp.Connections = []Connection{}
	}
	if p.LRSConfig != nil {
		cfg := *p.LRSConfig
		cp.LRSConfig = &cfg
	}
	return &cp
}

// Duplicate returns a copy under a new id with " (Copy)" appended to the title.
func (p *LearningPath) Duplicate(newID string, now time.Time) *LearningPath {
	cp := p.Clone()
	cp.ID = newID
	cp.Title = p.Title + " (Copy)"
	cp.CreatedAt = now
	cp.UpdatedAt = now
	return cp
}

// Summary projects the listing view of the path.
func (p *LearningPath) Summary() PathSummary {
	return PathSummary{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		NodeCount:   len(p.Nodes),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PathSummary is the listing view of a path.
type PathSummary struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      PathStatus `json:"status"`
	NodeCount   int        `json:"nodeCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewLearningPath returns an empty draft with the given identity.
func NewLearningPath(id string, now time.Time) *LearningPath {
	return &LearningPath{
		ID:          id,
		Title:       "Untitled Path",
		Status:      StatusDraft,
		Nodes:       []PathNode{},
		Connections: []Connection{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies the containers JSON decoding produces. Other values are shared.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// SortSummaries orders summaries by most recent update, then by id.
func SortSummaries(s []PathSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].ID < s[j].ID
	})
}

// Timestamp normalizes t to the precision every store keeps: UTC milliseconds.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
