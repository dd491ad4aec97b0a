package validator

import (
	"fmt"
	"strings"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

// Result is the outcome of a validation run. Errors make a path invalid; warnings do not.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validator checks path documents against a node-type catalog.
type Validator struct {
	reg     *registry.Registry
	metrics *observability.Metrics
}

// Option configures a Validator.
type Option func(*Validator)

// WithMetrics records validation outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

// New creates a Validator.
func New(reg *registry.Registry, opts ...Option) *Validator {
	v := &Validator{reg: reg}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks path. It never mutates the document.
func (v *Validator) Validate(path *domain.LearningPath) Result {
	res := Validate(path, v.reg)
	v.metrics.Validation(res.Valid)
	return res
}

// Validate checks path against reg and returns every problem found, in a stable order.
func Validate(path *domain.LearningPath, reg *registry.Registry) Result {
	c := &checker{path: path, reg: reg, errors: []string{}, warnings: []string{}}
	c.run()
	return Result{
		Valid:    len(c.errors) == 0,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
}

type checker struct {
	path     *domain.LearningPath
	reg      *registry.Registry
	errors   []string
	warnings []string
}

func (c *checker) errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func (c *checker) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *checker) run() {
	if len(c.path.Nodes) == 0 {
		c.errorf("Path must have at least one node")
		return
	}

	c.checkCardinality()
	c.checkNodes()
	c.checkConnections()
	c.checkFlow()
}

func (c *checker) title(n domain.PathNode) string {
	def, ok := c.reg.Get(n.Type)
	if !ok {
		return n.DisplayTitle(nil)
	}
	return n.DisplayTitle(&def)
}

// countRole counts the nodes whose type plays role.
func (c *checker) countRole(role domain.Role) int {
	n := 0
	for _, node := range c.path.Nodes {
		if c.reg.RoleOf(node.Type) == role {
			n++
		}
	}
	return n
}

func (c *checker) checkCardinality() {
	starts := c.countRole(domain.RoleStart)
	switch {
	case starts == 0:
		c.errorf("Path must have a Start node")
	case starts > 1:
		c.errorf("Path can only have one Start node")
	}
	if c.countRole(domain.RoleEnd) == 0 {
		c.errorf("Path must have an End node")
	}

	for _, def := range c.reg.Definitions() {
		if def.MaxInstances <= 0 || def.Behavior() == domain.RoleStart {
			continue
		}
		if n := c.path.CountType(def.ID); n > def.MaxInstances {
			c.errorf("%s", (&domain.CapacityError{TypeID: def.ID, Label: def.Label, Limit: def.MaxInstances}).Error())
		}
	}
}

func (c *checker) checkNodes() {
	seen := make(map[string]bool, len(c.path.Nodes))
	for _, n := range c.path.Nodes {
		if seen[n.ID] {
			c.errorf("Duplicate node id %q", n.ID)
		}
		seen[n.ID] = true

		def, ok := c.reg.Get(n.Type)
		if !ok {
			c.warnf("%s: unknown node type %q", n.DisplayTitle(nil), n.Type)
			continue
		}
		title := n.DisplayTitle(&def)
		for _, f := range def.Fields {
			if !f.Required || present(n.Data[f.Name]) {
				continue
			}
			label := f.Label
			if label == "" {
				label = f.Name
			}
			c.errorf("%s: %s is required", title, label)
		}
	}
}

func (c *checker) checkConnections() {
	occupied := make(map[string]bool)
	used := make(map[string]bool)
	for _, conn := range c.path.Connections {
		from := c.path.Node(conn.From)
		to := c.path.Node(conn.To)
		if from == nil {
			c.errorf("Connection references missing source node %q", conn.From)
		}
		if to == nil {
			c.errorf("Connection references missing target node %q", conn.To)
		}
		if from == nil || to == nil {
			continue
		}

		if def, ok := c.reg.Get(from.Type); ok && !def.HasOutput(conn.FromPort) {
			c.errorf("%s: unknown output port %q", c.title(*from), conn.FromPort)
		}
		if def, ok := c.reg.Get(to.Type); ok && !def.HasInput(conn.ToPort) {
			c.errorf("%s: unknown input port %q", c.title(*to), conn.ToPort)
		}

		in := conn.To + "\x00" + conn.ToPort
		if occupied[in] {
			c.errorf("%s: input %q has more than one incoming connection", c.title(*to), conn.ToPort)
		}
		occupied[in] = true

		out := conn.From + "\x00" + conn.FromPort
		if used[out] {
			c.warnf("%s: output %q has more than one connection; only the first is followed", c.title(*from), conn.FromPort)
		}
		used[out] = true
	}
}

// checkFlow crawls from the Start node, warning about cycles and unreachable nodes.
func (c *checker) checkFlow() {
	var start *domain.PathNode
	for i := range c.path.Nodes {
		if c.reg.RoleOf(c.path.Nodes[i].Type) == domain.RoleStart {
			if start != nil {
				return
			}
			start = &c.path.Nodes[i]
		}
	}
	if start == nil {
		return
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(c.path.Nodes))
	var cycles []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		for _, conn := range c.path.Outgoing(id) {
			if !c.path.HasNode(conn.To) {
				continue
			}
			switch color[conn.To] {
			case white:
				visit(conn.To)
			case grey:
				cycles = append(cycles, c.title(*c.path.Node(conn.To)))
			}
		}
		color[id] = black
	}
	visit(start.ID)

	for _, title := range cycles {
		c.warnf("Path loops back to %s; the learner order stops there", title)
	}

	var unreachable []string
	for _, n := range c.path.Nodes {
		if color[n.ID] == white {
			unreachable = append(unreachable, c.title(n))
		}
	}
	if len(unreachable) > 0 {
		c.warnf("Not reachable from Start: %s", strings.Join(unreachable, ", "))
	}
}

func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
