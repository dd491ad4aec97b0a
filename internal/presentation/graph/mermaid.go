package graph

import (
	"fmt"
	"strings"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// GraphOverlay contains learner progress to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	FailedNodes  []string
	CurrentNode  string
}

// OverlayFromSession marks the nodes a session has completed, failed or is showing.
func OverlayFromSession(sess *traversal.Session) *GraphOverlay {
	o := &GraphOverlay{}
	for _, id := range sess.Order().IDs {
		p, ok := sess.NodeProgress(id)
		if !ok {
			continue
		}
		switch {
		case p.Status == domain.NodeFailed:
			o.FailedNodes = append(o.FailedNodes, id)
		case p.Status.Done():
			o.VisitedNodes = append(o.VisitedNodes, id)
		}
	}
	if n, ok := sess.Current(); ok && !sess.Finished() {
		o.CurrentNode = n.ID
	}
	return o
}

// GenerateMermaid produces a left-to-right Mermaid flowchart of path.
// It applies semantic styling:
// - Start/End: ((Circle))
// - Gate: {{Hexagon}}
// - Branch: {Rhombus}, edges labelled with the answer
// - Packaged content: [[Subroutine]]
// - Default: [Rectangle]
// Connections whose endpoints are missing are skipped.
// It also applies overlay styles (Visited/Failed/Current) if provided.
func GenerateMermaid(path *domain.LearningPath, reg *registry.Registry, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	defs := make(map[string]domain.NodeTypeDefinition, len(path.Nodes))
	for _, node := range path.Nodes {
		def, known := reg.Get(node.Type)
		defs[node.ID] = def

		opener, closer := "[", "]"
		role := reg.RoleOf(node.Type)
		switch {
		case role == domain.RoleStart || role == domain.RoleEnd:
			opener, closer = "((", "))"
		case role == domain.RoleGate:
			opener, closer = "{{", "}}"
		case role == domain.RoleBranch:
			opener, closer = "{", "}"
		case known && def.Category == domain.CategoryPackage:
			opener, closer = "[[", "]]"
		}

		var defPtr *domain.NodeTypeDefinition
		if known {
			defPtr = &def
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(node.ID), opener, escapeLabel(node.DisplayTitle(defPtr)), closer)
	}

	for _, c := range path.Connections {
		if !path.HasNode(c.From) || !path.HasNode(c.To) {
			continue
		}
		arrow := "-->"
		if label := edgeLabel(path.Node(c.From), defs[c.From], c.FromPort); label != "" {
			arrow = fmt.Sprintf("-->|\"%s\"|", escapeLabel(label))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", mermaidID(c.From), arrow, mermaidID(c.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		writeClass(&sb, path, overlay.VisitedNodes, "visited")
		writeClass(&sb, path, overlay.FailedNodes, "failed")
		if overlay.CurrentNode != "" && path.HasNode(overlay.CurrentNode) {
			fmt.Fprintf(&sb, "    class %s current;\n", mermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// writeClass styles each existing node once.
func writeClass(sb *strings.Builder, path *domain.LearningPath, ids []string, class string) {
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] || !path.HasNode(id) {
			continue
		}
		seen[id] = true
		fmt.Fprintf(sb, "    class %s %s;\n", mermaidID(id), class)
	}
}

// edgeLabel names non-default routes: branch answers use their configured label.
func edgeLabel(from *domain.PathNode, def domain.NodeTypeDefinition, port string) string {
	if port == def.PrimaryOutput() && len(def.Outputs) < 2 {
		return ""
	}
	switch port {
	case domain.PortPathA:
		if l := from.StringField("labelA"); l != "" {
			return l
		}
	case domain.PortPathB:
		if l := from.StringField("labelB"); l != "" {
			return l
		}
	}
	return port
}

// mermaidID prefixes ids so reserved words such as "end" stay usable.
func mermaidID(id string) string {
	var b strings.Builder
	b.WriteString("n_")
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
