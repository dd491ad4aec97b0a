package editor

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/pseng/MyH5P-pages/pkg/graph"
)

const (
	defaultNodeColor = "#64748b"
	selectedStroke   = "#f59e0b"
	linkStroke       = "#94a3b8"
	minimapMargin    = 12.0
)

// SVG renders what the canvas currently shows: the graph under the camera, the selection,
// the link being drawn, and the minimap in the bottom-right corner.
func (s *Session) SVG() string {
	var b strings.Builder
	vp := s.viewport
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(vp.X), num(vp.Y), num(vp.X), num(vp.Y))
	b.WriteString(`<rect width="100%" height="100%" fill="#f8fafc"/>`)

	fmt.Fprintf(&b, `<g transform="scale(%s) translate(%s %s)">`,
		num(s.camera.Zoom), num(-s.camera.X), num(-s.camera.Y))
	s.writeLinks(&b)
	s.writeNodes(&b)
	if t, ok := s.Transient(); ok {
		fmt.Fprintf(&b, `<path class="transient" d="%s" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="6 4"/>`,
			t.Curve.SVGPath(), selectedStroke)
	}
	b.WriteString(`</g>`)

	s.writeMinimap(&b)
	b.WriteString(`</svg>`)
	return b.String()
}

func (s *Session) writeLinks(b *strings.Builder) {
	for _, c := range s.model.Connections() {
		curve, ok := ConnectionCurve(s.model, c)
		if !ok {
			continue
		}
		stroke := linkStroke
		if s.sel.Connection != nil && *s.sel.Connection == c {
			stroke = selectedStroke
		}
		fmt.Fprintf(b, `<path class="link" data-from="%s" data-port="%s" d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
			attr(c.From), attr(c.FromPort), curve.SVGPath(), stroke)
	}
}

func (s *Session) writeNodes(b *strings.Builder) {
	for _, n := range s.model.Nodes() {
		def := nodeDef(s.model, n)
		r := NodeRect(n, def)
		color := def.Color
		if color == "" {
			color = defaultNodeColor
		}
		stroke := "#cbd5e1"
		if s.sel.NodeID == n.ID {
			stroke = selectedStroke
		}

		fmt.Fprintf(b, `<g class="node" data-id="%s" data-type="%s">`, attr(n.ID), attr(n.Type))
		fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" rx="6" fill="#ffffff" stroke="%s" stroke-width="2"/>`,
			num(r.X), num(r.Y), num(r.W), num(r.H), stroke)
		fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" rx="6" fill="%s"/>`,
			num(r.X), num(r.Y), num(r.W), num(NodeHeaderHeight), attr(color))
		fmt.Fprintf(b, `<text x="%s" y="%s" font-size="13" fill="#ffffff">%s</text>`,
			num(r.X+10), num(r.Y+21), html.EscapeString(truncate(n.DisplayTitle(&def), 24)))

		for _, port := range def.Inputs {
			p, _ := InputPortPos(n, def, port)
			writePort(b, p, port, "in", "start", 10)
		}
		for _, port := range def.Outputs {
			p, _ := OutputPortPos(n, def, port)
			writePort(b, p, port, "out", "end", -10)
		}
		b.WriteString(`</g>`)
	}
}

func writePort(b *strings.Builder, p Point, name, class, anchor string, dx float64) {
	fmt.Fprintf(b, `<circle class="port %s" data-port="%s" cx="%s" cy="%s" r="%s" fill="#ffffff" stroke="#475569"/>`,
		class, attr(name), num(p.X), num(p.Y), num(PortRadius))
	fmt.Fprintf(b, `<text x="%s" y="%s" font-size="10" text-anchor="%s" fill="#475569">%s</text>`,
		num(p.X+dx), num(p.Y+3), anchor, html.EscapeString(name))
}

func (s *Session) writeMinimap(b *strings.Builder) {
	mm := s.Minimap()
	ox := s.viewport.X - mm.Width - minimapMargin
	oy := s.viewport.Y - mm.Height - minimapMargin
	fmt.Fprintf(b, `<g class="minimap" transform="translate(%s %s)">`, num(ox), num(oy))
	fmt.Fprintf(b, `<rect width="%s" height="%s" fill="#ffffff" stroke="#cbd5e1"/>`, num(mm.Width), num(mm.Height))
	for _, l := range mm.Links {
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>`,
			num(l.From.X), num(l.From.Y), num(l.To.X), num(l.To.Y), linkStroke)
	}
	for _, n := range mm.Nodes {
		color := n.Color
		if color == "" {
			color = defaultNodeColor
		}
		fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
			num(n.Rect.X), num(n.Rect.Y), num(n.Rect.W), num(n.Rect.H), attr(color))
	}
	fmt.Fprintf(b, `<rect class="viewport" x="%s" y="%s" width="%s" height="%s" fill="none" stroke="%s"/>`,
		num(mm.Viewport.X), num(mm.Viewport.Y), num(mm.Viewport.W), num(mm.Viewport.H), selectedStroke)
	b.WriteString(`</g>`)
}

// FitSVG renders a whole graph fitted to its bounds, with no selection or gesture.
func FitSVG(model *graph.Model) string {
	nodes := model.Nodes()
	if len(nodes) == 0 {
		return NewSession(model).SVG()
	}
	bounds := NodeRect(nodes[0], nodeDef(model, nodes[0]))
	for _, n := range nodes[1:] {
		bounds = bounds.Union(NodeRect(n, nodeDef(model, n)))
	}
	bounds = bounds.Inset(MinimapPadding)

	fit := NewSession(model, WithViewport(bounds.W, bounds.H), WithCamera(Camera{X: bounds.X, Y: bounds.Y, Zoom: 1}))
	return fit.SVG()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(s string) string {
	return html.EscapeString(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
