package editor

import (
	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// NodeView is a node with its resolved geometry.
type NodeView struct {
	domain.PathNode
	Title string `json:"title"`
	Rect  Rect   `json:"rect"`
	Color string `json:"color,omitempty"`
}

// LinkView is a connection with its drawn curve.
type LinkView struct {
	domain.Connection
	Curve Curve `json:"curve"`
}

// View is a serializable snapshot of everything a remote canvas draws.
type View struct {
	Revision  uint64         `json:"revision"`
	Mode      string         `json:"mode"`
	Camera    Camera         `json:"camera"`
	Viewport  Point          `json:"viewport"`
	Selection Selection      `json:"selection"`
	Nodes     []NodeView     `json:"nodes"`
	Links     []LinkView     `json:"links"`
	Transient *Transient     `json:"transient,omitempty"`
	Minimap   Minimap        `json:"minimap"`
	Panel     *PropertyPanel `json:"panel,omitempty"`
	Palette   []PaletteGroup `json:"palette"`
	Notices   []Notice       `json:"notices"`
}

// Snapshot captures the session for a client and drains pending notices.
func (s *Session) Snapshot() View {
	v := View{
		Revision:  s.model.Revision(),
		Mode:      s.mode.String(),
		Camera:    s.camera,
		Viewport:  s.viewport,
		Selection: s.sel,
		Nodes:     make([]NodeView, 0, len(s.model.Nodes())),
		Links:     make([]LinkView, 0, len(s.model.Connections())),
		Minimap:   s.Minimap(),
		Palette:   s.Palette(),
		Notices:   s.DrainNotices(),
	}
	if v.Notices == nil {
		v.Notices = []Notice{}
	}
	for _, n := range s.model.Nodes() {
		def := nodeDef(s.model, n)
		v.Nodes = append(v.Nodes, NodeView{PathNode: n, Title: n.DisplayTitle(&def), Rect: NodeRect(n, def), Color: def.Color})
	}
	for _, c := range s.model.Connections() {
		if curve, ok := ConnectionCurve(s.model, c); ok {
			v.Links = append(v.Links, LinkView{Connection: c, Curve: curve})
		}
	}
	if t, ok := s.Transient(); ok {
		v.Transient = &t
	}
	if p, ok := s.Panel(); ok {
		v.Panel = &p
	}
	return v
}
