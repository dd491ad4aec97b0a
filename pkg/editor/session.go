package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/graph"
)

// Mode is the active interaction state. Exactly one mode is active at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDraggingNode
	ModeDrawingConnection
	ModePanning
)

func (m Mode) String() string {
	switch m {
	case ModeDraggingNode:
		return "dragging_node"
	case ModeDrawingConnection:
		return "drawing_connection"
	case ModePanning:
		return "panning"
	default:
		return "idle"
	}
}

// Pointer buttons.
const (
	ButtonPrimary = 0
	ButtonMiddle  = 1
)

// DefaultViewport is the assumed canvas size until the client reports one.
var DefaultViewport = Point{X: 1200, Y: 800}

// Selection is the node or connection the property panel and delete key act on.
// At most one of NodeID and Connection is set.
type Selection struct {
	NodeID     string             `json:"nodeId,omitempty"`
	Connection *domain.Connection `json:"connection,omitempty"`
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.NodeID == "" && s.Connection == nil
}

// Transient is the link being drawn, from a source port to the live pointer position.
type Transient struct {
	FromNode string `json:"fromNode"`
	FromPort string `json:"fromPort"`
	Curve    Curve  `json:"curve"`
}

type dragState struct {
	nodeID string
	offset Point // pointer world position minus node position
	moved  bool
}

type panState struct {
	last Point // last pointer screen position
}

type connectState struct {
	fromNode string
	fromPort string
	start    Point
	end      Point
}

// Session is one author's interactive editing state over a graph model.
// It owns the camera, the selection and the active gesture; the model is the only
// thing it mutates. A Session is not safe for concurrent use.
type Session struct {
	model    *graph.Model
	camera   Camera
	viewport Point
	mode     Mode
	sel      Selection

	drag    dragState
	pan     panState
	connect connectState

	notices []Notice
	mini    *minimapCache
	logger  *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithCamera sets the initial camera.
func WithCamera(c Camera) Option {
	return func(s *Session) {
		c.Zoom = ClampZoom(c.Zoom)
		s.camera = c
	}
}

// WithViewport sets the canvas size in screen pixels.
func WithViewport(w, h float64) Option {
	return func(s *Session) {
		s.viewport = Point{X: w, Y: h}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession starts an editing session in Idle with no selection.
func NewSession(model *graph.Model, opts ...Option) *Session {
	s := &Session{
		model:    model,
		camera:   DefaultCamera(),
		viewport: DefaultViewport,
		logger:   logging.NewNop(),
		mini:     &minimapCache{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the graph being edited.
func (s *Session) Model() *graph.Model { return s.model }

// Camera returns the current camera.
func (s *Session) Camera() Camera { return s.camera }

// Viewport returns the canvas size in screen pixels.
func (s *Session) Viewport() Point { return s.viewport }

// Mode returns the active interaction state.
func (s *Session) Mode() Mode { return s.mode }

// Selection returns the current selection.
func (s *Session) Selection() Selection { return s.sel }

// Transient returns the link being drawn, if any.
func (s *Session) Transient() (Transient, bool) {
	if s.mode != ModeDrawingConnection {
		return Transient{}, false
	}
	return Transient{
		FromNode: s.connect.fromNode,
		FromPort: s.connect.fromPort,
		Curve:    NewCurve(s.connect.start, s.connect.end),
	}, true
}

// Resize records a new canvas size.
func (s *Session) Resize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	s.viewport = Point{X: w, Y: h}
}

// PointerDown starts a gesture at a screen position. Any gesture still in progress is
// cancelled first, so a lost pointer-up never leaves the session stuck.
func (s *Session) PointerDown(screen Point, button int) {
	s.cancelGesture()
	if button == ButtonMiddle {
		s.beginPan(screen)
		return
	}

	world := s.camera.ToWorld(screen)
	hit := HitTest(s.model, world)
	switch hit.Kind {
	case HitOutputPort:
		s.mode = ModeDrawingConnection
		start, _ := s.portPos(hit.NodeID, hit.Port)
		s.connect = connectState{fromNode: hit.NodeID, fromPort: hit.Port, start: start, end: world}
	case HitNode, HitInputPort:
		s.selectNode(hit.NodeID)
		n, _ := s.model.Node(hit.NodeID)
		s.mode = ModeDraggingNode
		s.drag = dragState{nodeID: hit.NodeID, offset: world.Sub(Point{X: n.X, Y: n.Y})}
	case HitConnection:
		c := hit.Connection
		s.sel = Selection{Connection: &c}
	default:
		s.sel = Selection{}
		s.beginPan(screen)
	}
}

// PointerMove advances the active gesture.
func (s *Session) PointerMove(screen Point) {
	switch s.mode {
	case ModeDraggingNode:
		world := s.camera.ToWorld(screen)
		pos := SnapPoint(world.Sub(s.drag.offset))
		if err := s.model.MoveNode(s.drag.nodeID, domain.Position{X: pos.X, Y: pos.Y}); err != nil {
			// The node vanished under the pointer.
			s.cancelGesture()
			return
		}
		s.drag.moved = true
	case ModeDrawingConnection:
		s.connect.end = s.camera.ToWorld(screen)
	case ModePanning:
		s.camera = s.camera.Pan(screen.Sub(s.pan.last))
		s.pan.last = screen
	case ModeIdle:
	}
}

// PointerUp ends the active gesture. Finishing a link over an input port tries to connect;
// anywhere else the transient link is discarded.
func (s *Session) PointerUp(screen Point) {
	defer s.cancelGesture()
	if s.mode != ModeDrawingConnection {
		return
	}

	hit := HitTest(s.model, s.camera.ToWorld(screen))
	if hit.Kind != HitInputPort {
		return
	}
	if hit.NodeID == s.connect.fromNode {
		s.notify(NoticeWarning, "A node cannot connect to itself")
		return
	}
	c := domain.Connection{From: s.connect.fromNode, FromPort: s.connect.fromPort, To: hit.NodeID, ToPort: hit.Port}
	if reason := s.model.AddConnection(c); reason != graph.Accepted {
		s.notify(NoticeWarning, reason.Message())
		return
	}
	s.logger.Debug("connection added", "from", c.From, "to", c.To)
}

// Wheel zooms around the pointer: the world point under it stays put.
func (s *Session) Wheel(screen Point, deltaY float64) {
	s.camera = s.camera.ZoomAt(screen, WheelFactor(deltaY))
}

// Drop adds a node of typeID centred on a screen position, snapped to the grid,
// and selects it. Capacity and unknown-type failures become notices.
func (s *Session) Drop(typeID string, screen Point) (domain.PathNode, bool) {
	s.cancelGesture()
	def, ok := s.model.Registry().Get(typeID)
	if !ok {
		s.notify(NoticeError, fmt.Sprintf("Unknown node type %q", typeID))
		return domain.PathNode{}, false
	}
	world := s.camera.ToWorld(screen)
	pos := SnapPoint(world.Sub(Point{X: NodeWidth / 2, Y: NodeHeight(def) / 2}))

	n, err := s.model.AddNode(typeID, domain.Position{X: pos.X, Y: pos.Y})
	if err != nil {
		var capErr *domain.CapacityError
		if errors.As(err, &capErr) {
			s.notify(NoticeWarning, capitalize(capErr.Error()))
		} else {
			s.notify(NoticeError, err.Error())
		}
		return domain.PathNode{}, false
	}
	s.selectNode(n.ID)
	return n, true
}

// KeyDown handles editor shortcuts: Delete/Backspace remove the selection, Escape
// cancels the gesture and clears it. Other keys are ignored.
func (s *Session) KeyDown(key string) {
	switch key {
	case "Delete", "Backspace":
		s.DeleteSelected()
	case "Escape":
		s.cancelGesture()
		s.sel = Selection{}
	}
}

// DeleteSelected removes the selected node (with its links) or link and returns to Idle
// with no selection. It reports whether anything was removed.
func (s *Session) DeleteSelected() bool {
	s.cancelGesture()
	sel := s.sel
	s.sel = Selection{}
	switch {
	case sel.NodeID != "":
		removed, err := s.model.DeleteNode(sel.NodeID)
		if err != nil {
			return false
		}
		s.logger.Debug("node deleted", "node_id", sel.NodeID, "connections", len(removed))
		return true
	case sel.Connection != nil:
		return s.model.RemoveConnection(*sel.Connection)
	}
	return false
}

// Select selects a node by id, or clears the selection for "".
func (s *Session) Select(nodeID string) error {
	if nodeID == "" {
		s.sel = Selection{}
		return nil
	}
	if _, ok := s.model.Node(nodeID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	s.selectNode(nodeID)
	return nil
}

// UpdateSelectedField writes a field of the selected node.
func (s *Session) UpdateSelectedField(field string, value any) error {
	if s.sel.NodeID == "" {
		return fmt.Errorf("%w: nothing selected", domain.ErrNodeNotFound)
	}
	return s.model.UpdateNodeField(s.sel.NodeID, field, value)
}

// RemoveConnection removes a link directly, e.g. from a context menu.
func (s *Session) RemoveConnection(c domain.Connection) bool {
	if s.sel.Connection != nil && *s.sel.Connection == c {
		s.sel = Selection{}
	}
	return s.model.RemoveConnection(c)
}

// CenterOn scrolls the camera so a world point sits in the middle of the canvas.
func (s *Session) CenterOn(world Point) {
	s.camera = s.camera.CenterOn(world, s.viewport)
}

// SetZoom sets an absolute zoom level around the canvas centre.
func (s *Session) SetZoom(z float64) {
	center := s.viewport.Scale(0.5)
	s.camera = s.camera.ZoomAt(center, ClampZoom(z)/s.camera.Zoom)
}

func (s *Session) beginPan(screen Point) {
	s.mode = ModePanning
	s.pan = panState{last: screen}
}

func (s *Session) selectNode(id string) {
	s.sel = Selection{NodeID: id}
}

func (s *Session) cancelGesture() {
	s.mode = ModeIdle
	s.drag = dragState{}
	s.pan = panState{}
	s.connect = connectState{}
}

func (s *Session) portPos(nodeID, port string) (Point, bool) {
	n, ok := s.model.Node(nodeID)
	if !ok {
		return Point{}, false
	}
	return OutputPortPos(n, nodeDef(s.model, n), port)
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	b := []byte(msg)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
