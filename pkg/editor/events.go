package editor

import (
	"errors"
	"fmt"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// EventType names an input event delivered by a remote canvas.
type EventType string

const (
	EventPointerDown EventType = "pointerdown"
	EventPointerMove EventType = "pointermove"
	EventPointerUp   EventType = "pointerup"
	EventWheel       EventType = "wheel"
	EventDrop        EventType = "drop"
	EventKeyDown     EventType = "keydown"
	EventResize      EventType = "resize"
	EventSelect      EventType = "select"
	EventSetField    EventType = "field"
	EventDelete      EventType = "delete"
	EventUnlink      EventType = "unlink"
	EventMinimap     EventType = "minimap"
	EventZoom        EventType = "zoom"
)

// ErrUnknownEvent is returned for an unsupported event type.
var ErrUnknownEvent = errors.New("unknown editor event")

// Event is the wire form of one input event. Coordinates are screen pixels.
type Event struct {
	Type     EventType          `json:"type" validate:"required"`
	X        float64            `json:"x,omitempty"`
	Y        float64            `json:"y,omitempty"`
	Button   int                `json:"button,omitempty"`
	DeltaY   float64            `json:"deltaY,omitempty"`
	NodeType string             `json:"nodeType,omitempty"`
	Key      string             `json:"key,omitempty"`
	NodeID   string             `json:"nodeId,omitempty"`
	Field    string             `json:"field,omitempty"`
	Value    any                `json:"value,omitempty"`
	Width    float64            `json:"width,omitempty"`
	Height   float64            `json:"height,omitempty"`
	Zoom     float64            `json:"zoom,omitempty"`
	Link     *domain.Connection `json:"connection,omitempty"`
}

// Dispatch applies one event to the session.
func (s *Session) Dispatch(ev Event) error {
	at := Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case EventPointerDown:
		s.PointerDown(at, ev.Button)
	case EventPointerMove:
		s.PointerMove(at)
	case EventPointerUp:
		s.PointerUp(at)
	case EventWheel:
		s.Wheel(at, ev.DeltaY)
	case EventDrop:
		s.Drop(ev.NodeType, at)
	case EventKeyDown:
		s.KeyDown(ev.Key)
	case EventResize:
		s.Resize(ev.Width, ev.Height)
	case EventSelect:
		return s.Select(ev.NodeID)
	case EventSetField:
		if ev.Field == "" {
			return errors.New("field name is required")
		}
		return s.UpdateSelectedField(ev.Field, ev.Value)
	case EventDelete:
		s.DeleteSelected()
	case EventUnlink:
		if ev.Link == nil {
			return errors.New("connection is required")
		}
		s.RemoveConnection(*ev.Link)
	case EventMinimap:
		s.NavigateMinimap(at)
	case EventZoom:
		s.SetZoom(ev.Zoom)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}
