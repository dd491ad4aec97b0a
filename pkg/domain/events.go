package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter    EventType = "node_enter"
	EventNodeLeave    EventType = "node_leave"
	EventPathComplete EventType = "path_complete"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	PathID    string    `json:"path_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string     `json:"node_id"`
	NodeType string     `json:"node_type"`
	Status   NodeStatus `json:"status"`
}

// PathEvent represents a whole-path milestone.
type PathEvent struct {
	EventBase
	Progress float64 `json:"progress"`
}

// LifecycleHooks defines callbacks for traversal observability.
type LifecycleHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnNodeLeave    func(context.Context, *NodeEvent)
	OnPathComplete func(context.Context, *PathEvent)
}
