package domain

import "time"

// NodeStatus is the runtime status of a node inside a learner session.
type NodeStatus string

const (
	NodePending   NodeStatus = "pending"
	NodeActive    NodeStatus = "active"
	NodeCompleted NodeStatus = "completed"
	NodePassed    NodeStatus = "passed"
	NodeFailed    NodeStatus = "failed"
)

// Done reports whether the status counts towards progress.
func (s NodeStatus) Done() bool {
	return s == NodeCompleted || s == NodePassed
}

// NodeProgress is the per-session state of one node. It is never persisted with the path.
type NodeProgress struct {
	Status    NodeStatus `json:"status"`
	Score     *float64   `json:"score,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

// Learner identifies the person walking a path.
type Learner struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}
