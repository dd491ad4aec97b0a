package traversal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

var (
	// ErrNotStarted is returned by navigation before Start.
	ErrNotStarted = errors.New("session not started")
	// ErrFinished is returned by navigation after the End node was reached.
	ErrFinished = errors.New("session already finished")
	// ErrEmptyPath is returned by Start when the path has nothing to play.
	ErrEmptyPath = errors.New("path has no playable nodes")
	// ErrNotBranch is returned by ChooseBranch when the current node does not offer the port.
	ErrNotBranch = errors.New("current node does not offer that choice")
)

// Event is one tracking occurrence. An empty NodeID means the path itself.
type Event struct {
	Verb   domain.Verb
	NodeID string
	Result *domain.Result
}

// Emitter receives tracking events. Implementations must not block navigation.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev Event)

func (f EmitterFunc) Emit(ctx context.Context, ev Event) { f(ctx, ev) }

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, Event) {}

// Session walks one learner through one path. It is not safe for concurrent use.
type Session struct {
	id      string
	path    *domain.LearningPath
	reg     *registry.Registry
	order   Order
	pos     int
	status  map[string]*domain.NodeProgress
	started bool
	done    bool

	emitter Emitter
	hooks   domain.LifecycleHooks
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithEmitter routes tracking events.
func WithEmitter(e Emitter) Option {
	return func(s *Session) {
		s.emitter = e
	}
}

// WithLifecycleHooks registers node and path callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = h
	}
}

// WithMetrics counts started and completed sessions.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithID sets the session id.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// NewSession prepares a session over a copy of path. Every ordered node starts pending.
func NewSession(path *domain.LearningPath, reg *registry.Registry, opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		path:    path.Clone(),
		reg:     reg,
		pos:     -1,
		emitter: nopEmitter{},
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.order = Linearize(s.path, reg)
	s.status = make(map[string]*domain.NodeProgress, len(s.order.IDs))
	for _, id := range s.order.IDs {
		s.status[id] = &domain.NodeProgress{Status: domain.NodePending}
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Path returns the session's copy of the path. It must not be modified.
func (s *Session) Path() *domain.LearningPath { return s.path }

// Order returns the current play order.
func (s *Session) Order() Order {
	out := s.order
	out.IDs = append([]string{}, s.order.IDs...)
	return out
}

// Finished reports whether the End node was reached.
func (s *Session) Finished() bool { return s.done }

// Current returns the active node.
func (s *Session) Current() (domain.PathNode, bool) {
	if s.pos < 0 || s.pos >= len(s.order.IDs) {
		return domain.PathNode{}, false
	}
	n := s.path.Node(s.order.IDs[s.pos])
	if n == nil {
		return domain.PathNode{}, false
	}
	return *n, true
}

// Definition returns the node type of the active node.
func (s *Session) Definition() (domain.NodeTypeDefinition, bool) {
	n, ok := s.Current()
	if !ok {
		return domain.NodeTypeDefinition{}, false
	}
	return s.reg.Get(n.Type)
}

// NodeProgress returns the state of one ordered node.
func (s *Session) NodeProgress(id string) (domain.NodeProgress, bool) {
	p, ok := s.status[id]
	if !ok {
		return domain.NodeProgress{}, false
	}
	return *p, true
}

// Progress returns done / len(order), or 0 for an empty order.
func (s *Session) Progress() float64 {
	if len(s.order.IDs) == 0 {
		return 0
	}
	done := 0
	for _, id := range s.order.IDs {
		if s.status[id].Status.Done() {
			done++
		}
	}
	return float64(done) / float64(len(s.order.IDs))
}

// Start activates the first ordered node.
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return nil
	}
	if len(s.order.IDs) == 0 {
		return ErrEmptyPath
	}
	s.started = true
	s.metrics.SessionStarted()
	s.emitter.Emit(ctx, Event{Verb: domain.VerbInitialized})
	s.enter(ctx, 0)
	return nil
}

// Advance leaves the active node and enters the next one in order.
// On a gate it counts as passing the gate; on a branch it takes the default route.
func (s *Session) Advance(ctx context.Context) error {
	if err := s.navigable(); err != nil {
		return err
	}
	if s.role() == domain.RoleGate {
		return s.PassGate(ctx)
	}
	s.leave(ctx, domain.NodeCompleted, nil)
	return s.enterNext(ctx)
}

// PassGate acknowledges the active node. Any interaction counts as a pass.
func (s *Session) PassGate(ctx context.Context) error {
	if err := s.navigable(); err != nil {
		return err
	}
	success := true
	s.leave(ctx, domain.NodePassed, &domain.Result{Success: &success})
	return s.enterNext(ctx)
}

// ChooseBranch follows the connection leaving the active node on port.
// The destination is jumped to when it is anywhere in the order, earlier nodes included;
// otherwise the rest of the order is rebuilt from it. Without a connection on port the default next node is entered.
func (s *Session) ChooseBranch(ctx context.Context, port string) error {
	if err := s.navigable(); err != nil {
		return err
	}
	def, ok := s.Definition()
	if !ok || !def.HasOutput(port) || len(def.Outputs) < 2 {
		return fmt.Errorf("%w: %s", ErrNotBranch, port)
	}

	cur := s.order.IDs[s.pos]
	conn, found := s.path.OutgoingOnPort(cur, port)
	if !found || !s.path.HasNode(conn.To) {
		s.leave(ctx, domain.NodeCompleted, &domain.Result{Response: port})
		return s.enterNext(ctx)
	}

	s.leave(ctx, domain.NodeCompleted, &domain.Result{Response: port})
	for i := range s.order.IDs {
		if s.order.IDs[i] == conn.To {
			s.enter(ctx, i)
			return nil
		}
	}
	s.replan(conn.To)
	s.enter(ctx, s.pos+1)
	return nil
}

// ReportResult records an assessment outcome for the active node without leaving it.
// score is scaled to [0, 1]; nil means no score.
func (s *Session) ReportResult(ctx context.Context, score *float64, success bool) error {
	if err := s.navigable(); err != nil {
		return err
	}
	id := s.order.IDs[s.pos]
	st := s.status[id]
	if success {
		st.Status = domain.NodePassed
	} else {
		st.Status = domain.NodeFailed
	}

	res := &domain.Result{Success: &success}
	if score != nil {
		scaled := clamp(*score, 0, 1)
		raw := scaled * 100
		lo, hi := 0.0, 100.0
		st.Score = &scaled
		res.Score = &domain.Score{Scaled: &scaled, Raw: &raw, Min: &lo, Max: &hi}
	}
	verb := domain.VerbFailed
	if success {
		verb = domain.VerbPassed
	}
	s.emitter.Emit(ctx, Event{Verb: verb, NodeID: id, Result: res})
	return nil
}

func (s *Session) navigable() error {
	if !s.started {
		return ErrNotStarted
	}
	if s.done {
		return ErrFinished
	}
	return nil
}

// role is the traversal role of the active node.
func (s *Session) role() domain.Role {
	n, ok := s.Current()
	if !ok {
		return domain.RoleContent
	}
	return s.reg.RoleOf(n.Type)
}

func (s *Session) enterNext(ctx context.Context) error {
	if s.pos+1 >= len(s.order.IDs) {
		// Ran off the order without an End node.
		s.pos = len(s.order.IDs)
		s.finish(ctx)
		return nil
	}
	s.enter(ctx, s.pos+1)
	return nil
}

func (s *Session) enter(ctx context.Context, idx int) {
	s.pos = idx
	id := s.order.IDs[idx]
	node := s.path.Node(id)
	now := s.now()

	st := s.status[id]
	st.Status = domain.NodeActive
	st.StartedAt = &now

	s.emitter.Emit(ctx, Event{Verb: domain.VerbLaunched, NodeID: id})
	if s.hooks.OnNodeEnter != nil {
		s.hooks.OnNodeEnter(ctx, s.nodeEvent(domain.EventNodeEnter, *node, st.Status))
	}
	s.logger.Debug("node entered", "session_id", s.id, "node_id", id, "type", node.Type)

	if s.reg.RoleOf(node.Type) == domain.RoleEnd {
		s.leave(ctx, domain.NodeCompleted, nil)
		s.finish(ctx)
	}
}

// leave closes the active node. A node already passed or failed keeps that status.
func (s *Session) leave(ctx context.Context, status domain.NodeStatus, res *domain.Result) {
	id := s.order.IDs[s.pos]
	node := s.path.Node(id)
	st := s.status[id]
	if st.Status != domain.NodePassed && st.Status != domain.NodeFailed {
		st.Status = status
	}

	if st.StartedAt != nil {
		if res == nil {
			res = &domain.Result{}
		}
		res.Duration = domain.FormatDuration(s.now().Sub(*st.StartedAt))
	}
	if res != nil {
		completion := true
		res.Completion = &completion
	}
	s.emitter.Emit(ctx, Event{Verb: domain.VerbCompleted, NodeID: id, Result: res})
	if s.hooks.OnNodeLeave != nil {
		s.hooks.OnNodeLeave(ctx, s.nodeEvent(domain.EventNodeLeave, *node, st.Status))
	}
}

func (s *Session) finish(ctx context.Context) {
	s.done = true
	completion := true
	s.emitter.Emit(ctx, Event{Verb: domain.VerbCompleted, Result: &domain.Result{Completion: &completion}})
	s.metrics.SessionCompleted()
	if s.hooks.OnPathComplete != nil {
		s.hooks.OnPathComplete(ctx, &domain.PathEvent{
			EventBase: s.base(domain.EventPathComplete),
			Progress:  s.Progress(),
		})
	}
	s.logger.Debug("path completed", "session_id", s.id, "path_id", s.path.ID)
}

// replan replaces the pending tail of the order with the walk starting at dest.
func (s *Session) replan(dest string) {
	visited := make(map[string]bool)
	for _, n := range s.path.Nodes {
		if s.reg.RoleOf(n.Type) == domain.RoleStart {
			visited[n.ID] = true
		}
	}
	for _, id := range s.order.IDs[:s.pos+1] {
		visited[id] = true
	}

	for _, id := range s.order.IDs[s.pos+1:] {
		if s.status[id].Status == domain.NodePending {
			delete(s.status, id)
		}
	}

	tail := []string{dest}
	visited[dest] = true
	rest := walk(s.path, s.reg, dest, visited)
	tail = append(tail, rest.IDs...)

	ids := append(append([]string{}, s.order.IDs[:s.pos+1]...), tail...)
	s.order = Order{IDs: ids, Truncated: rest.Truncated, RevisitedAt: rest.RevisitedAt}
	for _, id := range tail {
		if _, ok := s.status[id]; !ok {
			s.status[id] = &domain.NodeProgress{Status: domain.NodePending}
		}
	}
}

func (s *Session) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: s.now(),
		Type:      t,
		SessionID: s.id,
		PathID:    s.path.ID,
	}
}

func (s *Session) nodeEvent(t domain.EventType, n domain.PathNode, status domain.NodeStatus) *domain.NodeEvent {
	return &domain.NodeEvent{
		EventBase: s.base(t),
		NodeID:    n.ID,
		NodeType:  n.Type,
		Status:    status,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
