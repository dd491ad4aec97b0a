package learnpath

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pseng/MyH5P-pages/internal/logging"
	mermaid "github.com/pseng/MyH5P-pages/internal/presentation/graph"
	"github.com/pseng/MyH5P-pages/internal/validator"
	"github.com/pseng/MyH5P-pages/pkg/adapters/memory"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/editor"
	"github.com/pseng/MyH5P-pages/pkg/graph"
	"github.com/pseng/MyH5P-pages/pkg/observability"
	"github.com/pseng/MyH5P-pages/pkg/ports"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/pseng/MyH5P-pages/pkg/session"
	"github.com/pseng/MyH5P-pages/pkg/tracking"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// Service is the high-level entry point of the engine.
// It wires the catalog, a PathStore, the validator and the activity tracker,
// and owns the learner and editor sessions.
type Service struct {
	store     ports.PathStore
	reg       *registry.Registry
	validator *validator.Validator
	builder   *tracking.Builder
	sender    ports.StatementSender
	metrics   *observability.Metrics
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	actorName string
	newID     func() string

	sendTimeout time.Duration
	idleTimeout time.Duration
	lockTTL     time.Duration
	locker      ports.DistributedLocker

	learners *session.Manager[*LearnerSession]
	editors  *session.Manager[*editor.Session]
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithStore sets the path store. Default: an in-memory store.
func WithStore(store ports.PathStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithRegistry sets the node-type catalog. Default: the built-in catalog.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Service) {
		s.reg = reg
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics records validations, mutations, sessions and deliveries.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithStatementBuilder sets how statements are built (base URL, clock, ids).
func WithStatementBuilder(b *tracking.Builder) Option {
	return func(s *Service) {
		s.builder = b
	}
}

// WithSender sets the record-store transport. Default: tracking.NewClient.
func WithSender(sender ports.StatementSender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// WithLifecycleHooks registers traversal observability hooks for every learner session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithDefaultActorName names learners that identify themselves with nothing.
func WithDefaultActorName(name string) Option {
	return func(s *Service) {
		s.actorName = name
	}
}

// WithIDGenerator overrides the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// WithSendTimeout bounds each background statement delivery of learner sessions.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.sendTimeout = d
	}
}

// WithSessionIdleTimeout evicts sessions untouched for d when the sweeper runs.
func WithSessionIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.idleTimeout = d
	}
}

// WithLocker serializes session access across processes.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{
		logger:      logging.NewNop(),
		newID:       uuid.NewString,
		sendTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}
	if s.reg == nil {
		s.reg = registry.Default()
	}
	if s.builder == nil {
		s.builder = tracking.NewBuilder(tracking.WithRegistry(s.reg))
	}
	if s.sender == nil {
		s.sender = tracking.NewClient(
			tracking.WithClientMetrics(s.metrics),
			tracking.WithClientLogger(s.logger),
		)
	}
	s.validator = validator.New(s.reg, validator.WithMetrics(s.metrics))

	s.learners = session.NewManager(sessionOpts(s, "learner:", func(id string, ls *LearnerSession) {
		ls.flush()
		s.logger.Debug("learner session evicted", "session_id", id)
	})...)
	s.editors = session.NewManager(sessionOpts(s, "editor:", func(id string, _ *editor.Session) {
		s.logger.Debug("editor session evicted", "session_id", id)
	})...)
	return s
}

func sessionOpts[T any](s *Service, space string, evict func(string, T)) []session.Option[T] {
	opts := []session.Option[T]{
		session.WithKeySpace[T](space),
		session.WithLogger[T](s.logger),
		session.WithIdleTimeout[T](s.idleTimeout),
		session.WithEvictHook[T](evict),
		session.WithIDGenerator[T](s.newID),
	}
	if s.locker != nil {
		opts = append(opts, session.WithLocker[T](s.locker))
		if s.lockTTL > 0 {
			opts = append(opts, session.WithLockTTL[T](s.lockTTL))
		}
	}
	return opts
}

// Registry returns the node-type catalog.
func (s *Service) Registry() *registry.Registry { return s.reg }

// Store returns the path store.
func (s *Service) Store() ports.PathStore { return s.store }

// NodeTypes returns the catalog grouped by category.
func (s *Service) NodeTypes() []registry.Group {
	return s.reg.List()
}

// ListPaths returns path summaries, optionally restricted to one status.
func (s *Service) ListPaths(ctx context.Context, status domain.PathStatus) ([]domain.PathSummary, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	out := []domain.PathSummary{}
	for _, sum := range all {
		if sum.Status == status {
			out = append(out, sum)
		}
	}
	return out, nil
}

// GetPath loads one path.
func (s *Service) GetPath(ctx context.Context, id string) (*domain.LearningPath, error) {
	return s.store.Get(ctx, id)
}

// CreatePath stores a new path. A payload without nodes gets the default layout:
// one Start node connected to one End node.
func (s *Service) CreatePath(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error) {
	if patch.Nodes == nil {
		m := graph.New(domain.NewLearningPath("", time.Time{}), s.reg, graph.WithMetrics(s.metrics))
		if err := m.SeedDefault(); err != nil {
			return nil, fmt.Errorf("failed to seed default layout: %w", err)
		}
		seeded := m.Path()
		patch.Nodes = &seeded.Nodes
		if patch.Connections == nil {
			patch.Connections = &seeded.Connections
		}
	}
	p, err := s.store.Create(ctx, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("path created", "path_id", p.ID, "nodes", len(p.Nodes))
	return p, nil
}

// UpdatePath applies the present fields of patch.
func (s *Service) UpdatePath(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error) {
	return s.store.Update(ctx, id, patch)
}

// DeletePath removes a path.
func (s *Service) DeletePath(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("path deleted", "path_id", id)
	return nil
}

// DuplicatePath copies a path under a new id.
func (s *Service) DuplicatePath(ctx context.Context, id string) (*domain.LearningPath, error) {
	return s.store.Duplicate(ctx, id)
}

// Validate checks a document that need not be stored.
func (s *Service) Validate(path *domain.LearningPath) validator.Result {
	return s.validator.Validate(path)
}

// ValidatePath checks a stored path.
func (s *Service) ValidatePath(ctx context.Context, id string) (validator.Result, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return validator.Result{}, err
	}
	return s.validator.Validate(p), nil
}

// LinearizePath returns the learner-facing order of a stored path.
func (s *Service) LinearizePath(ctx context.Context, id string) (traversal.Order, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return traversal.Order{}, err
	}
	return traversal.Linearize(p, s.reg), nil
}

// PathGraph renders a stored path as a Mermaid flowchart. A non-empty sessionID
// overlays that learner session's progress; the session must be on path id.
func (s *Service) PathGraph(ctx context.Context, id, sessionID string) (string, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	var overlay *mermaid.GraphOverlay
	if sessionID != "" {
		err := s.DoSession(ctx, sessionID, func(_ context.Context, ls *LearnerSession) error {
			if ls.Path().ID != id {
				return fmt.Errorf("%w: %s is not on path %s", domain.ErrSessionNotFound, sessionID, id)
			}
			overlay = mermaid.OverlayFromSession(ls.Session)
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	return mermaid.GenerateMermaid(p, s.reg, overlay), nil
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	done := make(chan struct{})
	go func() {
		s.editors.Run(ctx, interval)
		close(done)
	}()
	s.learners.Run(ctx, interval)
	<-done
}

// Close flushes pending statements and releases the store when it holds resources.
func (s *Service) Close() error {
	for _, id := range s.learners.List() {
		if ls, err := s.learners.Get(id); err == nil {
			ls.flush()
		}
	}
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
