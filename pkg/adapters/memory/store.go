package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

var _ ports.PathStore = (*Store)(nil)

// Store implements ports.PathStore in memory.
// Safe for concurrent use.
type Store struct {
	data  map[string]*domain.LearningPath
	mu    sync.RWMutex
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides path id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithPaths seeds the store. Documents are copied as-is, keeping their ids and timestamps.
func WithPaths(paths ...*domain.LearningPath) Option {
	return func(s *Store) {
		for _, p := range paths {
			s.data[p.ID] = p.Clone()
		}
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:  make(map[string]*domain.LearningPath),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every path summary.
func (s *Store) List(ctx context.Context) ([]domain.PathSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PathSummary, 0, len(s.data))
	for _, p := range s.data {
		out = append(out, p.Summary())
	}
	domain.SortSummaries(out)
	return out, nil
}

// Get retrieves a copy of a path so the caller can't mutate store state by pointer.
func (s *Store) Get(ctx context.Context, id string) (*domain.LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return nil, domain.ErrPathNotFound
	}
	return p.Clone(), nil
}

// Create stores a new path.
func (s *Store) Create(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error) {
	p := domain.NewFromPatch(s.newID(), domain.Timestamp(s.now()), patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[p.ID] = p
	return p.Clone(), nil
}

// Update applies patch to a stored path.
func (s *Store) Update(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[id]
	if !ok {
		return nil, domain.ErrPathNotFound
	}
	next := p.Clone()
	patch.Apply(next)
	next.UpdatedAt = domain.Timestamp(s.now())
	s.data[id] = next
	return next.Clone(), nil
}

// Delete removes a path.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return domain.ErrPathNotFound
	}
	delete(s.data, id)
	return nil
}

// Duplicate copies a path under a new id.
func (s *Store) Duplicate(ctx context.Context, id string) (*domain.LearningPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.data[id]
	if !ok {
		return nil, domain.ErrPathNotFound
	}
	dup := p.Duplicate(s.newID(), domain.Timestamp(s.now()))
	s.data[dup.ID] = dup
	return dup.Clone(), nil
}
