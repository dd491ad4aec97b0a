package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/pseng/MyH5P-pages/internal/logging"
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock is held if its holder dies.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type item[T any] struct {
	value   T
	touched time.Time
}

// Manager owns live sessions of type T and serializes access to each of them.
// It uses reference counting to garbage collect unused locks.
type Manager[T any] struct {
	mu       sync.Mutex            // guards items and locks
	items    map[string]*item[T]   // live sessions
	locks    map[string]*lockEntry // active per-session locks
	locker   ports.DistributedLocker
	lockTTL  time.Duration
	idle     time.Duration
	onEvict  func(id string, value T)
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
	keySpace string
}

// Option configures the Manager.
type Option[T any] func(*Manager[T])

// WithLocker enables distributed locking.
func WithLocker[T any](locker ports.DistributedLocker) Option[T] {
	return func(m *Manager[T]) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL[T any](ttl time.Duration) Option[T] {
	return func(m *Manager[T]) {
		m.lockTTL = ttl
	}
}

// WithIdleTimeout makes Sweep evict sessions untouched for longer than d.
func WithIdleTimeout[T any](d time.Duration) Option[T] {
	return func(m *Manager[T]) {
		m.idle = d
	}
}

// WithEvictHook is called for every session removed by Sweep.
func WithEvictHook[T any](fn func(id string, value T)) Option[T] {
	return func(m *Manager[T]) {
		m.onEvict = fn
	}
}

// WithClock overrides time.Now.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(m *Manager[T]) {
		m.now = now
	}
}

// WithIDGenerator overrides the session id generator.
func WithIDGenerator[T any](fn func() string) Option[T] {
	return func(m *Manager[T]) {
		m.newID = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(m *Manager[T]) {
		m.logger = logger
	}
}

// WithKeySpace prefixes distributed lock keys, e.g. "learner:" or "editor:".
func WithKeySpace[T any](prefix string) Option[T] {
	return func(m *Manager[T]) {
		m.keySpace = prefix
	}
}

// NewManager creates an empty session manager.
func NewManager[T any](opts ...Option[T]) *Manager[T] {
	m := &Manager[T]{
		items:   make(map[string]*item[T]),
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager[T]) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager[T]) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Add registers value under a fresh id and returns the id.
func (m *Manager[T]) Add(value T) string {
	id := m.newID()
	m.Put(id, value)
	return id
}

// Put registers value under id, replacing any previous session.
func (m *Manager[T]) Put(id string, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = &item[T]{value: value, touched: m.now()}
}

// Get returns the session value without locking it.
// Returns domain.ErrSessionNotFound for unknown ids.
func (m *Manager[T]) Get(id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return it.value, nil
}

// Do runs fn with the session value while holding the session's lock.
func (m *Manager[T]) Do(ctx context.Context, id string, fn func(context.Context, T) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		it, ok := m.items[id]
		if ok {
			it.touched = m.now()
		}
		m.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		return fn(ctx, it.value)
	})
}

// Delete removes a session.
// Returns domain.ErrSessionNotFound for unknown ids.
func (m *Manager[T]) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.items[id]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		delete(m.items, id)
		return nil
	})
}

// List returns the live session ids in lexical order.
func (m *Manager[T]) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Sweep evicts sessions idle for longer than the idle timeout and returns how many were removed.
// It is a no-op when no timeout is configured.
func (m *Manager[T]) Sweep() int {
	if m.idle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	evicted := make(map[string]T)
	for id, it := range m.items {
		if it.touched.Before(cutoff) {
			evicted[id] = it.value
			delete(m.items, id)
		}
	}
	m.mu.Unlock()

	for id, v := range evicted {
		m.logger.Debug("session evicted", "session_id", id)
		if m.onEvict != nil {
			m.onEvict(id, v)
		}
	}
	return len(evicted)
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager[T]) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, m.keySpace+sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
