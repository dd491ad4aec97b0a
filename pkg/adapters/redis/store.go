package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

var _ ports.PathStore = (*Store)(nil)

// Store implements ports.PathStore using Redis.
// Each document is a JSON string; a ZSET scored by update time indexes them.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
}

type Option func(*Store)

// WithTTL sets the expiration for documents. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for documents.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "learnpath:path:",
		now:    time.Now,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// List returns summaries ordered by the index, pruning ids whose document expired.
func (s *Store) List(ctx context.Context) ([]domain.PathSummary, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	out := make([]domain.PathSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load paths: %w", err)
	}

	var stale []any
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var p domain.LearningPath
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal path %s: %w", ids[i], err)
		}
		out = append(out, p.Summary())
	}

	// Lazy cleanup of expired documents.
	if len(stale) > 0 {
		if err := s.client.ZRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune expired paths: %w", err)
		}
	}
	domain.SortSummaries(out)
	return out, nil
}

// Get retrieves a document from Redis.
func (s *Store) Get(ctx context.Context, id string) (*domain.LearningPath, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPathNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var p domain.LearningPath
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path: %w", err)
	}
	return &p, nil
}

// Create stores a new document.
func (s *Store) Create(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error) {
	p := domain.NewFromPatch(s.newID(), domain.Timestamp(s.now()), patch)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies patch and overwrites the document.
func (s *Store) Update(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.UpdatedAt = domain.Timestamp(s.now())
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the document and its index entry.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	del := pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrPathNotFound
	}
	return nil
}

// Duplicate copies a document under a new id.
func (s *Store) Duplicate(ctx context.Context, id string) (*domain.LearningPath, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := p.Duplicate(s.newID(), domain.Timestamp(s.now()))
	if err := s.save(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func (s *Store) save(ctx context.Context, p *domain.LearningPath) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal path: %w", err)
	}

	pipe := s.client.Pipeline()
	// 0 means no expiration.
	pipe.Set(ctx, s.key(p.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  float64(p.UpdatedAt.UnixMilli()),
		Member: p.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
