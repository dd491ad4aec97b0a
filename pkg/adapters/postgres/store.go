package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

// DBPool abstracts the pgxpool.Pool methods the store needs so tests can use a mock pool.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

var (
	_ DBPool          = (*pgxpool.Pool)(nil)
	_ ports.PathStore = (*Store)(nil)
)

// Schema creates the table the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS learning_paths (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS learning_paths_updated_at_idx ON learning_paths (updated_at DESC);
`

const (
	sqlList = `
		SELECT id, title, COALESCE(doc->>'description', ''), status,
			COALESCE(jsonb_array_length(doc->'nodes'), 0), created_at, updated_at
		FROM learning_paths
		ORDER BY updated_at DESC, id`

	sqlGet = `SELECT doc FROM learning_paths WHERE id = $1`

	sqlInsert = `
		INSERT INTO learning_paths (id, title, status, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	sqlUpdate = `
		UPDATE learning_paths
		SET title = $2, status = $3, doc = $4, updated_at = $5
		WHERE id = $1`

	sqlDelete = `DELETE FROM learning_paths WHERE id = $1`
)

// Store implements ports.PathStore on PostgreSQL. The whole document lives in a JSONB
// column; title, status and timestamps are duplicated into columns for listing.
type Store struct {
	pool  DBPool
	now   func() time.Time
	newID func() string
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides the path id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// New wraps an existing pool.
func New(pool DBPool, opts ...Option) *Store {
	s := &Store{
		pool:  pool,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to url, verifies the connection and returns a store owning the pool.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(pool, opts...), nil
}

// Migrate creates the schema when it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// List returns summaries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]domain.PathSummary, error) {
	rows, err := s.pool.Query(ctx, sqlList)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	out := []domain.PathSummary{}
	for rows.Next() {
		var (
			sum    domain.PathSummary
			status string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Description, &status, &sum.NodeCount, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan path summary: %w", err)
		}
		sum.Status = domain.PathStatus(status)
		sum.CreatedAt = domain.Timestamp(sum.CreatedAt)
		sum.UpdatedAt = domain.Timestamp(sum.UpdatedAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate paths: %w", err)
	}
	domain.SortSummaries(out)
	return out, nil
}

// Get loads one document.
func (s *Store) Get(ctx context.Context, id string) (*domain.LearningPath, error) {
	var doc []byte
	if err := s.pool.QueryRow(ctx, sqlGet, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPathNotFound
		}
		return nil, fmt.Errorf("failed to get path %s: %w", id, err)
	}

	var p domain.LearningPath
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path %s: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new document.
func (s *Store) Create(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error) {
	p := domain.NewFromPatch(s.newID(), domain.Timestamp(s.now()), patch)
	if err := s.insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies patch and overwrites the stored document. The last write wins.
func (s *Store) Update(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.UpdatedAt = domain.Timestamp(s.now())

	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal path: %w", err)
	}
	tag, err := s.pool.Exec(ctx, sqlUpdate, p.ID, p.Title, string(p.Status), doc, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update path %s: %w", id, err)
	}
	// Deleted between the read and the write.
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrPathNotFound
	}
	return p, nil
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, sqlDelete, id)
	if err != nil {
		return fmt.Errorf("failed to delete path %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
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
	if err := s.insert(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) insert(ctx context.Context, p *domain.LearningPath) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal path: %w", err)
	}
	if _, err := s.pool.Exec(ctx, sqlInsert, p.ID, p.Title, string(p.Status), doc, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert path %s: %w", p.ID, err)
	}
	return nil
}
