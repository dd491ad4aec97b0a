package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

var _ ports.PathStore = (*Store)(nil)

// Store implements ports.PathStore using the local filesystem.
// It stores each path as one JSON document in a configured directory.
type Store struct {
	BasePath string

	// mu serializes read-modify-write cycles within this process.
	mu    sync.Mutex
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

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".learnpath/paths".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".learnpath", "paths")
	}
	s := &Store{BasePath: basePath, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) file(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", domain.ErrPathNotFound
	}
	return filepath.Join(s.BasePath, id+".json"), nil
}

// List returns the summaries of every path document in the directory.
func (s *Store) List(ctx context.Context) ([]domain.PathSummary, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.PathSummary{}, nil
		}
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}

	out := make([]domain.PathSummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		p, err := s.Get(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			if errors.Is(err, domain.ErrPathNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p.Summary())
	}
	domain.SortSummaries(out)
	return out, nil
}

// Get reads one path document.
func (s *Store) Get(ctx context.Context, id string) (*domain.LearningPath, error) {
	filePath, err := s.file(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrPathNotFound
		}
		return nil, fmt.Errorf("failed to read path file: %w", err)
	}

	var p domain.LearningPath
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path %s: %w", id, err)
	}
	return &p, nil
}

// Create writes a new path document.
func (s *Store) Create(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error) {
	p := domain.NewFromPatch(s.newID(), domain.Timestamp(s.now()), patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies patch and overwrites the document.
func (s *Store) Update(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.UpdatedAt = domain.Timestamp(s.now())
	if err := s.save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the path file.
func (s *Store) Delete(ctx context.Context, id string) error {
	filePath, err := s.file(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return domain.ErrPathNotFound
		}
		return fmt.Errorf("failed to delete path file: %w", err)
	}
	return nil
}

// Duplicate copies a document under a new id.
func (s *Store) Duplicate(ctx context.Context, id string) (*domain.LearningPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := p.Duplicate(s.newID(), domain.Timestamp(s.now()))
	if err := s.save(dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// save persists the document to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) save(p *domain.LearningPath) error {
	destPath, err := s.file(p.ID)
	if err != nil {
		return fmt.Errorf("invalid path id %q", p.ID)
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure path directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal path: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+p.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing path file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
