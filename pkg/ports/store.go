package ports

import (
	"context"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// PathStore persists whole learning path documents keyed by id.
// Writes are whole-document overwrites; the last write wins.
type PathStore interface {
	// List returns the summaries of every stored path, most recently updated first.
	List(ctx context.Context) ([]domain.PathSummary, error)

	// Get retrieves a path.
	// Returns domain.ErrPathNotFound if the path does not exist.
	Get(ctx context.Context, id string) (*domain.LearningPath, error)

	// Create stores a new path built from the present fields of patch.
	// The store assigns the id and both timestamps.
	Create(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error)

	// Update applies the present fields of patch and refreshes UpdatedAt.
	// Returns domain.ErrPathNotFound if the path does not exist.
	Update(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error)

	// Delete removes a path.
	// Returns domain.ErrPathNotFound if the path does not exist.
	Delete(ctx context.Context, id string) error

	// Duplicate copies a path under a new id with " (Copy)" appended to its title.
	// Returns domain.ErrPathNotFound if the source does not exist.
	Duplicate(ctx context.Context, id string) (*domain.LearningPath, error)
}
