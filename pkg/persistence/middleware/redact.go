package middleware

import (
	"context"
	"regexp"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/ports"
)

// Mask replaces every redacted value.
const Mask = "***"

// DefaultRedactPatterns match node data keys that commonly hold credentials.
var DefaultRedactPatterns = []string{`(?i)secret`, `(?i)password`, `(?i)token`, `(?i)api[_-]?key`}

type redactMiddleware struct {
	next     ports.PathStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks the record-store credentials and every
// node data value whose key matches one of the patterns in documents it returns.
// Writes pass through unchanged; wrap only stores handed to read-only consumers.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.PathStore) ports.PathStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) List(ctx context.Context) ([]domain.PathSummary, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) Get(ctx context.Context, id string) (*domain.LearningPath, error) {
	return m.redact(m.next.Get(ctx, id))
}

func (m *redactMiddleware) Create(ctx context.Context, patch domain.PathPatch) (*domain.LearningPath, error) {
	return m.redact(m.next.Create(ctx, patch))
}

func (m *redactMiddleware) Update(ctx context.Context, id string, patch domain.PathPatch) (*domain.LearningPath, error) {
	return m.redact(m.next.Update(ctx, id, patch))
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) Duplicate(ctx context.Context, id string) (*domain.LearningPath, error) {
	return m.redact(m.next.Duplicate(ctx, id))
}

func (m *redactMiddleware) redact(p *domain.LearningPath, err error) (*domain.LearningPath, error) {
	if err != nil {
		return nil, err
	}
	// Clone so the caller's store state is never masked in place.
	out := p.Clone()
	if out.LRSConfig != nil {
		if out.LRSConfig.Key != "" {
			out.LRSConfig.Key = Mask
		}
		if out.LRSConfig.Secret != "" {
			out.LRSConfig.Secret = Mask
		}
	}
	for i := range out.Nodes {
		maskMap(out.Nodes[i].Data, m.patterns)
	}
	return out, nil
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
