package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// Mask replaces the values of masked variables in stored snapshots.
const Mask = "***"

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks snapshot variables whose names match any pattern.
// The document keeps the real values; only the stored copy is masked.
func NewPIIMiddleware(patterns []string) (Middleware, error) {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: compiled}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	// Copy so the caller's snapshot keeps its values.
	cloned := *session
	cloned.Variables = make(map[string]string, len(session.Variables))
	for k, v := range session.Variables {
		if m.masked(k) {
			v = Mask
		}
		cloned.Variables[k] = v
	}
	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) masked(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
