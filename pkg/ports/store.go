package ports

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// StateStore defines the interface for persisting session snapshots.
// The document stays the source of truth; snapshots let hosts list, inspect
// and resume sessions across processes.
type StateStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
