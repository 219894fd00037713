package ports

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Navigator is the request/response surface over workflow sessions.
// It is the primary interface used by remote adapters (HTTP, MCP): every call
// re-reads the document, applies one action and writes the result back.
type Navigator interface {
	// Start opens a session on the region enclosing line of a document.
	Start(ctx context.Context, documentID string, line int) (*domain.Session, domain.Step, error)

	// Current renders the step a session is on without moving it.
	Current(ctx context.Context, sessionID string) (*domain.Session, domain.Step, error)

	// Next moves a session forward.
	Next(ctx context.Context, sessionID string) (domain.Step, error)

	// Previous moves a session backward.
	Previous(ctx context.Context, sessionID string) (domain.Step, error)

	// Answer captures a prompt value and saves it into the document.
	Answer(ctx context.Context, sessionID, name, value string, position int) (domain.Step, error)

	// Cancel closes a session and cleans the document.
	Cancel(ctx context.Context, sessionID string) error

	// Complete closes a session at its last step and cleans the document.
	Complete(ctx context.Context, sessionID string) error

	// Sessions lists the open session IDs.
	Sessions(ctx context.Context) ([]string, error)
}
