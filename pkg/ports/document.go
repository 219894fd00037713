package ports

import "context"

// Document is the live text a session edits. Every write replaces the whole
// text; callers serialize read-modify-write cycles themselves.
type Document interface {
	// ID identifies the document for locking and snapshots.
	ID() string

	// Read returns the full text.
	Read(ctx context.Context) (string, error)

	// Write replaces the full text.
	Write(ctx context.Context, text string) error

	// Cursor returns the line the user is focused on.
	Cursor(ctx context.Context) (int, error)
}

// DocumentStore gives access to a collection of documents by ID
// (files on disk, notes in a vault, in-memory fixtures).
type DocumentStore interface {
	// Read returns the full text of a document.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Read(ctx context.Context, id string) (string, error)

	// Write replaces the full text of a document, creating it if needed.
	Write(ctx context.Context, id, text string) error

	// List returns the IDs of all documents.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for stores that can notify about document changes.
// This is used by watch mode to re-scan a workflow edited outside the session.
type Watchable interface {
	// Watch returns a channel that is signaled when the document changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, id string) (<-chan struct{}, error)
}
