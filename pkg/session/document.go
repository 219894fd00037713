package session

import (
	"context"

	"github.com/aretw0/waypoint/pkg/ports"
)

// StoredDocument binds one document of a DocumentStore to a cursor line,
// making it usable as the live document of a Controller.
type StoredDocument struct {
	store  ports.DocumentStore
	id     string
	cursor int
}

// NewStoredDocument creates a document view with the cursor on line.
func NewStoredDocument(store ports.DocumentStore, id string, line int) *StoredDocument {
	return &StoredDocument{store: store, id: id, cursor: line}
}

func (d *StoredDocument) ID() string { return d.id }

func (d *StoredDocument) Read(ctx context.Context) (string, error) {
	return d.store.Read(ctx, d.id)
}

func (d *StoredDocument) Write(ctx context.Context, text string) error {
	return d.store.Write(ctx, d.id, text)
}

func (d *StoredDocument) Cursor(ctx context.Context) (int, error) {
	return d.cursor, nil
}
