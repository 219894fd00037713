package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Notes implements ports.DocumentStore and ports.Watchable over a Loam vault.
// A document is the body of a Markdown note; its frontmatter is carried over
// unchanged on every write, so line numbers count from the first body line.
type Notes struct {
	Repo  core.Repository
	typed *loam.TypedRepository[NoteMetadata]
}

// New wraps an initialized repository.
func New(repo core.Repository) *Notes {
	return &Notes{
		Repo:  repo,
		typed: loam.NewTypedRepository[NoteMetadata](repo),
	}
}

// Open initializes a writable vault at path.
func Open(path string, opts ...loam.Option) (*Notes, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	base := []loam.Option{
		loam.WithStrict(true),
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
	}
	repo, err := loam.Init(absPath, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(repo), nil
}

// Read returns the body of a note. IDs may omit the ".md" extension.
func (n *Notes) Read(ctx context.Context, id string) (string, error) {
	doc, err := n.Repo.Get(ctx, trimExtension(id))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrDocumentNotFound, id, err)
	}
	return doc.Content, nil
}

// Write replaces the body of a note, creating it when absent.
func (n *Notes) Write(ctx context.Context, id, text string) error {
	doc := core.Document{ID: withExtension(id), Content: text}
	if existing, err := n.Repo.Get(ctx, trimExtension(id)); err == nil {
		doc.ID = existing.ID
		doc.Metadata = existing.Metadata
	}
	if err := n.Repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("loam save failed for %s: %w", id, err)
	}
	return nil
}

// List returns note IDs without extension, in lexical order.
func (n *Notes) List(ctx context.Context) ([]string, error) {
	docs, err := n.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, trimExtension(doc.ID))
	}
	sort.Strings(ids)
	return ids, nil
}

// Titles maps note IDs to their frontmatter title, when set.
func (n *Notes) Titles(ctx context.Context) (map[string]string, error) {
	docs, err := n.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	titles := make(map[string]string)
	for _, doc := range docs {
		if doc.Data.Title != "" {
			titles[trimExtension(doc.ID)] = doc.Data.Title
		}
	}
	return titles, nil
}

// Watch signals whenever the note changes. Loam debounces the events.
func (n *Notes) Watch(ctx context.Context, id string) (<-chan struct{}, error) {
	events, err := n.typed.Watch(ctx, "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	want := trimExtension(id)
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if trimExtension(evt.ID) != want {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	if ext := filepath.Ext(id); ext != "" {
		return strings.TrimSuffix(id, ext)
	}
	return id
}

func withExtension(id string) string {
	id = filepath.ToSlash(id)
	if filepath.Ext(id) == "" {
		return id + ".md"
	}
	return id
}
