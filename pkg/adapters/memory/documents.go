package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Documents implements ports.DocumentStore and ports.Watchable over a map.
// It is mostly used for tests and embedding.
type Documents struct {
	mu       sync.RWMutex
	texts    map[string]string
	watchers map[string][]chan struct{}
}

// NewDocuments creates a store seeded with the given texts.
func NewDocuments(texts map[string]string) *Documents {
	d := &Documents{
		texts:    make(map[string]string, len(texts)),
		watchers: make(map[string][]chan struct{}),
	}
	for id, text := range texts {
		d.texts[id] = text
	}
	return d
}

// Read returns the text of a document.
func (d *Documents) Read(ctx context.Context, id string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	text, ok := d.texts[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return text, nil
}

// Write replaces the text of a document and notifies watchers.
func (d *Documents) Write(ctx context.Context, id, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.texts[id] = text
	for _, ch := range d.watchers[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// List returns all document IDs in lexical order.
func (d *Documents) List(ctx context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.texts))
	for id := range d.texts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch signals on every Write to id until ctx is done.
func (d *Documents) Watch(ctx context.Context, id string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	d.mu.Lock()
	d.watchers[id] = append(d.watchers[id], ch)
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		defer d.mu.Unlock()
		list := d.watchers[id]
		for i, c := range list {
			if c == ch {
				d.watchers[id] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}
