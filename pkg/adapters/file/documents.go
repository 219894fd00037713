package file

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// Documents implements ports.DocumentStore and ports.Watchable over a
// directory tree. Document IDs are slash-separated paths relative to Root.
type Documents struct {
	Root   string
	logger *slog.Logger
}

// DocumentsOption configures Documents.
type DocumentsOption func(*Documents)

// WithLogger sets the logger used by the watcher.
func WithLogger(l *slog.Logger) DocumentsOption {
	return func(d *Documents) {
		d.logger = l
	}
}

// NewDocuments serves the documents under root ("." when empty).
func NewDocuments(root string, opts ...DocumentsOption) *Documents {
	if root == "" {
		root = "."
	}
	d := &Documents{Root: root, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path resolves a document ID to a filesystem path inside Root.
func (d *Documents) Path(id string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(id))
	if id == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q is outside %s", domain.ErrDocumentNotFound, id, d.Root)
	}
	return filepath.Join(d.Root, clean), nil
}

// Read returns the text of a document.
func (d *Documents) Read(ctx context.Context, id string) (string, error) {
	path, err := d.Path(id)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		return "", fmt.Errorf("failed to read document %s: %w", id, err)
	}
	return string(data), nil
}

// Write replaces the text of a document atomically.
func (d *Documents) Write(ctx context.Context, id, text string) error {
	path, err := d.Path(id)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, []byte(text)); err != nil {
		return fmt.Errorf("failed to write document %s: %w", id, err)
	}
	return nil
}

// List walks Root and returns every regular file, skipping dot entries.
func (d *Documents) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != d.Root && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch signals whenever the document file is written, created or replaced.
// The parent directory is watched so editors that save by rename are seen.
func (d *Documents) Watch(ctx context.Context, id string) (<-chan struct{}, error) {
	path, err := d.Path(id)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", id, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", id, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				d.logger.Debug("document changed", "id", id, "op", event.Op.String())
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Warn("watch error", "id", id, "err", err)
			}
		}
	}()
	return ch, nil
}
