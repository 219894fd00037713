// Package testutils holds fixtures shared by adapter and integration tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo initializes a Loam vault in a temporary directory and returns
// its absolute path. Versioning is off unless opts turn it back on.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	base := []loam.Option{loam.WithVersioning(false), loam.WithForceTemp(false)}
	repo, err := loam.Init(absPath, append(base, opts...)...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteDocument creates root/id with text, making parent directories.
// It returns the file path.
func WriteDocument(t *testing.T, root, id, text string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(id))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

// ReadDocument returns the text of root/id.
func ReadDocument(t *testing.T, root, id string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(id)))
	require.NoError(t, err)
	return string(data)
}
