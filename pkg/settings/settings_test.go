package settings_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	s, err := settings.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, settings.Default(), s)
	assert.Equal(t, domain.DefaultMarkers(), s.Markers)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
markers:
  open: "<!--"
  close: "-->"
store:
  backend: redis
  ttl: 2h
render:
  width: 72
`), 0644))

	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "<!--", s.Markers.Open)
	assert.Equal(t, "-->", s.Markers.Close)
	assert.Equal(t, "workflow", s.Markers.Keyword)
	assert.Equal(t, settings.BackendRedis, s.Store.Backend)
	assert.Equal(t, 2*time.Hour, s.Store.TTL)
	assert.Equal(t, 72, s.Render.Width)
	assert.Equal(t, "auto", s.Render.Style)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: redis\n"), 0644))
	t.Setenv("WAYPOINT_STORE_BACKEND", "memory")
	t.Setenv("WAYPOINT_MARKERS_KEYWORD", "flow")
	t.Setenv("WAYPOINT_STORE_ENCRYPTION_KEY", "c2VjcmV0")

	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, settings.BackendMemory, s.Store.Backend)
	assert.Equal(t, "flow", s.Markers.Keyword)
	assert.Equal(t, "c2VjcmV0", s.Store.EncryptionKey)
}

func TestLoad_MaskPatterns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  mask: [password, token]\n"), 0644))

	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"password", "token"}, s.Store.Mask)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: sqlite\n"), 0644))
	_, err := settings.Load(path)
	assert.ErrorContains(t, err, "sqlite")

	require.NoError(t, os.WriteFile(path, []byte("markers: [oops"), 0644))
	_, err = settings.Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "waypoint.yaml")
	s := settings.Default()
	s.Markers.Keyword = "checklist"
	s.Store.TTL = 90 * time.Minute
	s.Server.Metrics = true

	require.NoError(t, settings.Save(path, s))

	loaded, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
