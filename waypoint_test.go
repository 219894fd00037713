package waypoint_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/waypoint"
	"github.com/aretw0/waypoint/internal/testutils"
	"github.com/aretw0/waypoint/pkg/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const release = `# Release
%%workflow start%%
## Prepare
- Bump the version
%%workflow get version%%
- Tag the commit
%%workflow end%%
`

func writeVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutils.WriteDocument(t, root, "release.md", release)
	return root
}

func readNote(t *testing.T, root string) string {
	return testutils.ReadDocument(t, root, "release.md")
}

func TestEngine_OpenWritesResumeMarker(t *testing.T) {
	ctx := context.Background()
	root := writeVault(t)

	eng, err := waypoint.New(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), eng.Name)

	c, step, err := eng.Open(ctx, "release.md", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Prepare"}, step.Context)
	assert.Equal(t, []string{"- Bump the version"}, step.Text)

	_, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Contains(t, readNote(t, root), "%%workflow here%%\n- Tag the commit")

	require.NoError(t, c.Cancel(ctx))
	assert.Equal(t, release, readNote(t, root))
}

func TestEngine_ResumeFromSnapshot(t *testing.T) {
	ctx := context.Background()
	root := writeVault(t)
	store := file.New(filepath.Join(t.TempDir(), "sessions"))

	eng, err := waypoint.New(root, waypoint.WithStateStore(store))
	require.NoError(t, err)

	c, _, err := eng.Open(ctx, "release.md", 2)
	require.NoError(t, err)
	_, err = c.Next(ctx)
	require.NoError(t, err)
	id := c.Session().ID

	// A second engine shares nothing but the note and the store.
	other, err := waypoint.New(root, waypoint.WithStateStore(store))
	require.NoError(t, err)
	resumed, step, err := other.Resume(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"- Tag the commit"}, step.Text)
	assert.True(t, step.Last())

	require.NoError(t, resumed.Complete(ctx))
	ids, err := other.Sessions().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEngine_Outline(t *testing.T) {
	eng, err := waypoint.New(writeVault(t))
	require.NoError(t, err)

	steps, err := eng.Outline(context.Background(), "release.md", 0)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, []string{"version"}, steps[0].Prompts)
}

func TestEngine_Run(t *testing.T) {
	ctx := context.Background()
	root := writeVault(t)
	eng, err := waypoint.New(root)
	require.NoError(t, err)

	c, _, err := eng.Open(ctx, "release.md", 2)
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, eng.Run(ctx, c, strings.NewReader("version=1.4.0\nnext\n"), &out))

	assert.Contains(t, out.String(), "Bump the version")
	note := readNote(t, root)
	assert.Contains(t, note, "%%workflow got version%%\n%%workflow set_temp version = 1.4.0%%")
	assert.Contains(t, note, "%%workflow here%%\n- Tag the commit")
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := waypoint.New("")
	assert.Error(t, err)
}
