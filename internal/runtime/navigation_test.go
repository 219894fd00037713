package runtime

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(t *testing.T, lines ...string) *Workflow {
	t.Helper()
	text := strings.Join(append(lines, "%%workflow end%%"), "\n")
	w, err := New(text, 0)
	require.NoError(t, err)
	return w
}

func TestSkipBlock_HeadingReturnsClosingHeading(t *testing.T) {
	w := newTestWorkflow(t,
		"## Guarded",
		"- a",
		"### Deeper",
		"- b",
		"## Sibling",
		"- c",
	)

	got, ok := w.skipBlock(0)
	require.True(t, ok)
	assert.Equal(t, 4, got)
}

func TestSkipBlock_ShallowerHeadingCloses(t *testing.T) {
	w := newTestWorkflow(t, "### Deep", "- a", "# Top", "- b")

	got, ok := w.skipBlock(0)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestSkipBlock_HeadingToEnd(t *testing.T) {
	w := newTestWorkflow(t, "## Only", "- a", "### Deeper", "- b")

	_, ok := w.skipBlock(0)
	assert.False(t, ok)
}

func TestSkipBlock_BulletLandsOnNextStep(t *testing.T) {
	w := newTestWorkflow(t, "- guarded", "  detail", "- next")

	got, ok := w.skipBlock(0)
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestSkipBlock_PassesOverPlainLines(t *testing.T) {
	w := newTestWorkflow(t, "some prose", "", "- guarded", "- next")

	got, ok := w.skipBlock(0)
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestSkipBlock_LastBullet(t *testing.T) {
	w := newTestWorkflow(t, "- only")

	_, ok := w.skipBlock(0)
	assert.False(t, ok)
}

func TestNextStep_ChainedConditionals(t *testing.T) {
	w := newTestWorkflow(t,
		"- start",
		"%%workflow if A = 1%%",
		"- skipped by A",
		"%%workflow if B = 1%%",
		"- skipped by B",
		"- landing",
	)

	got, ok := w.nextStep(0)
	require.True(t, ok)
	assert.Equal(t, 5, got)
}

func TestNextStep_RunsOffEnd(t *testing.T) {
	w := newTestWorkflow(t, "- a", "%%workflow if A = 1%%", "- b")

	_, ok := w.nextStep(0)
	assert.False(t, ok)
}

func TestPreviousStep_IgnoresConditionals(t *testing.T) {
	w := newTestWorkflow(t, "- a", "%%workflow if A = 1%%", "- b", "- c")

	got, ok := w.previousStep(3)
	require.True(t, ok)
	assert.Equal(t, 2, got)

	_, ok = w.previousStep(0)
	assert.False(t, ok)
}

func TestCollectStepText(t *testing.T) {
	w := newTestWorkflow(t, "- a", "  body", "%%workflow if A = 1%%", "  guarded body", "- b")

	lines, ok := w.collectStepText(0)
	require.True(t, ok)
	assert.Equal(t, []string{"- a", "  body"}, lines)

	_, ok = w.collectStepText(5)
	assert.False(t, ok)

	lines, ok = w.collectStepText(4)
	require.True(t, ok)
	assert.Equal(t, []string{"- b"}, lines)
}
