package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutline(t *testing.T) {
	w := load(t,
		"# Deploy",
		"- Build",
		"%%workflow get version%%",
		"%%workflow if version = 1.0%%",
		"## Announce",
		"- Post",
		"# Wrap up",
		"- Done",
	)

	steps := w.Outline()
	require.Len(t, steps, 3)

	assert.Equal(t, "Build", steps[0].Label)
	assert.Equal(t, []string{"Deploy"}, steps[0].Context)
	assert.Equal(t, []string{"version"}, steps[0].Prompts)
	assert.Empty(t, steps[0].Guards)

	assert.Equal(t, []string{"Deploy", "Announce"}, steps[1].Context)
	require.Len(t, steps[1].Guards, 1)
	assert.Equal(t, "version", steps[1].Guards[0].Variable)
	assert.Equal(t, 7, steps[1].Guards[0].Else)

	assert.Equal(t, []string{"Wrap up"}, steps[2].Context)
	assert.Equal(t, 8, steps[2].Line)
}

func TestOutline_ElseRunsOffEnd(t *testing.T) {
	w := load(t, "- a", "%%workflow if x = 1%%", "- b")

	steps := w.Outline()
	require.Len(t, steps, 2)
	assert.Equal(t, -1, steps[1].Guards[0].Else)
}
