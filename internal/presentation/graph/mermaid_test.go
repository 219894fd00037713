package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/waypoint/internal/presentation/graph"
	"github.com/aretw0/waypoint/internal/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outline(t *testing.T, lines ...string) []runtime.OutlineStep {
	t.Helper()
	all := append([]string{"%%workflow start%%"}, lines...)
	all = append(all, "%%workflow end%%")
	w, err := runtime.New(strings.Join(all, "\n"), 0)
	require.NoError(t, err)
	return w.Outline()
}

func TestGenerateMermaid(t *testing.T) {
	steps := outline(t,
		"# Deploy",
		"- Build",
		"%%workflow get version%%",
		"%%workflow if version = 1.0%%",
		"- Announce \"release\"",
		"- Done",
	)

	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			contains: []string{
				`start(("start"))`,
				`s1[/"Deploy <br/> Build <br/> ? version"/]`,
				`s4["Deploy <br/> Announce 'release'"]`,
				`finish(("end"))`,
			},
			excludes: []string{"classDef"},
		},
		{
			name: "Edges",
			contains: []string{
				"start --> s1",
				`s1 -- "version = 1.0" --> s4`,
				`s1 -. "else" .-> s5`,
				"s4 --> s5",
				"s5 --> finish",
			},
		},
		{
			name:    "Overlay",
			overlay: &graph.GraphOverlay{Current: 4},
			contains: []string{
				"classDef current",
				"class s1 visited;",
				"class s4 current;",
			},
			excludes: []string{"class s5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(steps, tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateMermaid_ElseToEnd(t *testing.T) {
	got := graph.GenerateMermaid(outline(t, "- a", "%%workflow if x = 1%%", "- b"), nil)
	assert.Contains(t, got, `s0 -. "else" .-> finish`)
}
