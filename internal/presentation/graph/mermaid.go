package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/waypoint/internal/runtime"
)

// GraphOverlay marks the step a session is on.
// Steps before it in document order are styled as visited.
type GraphOverlay struct {
	Current int
}

const (
	startID = "start"
	endID   = "finish"
)

// GenerateMermaid produces a Mermaid flowchart of a workflow outline.
// Shapes:
// - Start and end: ((Circle))
// - Step with prompts: [/Parallelogram/]
// - Default: [Rectangle]
// Guarded steps get a labelled edge from the step before them and a dotted
// "else" edge to where navigation lands when the condition fails.
func GenerateMermaid(steps []runtime.OutlineStep, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    %s((\"start\"))\n", startID)

	for _, step := range steps {
		id := nodeID(step.Position)
		opener, closer := "[", "]"
		if len(step.Prompts) > 0 {
			opener, closer = "[/", "/]"
		}
		label := escape(step.Label)
		if len(step.Context) > 0 {
			label = escape(strings.Join(step.Context, " > ")) + " <br/> " + label
		}
		if len(step.Prompts) > 0 {
			label += " <br/> ? " + escape(strings.Join(step.Prompts, ", "))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
	}
	fmt.Fprintf(&sb, "    %s((\"end\"))\n", endID)

	from := startID
	for _, step := range steps {
		to := nodeID(step.Position)
		if len(step.Guards) == 0 {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
		}
		for _, g := range step.Guards {
			cond := escape(fmt.Sprintf("%s = %s", g.Variable, g.Expected))
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, cond, to)
			landing := endID
			if g.Else >= 0 {
				landing = nodeID(g.Else)
			}
			fmt.Fprintf(&sb, "    %s -. \"else\" .-> %s\n", from, landing)
		}
		from = to
	}
	fmt.Fprintf(&sb, "    %s --> %s\n", from, endID)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, step := range steps {
			switch {
			case step.Position < overlay.Current:
				fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(step.Position))
			case step.Position == overlay.Current:
				fmt.Fprintf(&sb, "    class %s current;\n", nodeID(step.Position))
			}
		}
	}

	return sb.String()
}

func nodeID(position int) string {
	return fmt.Sprintf("s%d", position)
}

// escape keeps labels inside Mermaid's quoted strings.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "%%", "%")
	return s
}
