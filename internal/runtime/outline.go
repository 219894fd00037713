package runtime

import (
	"strings"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Guard is a conditional met between two steps.
type Guard struct {
	domain.Conditional
	// Line is the document line of the conditional.
	Line int
	// Else is the position navigation lands on when the condition fails,
	// or -1 when it runs off the end of the workflow. Further conditionals
	// on the way are not evaluated.
	Else int
}

// OutlineStep is the static shape of one step, independent of variables.
type OutlineStep struct {
	Position int
	Line     int
	Label    string
	Context  []string
	Prompts  []string
	// Guards are the conditionals between the previous step and this one.
	Guards []Guard
}

// Outline lists every bullet of the region in document order.
func (w *Workflow) Outline() []OutlineStep {
	var (
		steps   []OutlineStep
		context []string
		guards  []Guard
	)
	for i, line := range w.lines {
		switch d := w.parser.Parse(line, w.absolute(i)).(type) {
		case domain.SetContext:
			if d.Depth < len(context) {
				context = context[:d.Depth]
			}
			context = append(context, d.Label)
		case domain.Conditional:
			guards = append(guards, Guard{Conditional: d, Line: w.absolute(i), Else: w.staticElse(i + 1)})
		case domain.GetVariable:
			if n := len(steps); n > 0 {
				steps[n-1].Prompts = append(steps[n-1].Prompts, d.Name)
			}
		}
		if !compiler.IsBullet(line) {
			continue
		}
		steps = append(steps, OutlineStep{
			Position: i,
			Line:     w.absolute(i),
			Label:    strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-")),
			Context:  append([]string(nil), context...),
			Guards:   guards,
		})
		guards = nil
	}
	return steps
}

// staticElse is the first bullet at or after the block opened at from is skipped.
func (w *Workflow) staticElse(from int) int {
	resume, _, ok := w.skipTarget(from)
	if !ok {
		return -1
	}
	for i := resume; i < len(w.lines); i++ {
		if compiler.IsBullet(w.lines[i]) {
			return i
		}
	}
	return -1
}
