package runtime

import (
	"strings"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/pkg/domain"
)

// holds evaluates c against the current variables. Assignments between the
// current step and the conditional are not applied.
func (w *Workflow) holds(c domain.Conditional) bool {
	return strings.TrimSpace(w.variables[c.Variable]) == strings.TrimSpace(c.Expected)
}

// nextStep returns the first bullet after from, skipping blocks guarded by
// conditionals that do not hold.
func (w *Workflow) nextStep(from int) (int, bool) {
	return w.scanFrom(from + 1)
}

// scanFrom looks for a step at or after i.
func (w *Workflow) scanFrom(i int) (int, bool) {
	if i < 0 {
		i = 0
	}
	for i < len(w.lines) {
		line := w.lines[i]
		if d, ok := w.parser.Parse(line, w.absolute(i)).(domain.Conditional); ok {
			if w.holds(d) {
				i++
				continue
			}
			resume, _, ok := w.skipTarget(i + 1)
			if !ok {
				return 0, false
			}
			w.logger.Debug("conditional skipped", "line", w.absolute(i), "variable", d.Variable, "resume", resume)
			i = resume
			continue
		}
		if compiler.IsBullet(line) {
			return i, true
		}
		i++
	}
	return 0, false
}

// previousStep returns the closest bullet before from. Conditionals are not
// evaluated going backward.
func (w *Workflow) previousStep(from int) (int, bool) {
	if from > len(w.lines) {
		from = len(w.lines)
	}
	for i := from - 1; i >= 0; i-- {
		if compiler.IsBullet(w.lines[i]) {
			return i, true
		}
	}
	return 0, false
}

// skipBlock skips the block opened at from. A heading block ends at the next
// heading of equal or lower depth, whose index is returned as is. A bullet
// block is a single step: the result is the step after it.
func (w *Workflow) skipBlock(from int) (int, bool) {
	resume, heading, ok := w.skipTarget(from)
	if !ok {
		return 0, false
	}
	if heading {
		return resume, true
	}
	return w.scanFrom(resume)
}

// skipTarget returns where scanning resumes after the block opened at from.
// heading is true when the index is the heading closing a section.
func (w *Workflow) skipTarget(from int) (resume int, heading bool, ok bool) {
	for i := from; i < len(w.lines); i++ {
		if depth := compiler.HeadingDepth(w.lines[i]); depth > 0 {
			for j := i + 1; j < len(w.lines); j++ {
				if d := compiler.HeadingDepth(w.lines[j]); d > 0 && d <= depth {
					return j, true, true
				}
			}
			return 0, false, false
		}
		if compiler.IsBullet(w.lines[i]) {
			return i + 1, false, true
		}
	}
	return 0, false, false
}

// collectStepText gathers the raw lines of the step at from, up to the next
// bullet. A conditional that holds pulls its guarded block in; one that does
// not ends the step.
func (w *Workflow) collectStepText(from int) ([]string, bool) {
	if from < 0 || from >= len(w.lines) {
		return nil, false
	}

	out := []string{w.lines[from]}
	i := from + 1
	for i < len(w.lines) {
		line := w.lines[i]
		if compiler.IsBullet(line) {
			break
		}
		if c, ok := w.parser.Parse(line, w.absolute(i)).(domain.Conditional); ok {
			if !w.holds(c) {
				break
			}
			end := w.guardedEnd(i + 1)
			out = append(out, w.lines[i:end]...)
			i = end
			continue
		}
		out = append(out, line)
		i++
	}
	return out, true
}

// guardedEnd is the exclusive end of the block a holding conditional guards.
func (w *Workflow) guardedEnd(from int) int {
	resume, heading, ok := w.skipTarget(from)
	if !ok {
		return len(w.lines)
	}
	if heading {
		return resume
	}
	if next, ok := w.scanFrom(resume); ok {
		return next
	}
	return len(w.lines)
}
