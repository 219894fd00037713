package runtime

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Answer is a prompt value submitted for the current step but not yet saved
// into the document.
type Answer struct {
	domain.Prompt
	Value string `json:"value"`
}

// Workflow is the interpreter state of one session over one region.
// It is not safe for concurrent use; a session owns it exclusively.
type Workflow struct {
	region
	parser *compiler.Parser
	logger *slog.Logger

	position  int
	context   []string
	variables map[string]string
	pending   []domain.Prompt
	staged    []Answer
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithParser sets the directive parser (and with it the marker vocabulary).
func WithParser(p *compiler.Parser) Option {
	return func(w *Workflow) {
		w.parser = p
	}
}

// WithLogger sets the logger for debug traces of navigation.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = l
	}
}

// New isolates the region enclosing line and positions the workflow on the
// resume marker if one is present. Call Begin to land on the first step.
func New(text string, line int, opts ...Option) (*Workflow, error) {
	w := &Workflow{
		parser:    compiler.NewParser(),
		logger:    logging.NewNop(),
		variables: make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}

	r, err := locate(w.parser, text, line)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	w.region = r
	if n := len(r.resumes); n > 0 {
		w.position = r.resumes[n-1]
	}
	w.Recompute()

	w.logger.Debug("workflow loaded", "offset", r.offset, "lines", len(r.lines), "position", w.position)
	return w, nil
}

// Begin moves onto the first step at or after the current position.
func (w *Workflow) Begin() {
	if next, ok := w.nextStep(w.position - 1); ok {
		w.position = next
	} else if w.position >= len(w.lines) {
		w.position, _ = w.previousStep(len(w.lines))
	}
	w.Recompute()
}

// Advance moves to the next step. It is a no-op on the last step.
// Submitted answers that were not saved are discarded.
func (w *Workflow) Advance() {
	if next, ok := w.nextStep(w.position); ok {
		w.position = next
	}
	w.staged = nil
	w.Recompute()
}

// Retreat moves to the previous step. It is a no-op on the first step.
func (w *Workflow) Retreat() {
	if prev, ok := w.previousStep(w.position); ok {
		w.position = prev
	}
	w.staged = nil
	w.Recompute()
}

// MoveTo places the workflow on local index k, keeping submitted answers.
// Out of range indexes are ignored.
func (w *Workflow) MoveTo(k int) {
	if k >= 0 && k < len(w.lines) {
		w.position = k
	}
	w.Recompute()
}

// HasNext reports whether a step follows the current one.
func (w *Workflow) HasNext() bool {
	_, ok := w.nextStep(w.position)
	return ok
}

// HasPrevious reports whether a step precedes the current one.
func (w *Workflow) HasPrevious() bool {
	_, ok := w.previousStep(w.position)
	return ok
}

// Recompute rebuilds context and variables by replaying every directive in
// [0, position), then overlays the answers captured for the current step:
// set_temp lines already saved under it and submitted values. Pending
// prompts are the unanswered get lines of the current step only.
// Calling it twice without moving yields the same state.
func (w *Workflow) Recompute() {
	w.context = nil
	w.variables = make(map[string]string)
	w.pending = nil

	end := w.position
	if end > len(w.lines) {
		end = len(w.lines)
	}
	for k := 0; k < end; k++ {
		if d := w.parser.Parse(w.lines[k], w.absolute(k)); d != nil {
			w.follow(d)
		}
	}

	for k := w.position + 1; k < len(w.lines) && !compiler.IsBullet(w.lines[k]); k++ {
		if tmp, ok := w.parser.Parse(w.lines[k], w.absolute(k)).(domain.SetTemporaryVariable); ok {
			w.variables[tmp.Name] = tmp.Value
		}
	}
	for _, a := range w.staged {
		w.variables[a.Name] = a.Value
	}

	lines, _ := w.collectStepText(w.position)
	for i, line := range lines {
		get, ok := w.parser.Parse(line, 0).(domain.GetVariable)
		if !ok {
			continue
		}
		get.Position = w.stepLineAbsolute(i)
		if w.isStaged(get.Name, get.Position) {
			continue
		}
		w.pending = append(w.pending, domain.PromptFrom(get))
	}
}

func (w *Workflow) follow(d domain.Directive) {
	switch d := d.(type) {
	case domain.SetVariable:
		w.variables[d.Name] = d.Value
	case domain.SetTemporaryVariable:
		w.variables[d.Name] = d.Value
	case domain.UnsetVariable:
		delete(w.variables, d.Name)
	case domain.SetContext:
		if d.Depth < len(w.context) {
			w.context = w.context[:d.Depth]
		}
		w.context = append(w.context, d.Label)
	case domain.GetVariable, domain.Conditional:
		// prompts belong to the step that shows them; conditionals to the navigator
	default:
		w.logger.Warn("unhandled directive", "kind", d.Kind())
	}
}

// stepLineAbsolute maps the i-th raw line of the current step to its document line.
// Step lines are contiguous from the current position.
func (w *Workflow) stepLineAbsolute(i int) int {
	return w.absolute(w.position + i)
}

func (w *Workflow) isStaged(name string, position int) bool {
	for _, a := range w.staged {
		if a.Name == name && a.Position == position {
			return true
		}
	}
	return false
}

// SubmitPromptValue stages an answer for a pending prompt of the current step.
// The value is visible in Variables until the step is left.
func (w *Workflow) SubmitPromptValue(name, value string, position int) error {
	found := false
	for _, p := range w.pending {
		if p.Name == name && p.Position == position {
			found = true
			break
		}
	}
	if !found {
		for i, a := range w.staged {
			if a.Name == name && a.Position == position {
				w.staged[i].Value = value
				w.Recompute()
				return nil
			}
		}
		return fmt.Errorf("%w: %s at line %d", domain.ErrUnknownPrompt, name, position)
	}

	w.staged = append(w.staged, Answer{Prompt: domain.Prompt{Name: name, Position: position}, Value: value})
	w.logger.Debug("prompt answered", "name", name, "line", position)
	w.Recompute()
	return nil
}

// Staged returns submitted answers ordered by descending document line.
func (w *Workflow) Staged() []Answer {
	out := append([]Answer(nil), w.staged...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position > out[j].Position })
	return out
}

// Discard drops submitted answers.
func (w *Workflow) Discard() {
	w.staged = nil
	w.Recompute()
}

// Context returns the breadcrumb, outermost heading first.
func (w *Workflow) Context() []string {
	return append([]string(nil), w.context...)
}

// Variables returns a copy of the current bindings.
func (w *Workflow) Variables() map[string]string {
	out := make(map[string]string, len(w.variables))
	for k, v := range w.variables {
		out[k] = v
	}
	return out
}

// PendingPrompts returns the prompts of the current step awaiting a value.
func (w *Workflow) PendingPrompts() []domain.Prompt {
	return append([]domain.Prompt(nil), w.pending...)
}

// StepLines returns the raw lines of the current step, directives included.
func (w *Workflow) StepLines() []string {
	lines, _ := w.collectStepText(w.position)
	return lines
}

// StepText returns the displayable lines of the current step.
func (w *Workflow) StepText() []string {
	var out []string
	for _, line := range w.StepLines() {
		if w.parser.IsControl(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Position returns the local index of the current step.
func (w *Workflow) Position() int { return w.position }

// Lines returns a copy of the region lines.
func (w *Workflow) Lines() []string { return append([]string(nil), w.lines...) }

// Absolute translates a local index into a document line.
func (w *Workflow) Absolute(k int) int { return w.absolute(k) }

// Offset is the document line of the first region line.
func (w *Workflow) Offset() int { return w.offset }

// LastLine is the end marker's document line relative to Offset.
func (w *Workflow) LastLine() int { return w.lastLine }

// Parser returns the parser the workflow reads directives with.
func (w *Workflow) Parser() *compiler.Parser { return w.parser }

// Snapshot returns a read-only view of the current step.
func (w *Workflow) Snapshot() domain.Step {
	return domain.Step{
		Position:    w.position,
		Line:        w.absolute(w.position),
		Text:        w.StepText(),
		Context:     w.Context(),
		Variables:   w.Variables(),
		Prompts:     w.PendingPrompts(),
		HasNext:     w.HasNext(),
		HasPrevious: w.HasPrevious(),
	}
}

// Local returns the local index of document line abs, if it lies in the region.
func (w *Workflow) Local(abs int) (int, bool) {
	for k := range w.lines {
		if w.absolute(k) == abs {
			return k, true
		}
	}
	return 0, false
}

// HasResumeMarker reports whether the region held a resume marker when loaded.
func (w *Workflow) HasResumeMarker() bool { return len(w.resumes) > 0 }

// End is the document line of the end marker.
func (w *Workflow) End() int { return w.offset + w.lastLine }

// ResumeLines returns the document lines the resume markers occupied when loaded.
func (w *Workflow) ResumeLines() []int {
	out := make([]int, 0, len(w.resumes))
	for _, m := range w.resumes {
		out = append(out, w.absolute(m)-1)
	}
	return out
}
