package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/internal/runtime"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// Controller drives one interactive session over a live document.
// Navigation is persisted as edits: a resume marker before the current step,
// and captured answers next to the prompts that asked for them.
// A Controller is not safe for concurrent use; document edits are serialized
// across controllers through the Manager.
type Controller struct {
	doc     ports.Document
	manager *Manager
	parser  *compiler.Parser
	logger  *slog.Logger
	hooks   domain.LifecycleHooks

	sessionID string
	session   *domain.Session
	wf        *runtime.Workflow
	closed    bool
	// known is the document text as last read or written by this controller.
	known string
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithManager sets the manager used for locking and snapshots.
// Defaults to a manager over an in-memory store.
func WithManager(m *Manager) ControllerOption {
	return func(c *Controller) {
		c.manager = m
	}
}

// WithParser sets the directive parser and marker vocabulary.
func WithParser(p *compiler.Parser) ControllerOption {
	return func(c *Controller) {
		c.parser = p
	}
}

// WithControllerLogger configures the structured logger.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) {
		c.hooks = h
	}
}

// WithSessionID fixes the ID of the session created on Open.
func WithSessionID(id string) ControllerOption {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// WithSession resumes an existing snapshot instead of creating one.
func WithSession(s *domain.Session) ControllerOption {
	return func(c *Controller) {
		c.session = s
	}
}

// NewController creates a controller for doc. Call Open before navigating.
func NewController(doc ports.Document, opts ...ControllerOption) *Controller {
	c := &Controller{
		doc:    doc,
		parser: compiler.NewParser(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.manager == nil {
		c.manager = NewManager(memory.NewStore(), WithLogger(c.logger))
	}
	return c
}

// Open reads the document, isolates the workflow around the cursor and lands
// on the first step (or the step marked for resumption).
func (c *Controller) Open(ctx context.Context) (domain.Step, error) {
	if c.doc == nil {
		return domain.Step{}, domain.ErrNoActiveDocument
	}

	err := c.edit(ctx, func(ctx context.Context) error {
		text, err := c.doc.Read(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				return fmt.Errorf("%w: %v", domain.ErrNoActiveDocument, err)
			}
			return fmt.Errorf("failed to read document: %w", err)
		}
		cursor, err := c.doc.Cursor(ctx)
		if err != nil {
			return fmt.Errorf("failed to read cursor: %w", err)
		}

		wf, err := runtime.New(text, cursor, c.workflowOptions()...)
		if err != nil {
			return err
		}
		wf.Begin()
		c.known = text

		// A resumed session without a marker still knows its step line.
		if c.session != nil && !wf.HasResumeMarker() {
			if k, ok := wf.Local(c.session.Line); ok {
				wf.MoveTo(k)
			}
		}
		c.wf = wf
		return nil
	})
	if err != nil {
		return domain.Step{}, err
	}

	resumed := c.session != nil
	if !resumed {
		s, err := c.manager.Create(ctx, c.sessionID, c.doc.ID())
		if err != nil {
			return domain.Step{}, err
		}
		c.session = s
	}

	step := c.wf.Snapshot()
	if err := c.persist(ctx, step); err != nil {
		return step, err
	}
	if resumed {
		c.logger.Debug("workflow resumed", "session_id", c.session.ID, "document", c.doc.ID(), "line", step.Line)
		return step, nil
	}
	c.logger.Info("workflow opened", "session_id", c.session.ID, "document", c.doc.ID(), "line", step.Line)
	c.emitStep(ctx, domain.EventStepEnter, step)
	return step, nil
}

// Step returns the current step.
func (c *Controller) Step() (domain.Step, error) {
	if err := c.check(); err != nil {
		return domain.Step{}, err
	}
	return c.wf.Snapshot(), nil
}

// Session returns the session snapshot, or nil before Open.
func (c *Controller) Session() *domain.Session {
	return c.session
}

// Unsaved reports whether submitted answers still wait to be written.
func (c *Controller) Unsaved() bool {
	return c.wf != nil && len(c.wf.Staged()) > 0
}

// Next saves submitted answers, moves to the next step and marks it in the document.
func (c *Controller) Next(ctx context.Context) (domain.Step, error) {
	return c.move(ctx, func(ctx context.Context) error {
		if len(c.wf.Staged()) > 0 {
			if err := c.save(ctx); err != nil {
				return err
			}
		}
		c.wf.Advance()
		return nil
	})
}

// Previous discards submitted answers, moves back one step and marks it in the document.
func (c *Controller) Previous(ctx context.Context) (domain.Step, error) {
	return c.move(ctx, func(ctx context.Context) error {
		c.wf.Retreat()
		return nil
	})
}

func (c *Controller) move(ctx context.Context, fn func(context.Context) error) (domain.Step, error) {
	if err := c.check(); err != nil {
		return domain.Step{}, err
	}
	before := c.wf.Snapshot()

	err := c.edit(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return c.writeResume(ctx)
	})
	if err != nil {
		return domain.Step{}, err
	}

	step := c.wf.Snapshot()
	c.emitStep(ctx, domain.EventStepLeave, before)
	c.logger.Debug("step changed", "session_id", c.session.ID, "from", before.Line, "to", step.Line)
	if err := c.persist(ctx, step); err != nil {
		return step, err
	}
	c.emitStep(ctx, domain.EventStepEnter, step)
	return step, nil
}

// Submit stages a value for a pending prompt of the current step.
// Values that cannot be written back as a single directive line are rejected.
func (c *Controller) Submit(ctx context.Context, name, value string, position int) (domain.Step, error) {
	if err := c.check(); err != nil {
		return domain.Step{}, err
	}
	if err := domain.ValidateAnswer(name, value); err != nil {
		return domain.Step{}, err
	}
	if err := c.wf.SubmitPromptValue(name, value, position); err != nil {
		return domain.Step{}, err
	}
	step := c.wf.Snapshot()
	return step, c.persist(ctx, step)
}

// Answer submits a value for the first pending prompt called name.
func (c *Controller) Answer(ctx context.Context, name, value string) (domain.Step, error) {
	if err := c.check(); err != nil {
		return domain.Step{}, err
	}
	for _, p := range c.wf.PendingPrompts() {
		if p.Name == name {
			return c.Submit(ctx, name, value, p.Position)
		}
	}
	for _, a := range c.wf.Staged() {
		if a.Name == name {
			return c.Submit(ctx, name, value, a.Position)
		}
	}
	return domain.Step{}, fmt.Errorf("%w: %s", domain.ErrUnknownPrompt, name)
}

// Save writes submitted answers into the document.
func (c *Controller) Save(ctx context.Context) (domain.Step, error) {
	if err := c.check(); err != nil {
		return domain.Step{}, err
	}
	if err := c.edit(ctx, c.save); err != nil {
		return domain.Step{}, err
	}
	step := c.wf.Snapshot()
	return step, c.persist(ctx, step)
}

// Reload re-reads the document after an external edit.
// Submitted answers that were not saved are dropped.
func (c *Controller) Reload(ctx context.Context) (domain.Step, error) {
	if err := c.check(); err != nil {
		return domain.Step{}, err
	}
	err := c.edit(ctx, func(ctx context.Context) error {
		text, err := c.doc.Read(ctx)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		pos := c.wf.Position()
		wf, err := runtime.New(text, c.wf.Offset(), c.workflowOptions()...)
		if err != nil {
			return err
		}
		if wf.HasResumeMarker() {
			wf.Begin()
		} else {
			wf.MoveTo(pos)
		}
		c.wf = wf
		c.known = text
		return nil
	})
	if err != nil {
		return domain.Step{}, err
	}
	step := c.wf.Snapshot()
	return step, c.persist(ctx, step)
}

// Cancel ends the session, stripping transient markers and answers.
func (c *Controller) Cancel(ctx context.Context) error {
	return c.close(ctx, domain.StatusCancelled)
}

// Complete ends the session on its last step.
func (c *Controller) Complete(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	if c.wf.HasNext() {
		return domain.ErrIncomplete
	}
	return c.close(ctx, domain.StatusCompleted)
}

func (c *Controller) close(ctx context.Context, status domain.SessionStatus) error {
	if err := c.check(); err != nil {
		return err
	}
	err := c.edit(ctx, func(ctx context.Context) error {
		return c.rewrite(ctx, func(i int, line string) []string {
			if i < c.wf.Offset() || i >= c.wf.End() {
				return []string{line}
			}
			if c.parser.IsResume(line) || c.parser.IsTemporary(line) {
				return nil
			}
			if name, ok := c.parser.AnsweredName(line); ok {
				return []string{indentOf(line) + c.parser.Markers().GetLine(name)}
			}
			return []string{line}
		})
	})
	if err != nil {
		return err
	}

	last := c.wf.Snapshot()
	c.wf = nil
	c.closed = true
	c.session.Status = status

	if err := c.manager.Delete(ctx, c.session.ID); err != nil {
		c.logger.Warn("failed to delete session snapshot", "session_id", c.session.ID, "err", err)
	}
	c.logger.Info("workflow closed", "session_id", c.session.ID, "status", status)
	c.emitStep(ctx, domain.EventStepLeave, last)
	if c.hooks.OnSessionEnd != nil {
		c.hooks.OnSessionEnd(ctx, &domain.SessionEvent{
			EventBase: domain.NewEventBase(domain.EventSessionEnd, c.session.ID, c.doc.ID()),
			Status:    status,
		})
	}
	return nil
}

// save turns every staged prompt into the answered marker followed by a
// set_temp line. Answers are applied from the bottom up so earlier line
// numbers stay valid. Caller holds the document lock.
func (c *Controller) save(ctx context.Context) error {
	text, err := c.doc.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	lines := runtime.SplitLines(text)
	m := c.parser.Markers()

	staged := c.wf.Staged()
	for _, a := range staged {
		if a.Position >= len(lines) {
			return fmt.Errorf("%w: %s at line %d", domain.ErrStalePrompt, a.Name, a.Position)
		}
		get, ok := c.parser.Parse(lines[a.Position], a.Position).(domain.GetVariable)
		if !ok || get.Name != a.Name {
			return fmt.Errorf("%w: %s at line %d", domain.ErrStalePrompt, a.Name, a.Position)
		}
		indent := indentOf(lines[a.Position])
		lines[a.Position] = indent + m.AnsweredLine(a.Name)
		lines = insert(lines, a.Position+1, indent+m.SetTempLine(a.Name, a.Value))
	}

	if err := c.doc.Write(ctx, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := c.rescan(ctx); err != nil {
		return err
	}

	for _, a := range staged {
		if c.hooks.OnPromptCapture != nil {
			c.hooks.OnPromptCapture(ctx, &domain.PromptEvent{
				EventBase: domain.NewEventBase(domain.EventPromptCapture, c.session.ID, c.doc.ID()),
				Prompt:    a.Prompt,
			})
		}
	}
	c.logger.Debug("answers saved", "session_id", c.session.ID, "count", len(staged))
	return nil
}

// writeResume moves the resume marker to the current step in two ordered
// round trips: strip every marker in the region, then insert a fresh one.
// Caller holds the document lock.
func (c *Controller) writeResume(ctx context.Context) error {
	err := c.rewrite(ctx, func(i int, line string) []string {
		if i >= c.wf.Offset() && i < c.wf.End() && c.parser.IsResume(line) {
			return nil
		}
		return []string{line}
	})
	if err != nil {
		return err
	}

	at := c.wf.Absolute(c.wf.Position())
	marker := c.parser.Markers().ResumeLine()
	return c.rewrite(ctx, func(i int, line string) []string {
		if i == at {
			return []string{indentOf(line) + marker, line}
		}
		return []string{line}
	})
}

// rewrite applies fn to every document line in one read-modify-write round
// trip, then re-scans the region keeping the current step.
func (c *Controller) rewrite(ctx context.Context, fn func(i int, line string) []string) error {
	text, err := c.doc.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	lines := runtime.SplitLines(text)
	out := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		out = append(out, fn(i, line)...)
	}
	if err := c.doc.Write(ctx, strings.Join(out, "\n")); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return c.rescan(ctx)
}

// rescan rebuilds the workflow from the document. Edits made by the
// controller never move lines before the current step in local terms, so
// the local position carries over.
func (c *Controller) rescan(ctx context.Context) error {
	text, err := c.doc.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	wf, err := runtime.New(text, c.wf.Offset(), c.workflowOptions()...)
	if err != nil {
		return err
	}
	wf.MoveTo(c.wf.Position())
	c.wf = wf
	c.known = text
	return nil
}

// Changed reports whether the document differs from the text this controller
// last read or wrote. Watchers use it to tell external edits from its own.
func (c *Controller) Changed(ctx context.Context) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	text, err := c.doc.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read document: %w", err)
	}
	return text != c.known, nil
}

func (c *Controller) edit(ctx context.Context, fn func(context.Context) error) error {
	return c.manager.WithLock(ctx, DocumentKey(c.doc.ID()), fn)
}

func (c *Controller) persist(ctx context.Context, step domain.Step) error {
	before := *c.session
	c.session.Apply(step)
	if diff := domain.Diff(&before, c.session); diff != nil {
		c.logger.Debug("session updated", "session_id", c.session.ID, "changed", diff.Changed())
	}
	if err := c.manager.Save(ctx, c.session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (c *Controller) check() error {
	if c.closed || c.wf == nil {
		return domain.ErrSessionClosed
	}
	return nil
}

func (c *Controller) workflowOptions() []runtime.Option {
	return []runtime.Option{runtime.WithParser(c.parser), runtime.WithLogger(c.logger)}
}

func (c *Controller) emitStep(ctx context.Context, t domain.EventType, step domain.Step) {
	hook := c.hooks.OnStepEnter
	if t == domain.EventStepLeave {
		hook = c.hooks.OnStepLeave
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase: domain.NewEventBase(t, c.session.ID, c.doc.ID()),
		Line:      step.Line,
		Context:   step.Context,
	})
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func insert(lines []string, at int, line string) []string {
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = line
	return lines
}
