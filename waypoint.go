package waypoint

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/internal/runtime"
	"github.com/aretw0/waypoint/pkg/adapters/file"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/aretw0/waypoint/pkg/session"
)

// Version is the release reported by the CLI and the remote adapters.
// Release builds override it with -ldflags "-X github.com/aretw0/waypoint.Version=...".
var Version = "dev"

// Engine is the high-level entry point for the waypoint library.
// It wires a document store, a snapshot store and the directive vocabulary
// into sessions.
type Engine struct {
	docs    ports.DocumentStore
	store   ports.StateStore
	locker  ports.DistributedLocker
	markers *domain.Markers
	hooks   domain.LifecycleHooks
	logger  *slog.Logger

	parser  *compiler.Parser
	manager *session.Manager
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithDocuments injects a custom DocumentStore, bypassing the directory store.
func WithDocuments(docs ports.DocumentStore) Option {
	return func(e *Engine) {
		e.docs = docs
	}
}

// WithStateStore keeps session snapshots in s instead of memory.
func WithStateStore(s ports.StateStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker serializes document edits across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithMarkers changes the directive vocabulary.
func WithMarkers(m domain.Markers) Option {
	return func(e *Engine) {
		e.markers = &m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine over the Markdown files under root.
// If WithDocuments is provided, root can be empty and is only used as a name.
func New(root string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.docs == nil {
		if root == "" {
			return nil, fmt.Errorf("root is required when no document store is provided")
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(abs)
		eng.docs = file.NewDocuments(abs, file.WithLogger(eng.logger))
	} else if root != "" {
		eng.Name = filepath.Base(root)
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("vault", eng.Name)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	var parserOpts []compiler.Option
	if eng.markers != nil {
		parserOpts = append(parserOpts, compiler.WithMarkers(*eng.markers))
	}
	eng.parser = compiler.NewParser(parserOpts...)

	managerOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(eng.locker))
	}
	eng.manager = session.NewManager(eng.store, managerOpts...)
	return eng, nil
}

// Open starts a session on the workflow region enclosing line and returns
// its controller, positioned on the first step or the marked resume step.
func (e *Engine) Open(ctx context.Context, documentID string, line int) (*session.Controller, domain.Step, error) {
	c := session.NewController(session.NewStoredDocument(e.docs, documentID, line), e.controllerOptions()...)
	step, err := c.Open(ctx)
	if err != nil {
		return nil, domain.Step{}, err
	}
	return c, step, nil
}

// Resume reopens a stored session.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*session.Controller, domain.Step, error) {
	snap, err := e.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, domain.Step{}, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	doc := session.NewStoredDocument(e.docs, snap.DocumentID, snap.Line)
	c := session.NewController(doc, append(e.controllerOptions(), session.WithSession(snap))...)
	step, err := c.Open(ctx)
	if err != nil {
		return nil, domain.Step{}, err
	}
	return c, step, nil
}

// Service returns the stateless navigator used by remote hosts.
func (e *Engine) Service() *session.Service {
	return session.NewService(e.docs, e.manager,
		session.WithServiceParser(e.parser),
		session.WithServiceLogger(e.logger),
		session.WithServiceHooks(e.hooks),
	)
}

// Outline lists the steps of the region enclosing line without opening a session.
func (e *Engine) Outline(ctx context.Context, documentID string, line int) ([]runtime.OutlineStep, error) {
	text, err := e.docs.Read(ctx, documentID)
	if err != nil {
		return nil, err
	}
	wf, err := runtime.New(text, line, runtime.WithParser(e.parser), runtime.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	return wf.Outline(), nil
}

// Run drives a session over plain text IO until it closes, the input ends or
// ctx is cancelled. Input lines are runner commands ("next", "name=value", ...).
func (e *Engine) Run(ctx context.Context, c *session.Controller, in io.Reader, out io.Writer) error {
	r := runner.NewRunner(
		runner.WithLogger(e.logger),
		runner.WithHeadless(true),
		runner.WithSignals(false),
		runner.WithInputHandler(runner.NewTextHandler(in, out)),
	)
	return r.Run(ctx, c)
}

// Documents returns the document store sessions read and write.
func (e *Engine) Documents() ports.DocumentStore { return e.docs }

// Sessions returns the snapshot manager.
func (e *Engine) Sessions() *session.Manager { return e.manager }

func (e *Engine) controllerOptions() []session.ControllerOption {
	return []session.ControllerOption{
		session.WithManager(e.manager),
		session.WithParser(e.parser),
		session.WithControllerLogger(e.logger),
		session.WithHooks(e.hooks),
	}
}
