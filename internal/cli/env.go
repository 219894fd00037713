package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/internal/presentation/tui"
	"github.com/aretw0/waypoint/pkg/adapters/file"
	loamadapter "github.com/aretw0/waypoint/pkg/adapters/loam"
	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/adapters/redis"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/observability"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/aretw0/waypoint/pkg/settings"
	"github.com/prometheus/client_golang/prometheus"
)

// Env holds the dependencies every command builds from settings.
type Env struct {
	Settings  *settings.Settings
	Logger    *slog.Logger
	Parser    *compiler.Parser
	Documents ports.DocumentStore
	Store     ports.StateStore
	Manager   *session.Manager
	// Metrics is nil unless enabled with WithMetrics.
	Metrics *observability.Metrics

	closers []func() error
}

type envConfig struct {
	logOutput io.Writer
	debug     bool
	metrics   prometheus.Registerer
	documents ports.DocumentStore
}

// EnvOption configures NewEnv.
type EnvOption func(*envConfig)

// WithLogOutput redirects the application log. Defaults to Stderr.
func WithLogOutput(w io.Writer) EnvOption {
	return func(c *envConfig) {
		c.logOutput = w
	}
}

// WithDebug forces debug level logging regardless of settings.
func WithDebug(debug bool) EnvOption {
	return func(c *envConfig) {
		c.debug = debug
	}
}

// WithMetrics registers Prometheus collectors on reg and feeds them from
// session hooks.
func WithMetrics(reg prometheus.Registerer) EnvOption {
	return func(c *envConfig) {
		c.metrics = reg
	}
}

// WithDocumentStore bypasses the documents settings.
func WithDocumentStore(docs ports.DocumentStore) EnvOption {
	return func(c *envConfig) {
		c.documents = docs
	}
}

// NewEnv opens the configured document and snapshot stores.
func NewEnv(s *settings.Settings, opts ...EnvOption) (*Env, error) {
	cfg := envConfig{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}
	if s == nil {
		s = settings.Default()
	}

	level := logging.ParseLevel(s.Log.Level)
	if cfg.debug {
		level = slog.LevelDebug
	}
	env := &Env{
		Settings: s,
		Logger:   logging.NewWithWriter(cfg.logOutput, level, s.Log.Format),
		Parser:   compiler.NewParser(compiler.WithMarkers(s.Markers)),
	}

	env.Documents = cfg.documents
	if env.Documents == nil {
		docs, err := openDocuments(s.Documents, env.Logger)
		if err != nil {
			return nil, err
		}
		env.Documents = docs
	}

	store, locker, closer, err := openStore(s.Store)
	if err != nil {
		return nil, err
	}
	if store, err = protectStore(store, s.Store); err != nil {
		if closer != nil {
			closer()
		}
		return nil, err
	}
	env.Store = store
	if closer != nil {
		env.closers = append(env.closers, closer)
	}

	managerOpts := []session.Option{session.WithLogger(env.Logger)}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker))
	}
	env.Manager = session.NewManager(store, managerOpts...)

	if cfg.metrics != nil {
		env.Metrics = observability.NewMetrics(cfg.metrics)
	}
	return env, nil
}

func openDocuments(s settings.DocumentSettings, logger *slog.Logger) (ports.DocumentStore, error) {
	switch s.Backend {
	case settings.BackendLoam:
		notes, err := loamadapter.Open(s.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to open notes vault %s: %w", s.Root, err)
		}
		return notes, nil
	case settings.BackendFile, "":
		return file.NewDocuments(s.Root, file.WithLogger(logger)), nil
	}
	return nil, fmt.Errorf("unknown document backend %q", s.Backend)
}

func openStore(s settings.StoreSettings) (ports.StateStore, ports.DistributedLocker, func() error, error) {
	switch s.Backend {
	case settings.BackendMemory:
		return memory.NewStore(), nil, nil, nil
	case settings.BackendFile, "":
		return file.New(s.Path), nil, nil, nil
	case settings.BackendRedis:
		var opts []redis.Option
		if s.TTL > 0 {
			opts = append(opts, redis.WithTTL(s.TTL))
		}
		store := redis.New(s.RedisAddr, s.RedisPassword, s.RedisDB, opts...)
		return store, redis.NewLocker(store.Client(), redis.DefaultPrefix), store.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store backend %q", s.Backend)
}

// protectStore applies snapshot masking and encryption when configured.
// Masking runs first so sealed snapshots never hold the masked values.
func protectStore(store ports.StateStore, s settings.StoreSettings) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if len(s.Mask) > 0 {
		mask, err := middleware.NewPIIMiddleware(s.Mask)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mask)
	}
	if s.EncryptionKey != "" {
		cfg, err := middleware.ParseKeys(s.EncryptionKey, s.FallbackKeys...)
		if err != nil {
			return nil, err
		}
		seal, err := middleware.NewEncryptionMiddleware(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, seal)
	}
	return middleware.Chain(store, mws...), nil
}

// Hooks combines audit logging with metrics when enabled.
func (e *Env) Hooks() domain.LifecycleHooks {
	hooks := []domain.LifecycleHooks{observability.LogHooks(e.Logger)}
	if e.Metrics != nil {
		hooks = append(hooks, e.Metrics.Hooks())
	}
	return domain.MergeHooks(hooks...)
}

// Service builds the stateless navigator used by remote adapters and one-shot commands.
func (e *Env) Service() *session.Service {
	return session.NewService(e.Documents, e.Manager,
		session.WithServiceParser(e.Parser),
		session.WithServiceLogger(e.Logger),
		session.WithServiceHooks(e.Hooks()),
	)
}

// Controller prepares a session. With a known sessionID the stored snapshot
// is resumed and documentID and line may be empty; resumed reports that.
func (e *Env) Controller(ctx context.Context, documentID string, line int, sessionID string) (c *session.Controller, resumed bool, err error) {
	opts := []session.ControllerOption{
		session.WithManager(e.Manager),
		session.WithParser(e.Parser),
		session.WithControllerLogger(e.Logger),
		session.WithHooks(e.Hooks()),
	}

	if sessionID != "" {
		snap, err := e.Manager.Load(ctx, sessionID)
		switch {
		case err == nil:
			doc := session.NewStoredDocument(e.Documents, snap.DocumentID, snap.Line)
			return session.NewController(doc, append(opts, session.WithSession(snap))...), true, nil
		case !errors.Is(err, domain.ErrSessionNotFound):
			return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
		}
		opts = append(opts, session.WithSessionID(sessionID))
	}

	if documentID == "" {
		return nil, false, domain.ErrNoActiveDocument
	}
	return session.NewController(session.NewStoredDocument(e.Documents, documentID, line), opts...), false, nil
}

// Discard cancels a stored session, cleaning its document when it can still
// be read. A missing session is not an error.
func (e *Env) Discard(ctx context.Context, sessionID string) error {
	c, resumed, err := e.Controller(ctx, "", 0, sessionID)
	if err != nil && !errors.Is(err, domain.ErrNoActiveDocument) {
		return err
	}
	if !resumed {
		return nil
	}
	if _, err := c.Open(ctx); err != nil {
		e.Logger.Warn("document unavailable, dropping snapshot only", "session_id", sessionID, "err", err)
		return e.Manager.Delete(ctx, sessionID)
	}
	return c.Cancel(ctx)
}

// Renderer returns the Markdown renderer for out. Output that is not a
// terminal is never styled.
func (e *Env) Renderer(out io.Writer) runner.ContentRenderer {
	r := e.Settings.Render
	plain := r.Plain || !runner.IsTerminal(out)
	return runner.ContentRenderer(tui.NewRenderer(
		tui.WithStyle(r.Style),
		tui.WithWordWrap(r.Width),
		tui.WithPlain(plain),
	))
}

// Close releases store connections.
func (e *Env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
