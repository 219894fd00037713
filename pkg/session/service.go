package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// Service implements ports.Navigator over a DocumentStore.
// It keeps nothing in memory between calls: each call resumes the session
// from its snapshot and the document, applies one action and returns.
type Service struct {
	docs    ports.DocumentStore
	manager *Manager
	parser  *compiler.Parser
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

var _ ports.Navigator = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceParser sets the marker vocabulary for every session.
func WithServiceParser(p *compiler.Parser) ServiceOption {
	return func(s *Service) {
		s.parser = p
	}
}

// WithServiceLogger configures the structured logger.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithServiceHooks registers lifecycle callbacks for every session.
func WithServiceHooks(h domain.LifecycleHooks) ServiceOption {
	return func(s *Service) {
		s.hooks = h
	}
}

// NewService creates a Service. The manager provides snapshots and locking.
func NewService(docs ports.DocumentStore, manager *Manager, opts ...ServiceOption) *Service {
	s := &Service{
		docs:    docs,
		manager: manager,
		parser:  compiler.NewParser(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a new session on the region enclosing line.
func (s *Service) Start(ctx context.Context, documentID string, line int) (*domain.Session, domain.Step, error) {
	return s.StartWithID(ctx, "", documentID, line)
}

// StartWithID opens a new session with a caller-chosen ID.
func (s *Service) StartWithID(ctx context.Context, sessionID, documentID string, line int) (*domain.Session, domain.Step, error) {
	c := NewController(NewStoredDocument(s.docs, documentID, line), s.controllerOptions(WithSessionID(sessionID))...)
	step, err := c.Open(ctx)
	if err != nil {
		return nil, domain.Step{}, err
	}
	return c.Session(), step, nil
}

// Current renders the step a session is on.
func (s *Service) Current(ctx context.Context, sessionID string) (*domain.Session, domain.Step, error) {
	c, step, err := s.resume(ctx, sessionID)
	if err != nil {
		return nil, domain.Step{}, err
	}
	return c.Session(), step, nil
}

// Next moves a session forward.
func (s *Service) Next(ctx context.Context, sessionID string) (domain.Step, error) {
	c, _, err := s.resume(ctx, sessionID)
	if err != nil {
		return domain.Step{}, err
	}
	return c.Next(ctx)
}

// Previous moves a session backward.
func (s *Service) Previous(ctx context.Context, sessionID string) (domain.Step, error) {
	c, _, err := s.resume(ctx, sessionID)
	if err != nil {
		return domain.Step{}, err
	}
	return c.Previous(ctx)
}

// Answer submits and saves a prompt value in one call. A negative position
// selects the first pending prompt with that name.
func (s *Service) Answer(ctx context.Context, sessionID, name, value string, position int) (domain.Step, error) {
	c, _, err := s.resume(ctx, sessionID)
	if err != nil {
		return domain.Step{}, err
	}
	if position < 0 {
		_, err = c.Answer(ctx, name, value)
	} else {
		_, err = c.Submit(ctx, name, value, position)
	}
	if err != nil {
		return domain.Step{}, err
	}
	return c.Save(ctx)
}

// Cancel closes a session and cleans the document.
func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	c, _, err := s.resume(ctx, sessionID)
	if err != nil {
		return err
	}
	return c.Cancel(ctx)
}

// Complete closes a session at its last step.
func (s *Service) Complete(ctx context.Context, sessionID string) error {
	c, _, err := s.resume(ctx, sessionID)
	if err != nil {
		return err
	}
	return c.Complete(ctx)
}

// Sessions lists the open session IDs.
func (s *Service) Sessions(ctx context.Context) ([]string, error) {
	return s.manager.List(ctx)
}

// Documents lists the documents sessions can be started on.
func (s *Service) Documents(ctx context.Context) ([]string, error) {
	return s.docs.List(ctx)
}

// Read returns the raw text of a document.
func (s *Service) Read(ctx context.Context, documentID string) (string, error) {
	return s.docs.Read(ctx, documentID)
}

func (s *Service) resume(ctx context.Context, sessionID string) (*Controller, domain.Step, error) {
	snap, err := s.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, domain.Step{}, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	c := NewController(NewStoredDocument(s.docs, snap.DocumentID, snap.Line), s.controllerOptions(WithSession(snap))...)
	step, err := c.Open(ctx)
	if err != nil {
		return nil, domain.Step{}, err
	}
	return c, step, nil
}

func (s *Service) controllerOptions(extra ...ControllerOption) []ControllerOption {
	opts := []ControllerOption{
		WithManager(s.manager),
		WithParser(s.parser),
		WithControllerLogger(s.logger),
		WithHooks(s.hooks),
	}
	return append(opts, extra...)
}
