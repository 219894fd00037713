package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/aretw0/waypoint/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
)

// IDStarter is implemented by navigators that accept caller-chosen session IDs.
type IDStarter interface {
	StartWithID(ctx context.Context, sessionID, documentID string, line int) (*domain.Session, domain.Step, error)
}

// Server exposes a ports.Navigator as a REST API.
type Server struct {
	Navigator ports.Navigator
	Documents ports.DocumentStore
	Streams   *StreamManager

	logger  *slog.Logger
	version string
	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithDocuments enables GET /documents.
func WithDocuments(docs ports.DocumentStore) Option {
	return func(s *Server) {
		s.Documents = docs
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithMetrics mounts a metrics handler on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for a navigator.
func NewHandler(nav ports.Navigator, opts ...Option) http.Handler {
	s := &Server{
		Navigator: nav,
		Streams:   NewStreamManager(),
		logger:    logging.NewNop(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return enableCORS(s.Routes())
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/documents", s.ListDocuments)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.CancelSession)
			r.Post("/next", s.Next)
			r.Post("/previous", s.Previous)
			r.Post("/answers", s.Answer)
			r.Post("/complete", s.Complete)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartRequest opens a session. Line may be sent as a number or a string.
type StartRequest struct {
	DocumentID string `mapstructure:"document_id"`
	Line       int    `mapstructure:"line"`
	SessionID  string `mapstructure:"session_id"`
}

// AnswerRequest captures a prompt value. Without a position the first
// pending prompt with the name is answered.
type AnswerRequest struct {
	Name     string `mapstructure:"name"`
	Value    string `mapstructure:"value"`
	Position *int   `mapstructure:"position"`
}

// decode reads a JSON object and maps it onto out with weak typing, so
// form-like clients may send numbers as strings.
func decode(r *http.Request, out any) error {
	raw := map[string]any{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return fmt.Errorf("invalid request body: %w", err)
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "waypoint-http",
		"version": s.version,
	})
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.Documents == nil {
		http.Error(w, "document listing disabled", http.StatusNotFound)
		return
	}
	ids, err := s.Documents.List(r.Context())
	if err != nil {
		s.fail(w, "ListDocuments", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Navigator.Sessions(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentID == "" {
		http.Error(w, "document_id is required", http.StatusBadRequest)
		return
	}

	var (
		snap *domain.Session
		step domain.Step
		err  error
	)
	if starter, ok := s.Navigator.(IDStarter); ok && req.SessionID != "" {
		snap, step, err = starter.StartWithID(r.Context(), req.SessionID, req.DocumentID, req.Line)
	} else {
		snap, step, err = s.Navigator.Start(r.Context(), req.DocumentID, req.Line)
	}
	if err != nil {
		s.fail(w, "StartSession", err)
		return
	}
	s.logger.Info("session started", "session_id", snap.ID, "document", req.DocumentID)
	s.publish(snap.ID, domain.NewStepResponse(snap, step))
	s.writeJSON(w, http.StatusCreated, domain.NewStepResponse(snap, step))
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, step, err := s.Navigator.Current(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, domain.NewStepResponse(snap, step))
}

// Next handles POST /sessions/{sessionID}/next.
func (s *Server) Next(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, "Next", s.Navigator.Next)
}

// Previous handles POST /sessions/{sessionID}/previous.
func (s *Server) Previous(w http.ResponseWriter, r *http.Request) {
	s.move(w, r, "Previous", s.Navigator.Previous)
}

func (s *Server) move(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) (domain.Step, error)) {
	id := chi.URLParam(r, "sessionID")
	step, err := fn(r.Context(), id)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	resp := domain.NewStepResponse(nil, step)
	s.publish(id, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// Answer handles POST /sessions/{sessionID}/answers.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	value, err := runner.SanitizeAnswer(req.Name, req.Value)
	if errors.Is(err, domain.ErrInvalidAnswer) {
		s.fail(w, "Answer", err)
		return
	}
	if err != nil {
		s.logger.Warn("Answer: input rejected", "err", err, "size", len(req.Value))
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		return
	}
	position := -1
	if req.Position != nil {
		position = *req.Position
	}

	id := chi.URLParam(r, "sessionID")
	step, err := s.Navigator.Answer(r.Context(), id, req.Name, value, position)
	if err != nil {
		s.fail(w, "Answer", err)
		return
	}
	resp := domain.NewStepResponse(nil, step)
	s.publish(id, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

// Complete handles POST /sessions/{sessionID}/complete.
func (s *Server) Complete(w http.ResponseWriter, r *http.Request) {
	s.close(w, r, "Complete", s.Navigator.Complete)
}

// CancelSession handles DELETE /sessions/{sessionID}.
func (s *Server) CancelSession(w http.ResponseWriter, r *http.Request) {
	s.close(w, r, "Cancel", s.Navigator.Cancel)
}

func (s *Server) close(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) error) {
	id := chi.URLParam(r, "sessionID")
	if err := fn(r.Context(), id); err != nil {
		s.fail(w, op, err)
		return
	}
	resp := domain.StepResponse{Closed: true}
	s.publish(id, resp)
	s.Streams.Close(id)
	s.writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles GET /sessions/{sessionID}/events (SSE).
// Each action applied through this server is pushed as one JSON event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	id := chi.URLParam(r, "sessionID")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) publish(sessionID string, resp domain.StepResponse) {
	if bytes, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(sessionID, string(bytes))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrNoActiveDocument):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists),
		errors.Is(err, domain.ErrStalePrompt),
		errors.Is(err, domain.ErrIncomplete),
		errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingEndMarker),
		errors.Is(err, domain.ErrUnknownPrompt),
		errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
