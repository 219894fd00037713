package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/aretw0/waypoint/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// DocumentURIPrefix addresses document texts as MCP resources.
const DocumentURIPrefix = "waypoint://documents/"

// Navigator is the session surface the MCP server drives.
type Navigator interface {
	ports.Navigator
	StartWithID(ctx context.Context, sessionID, documentID string, line int) (*domain.Session, domain.Step, error)
}

// Server exposes workflow sessions as MCP tools so agents can step through
// checklists the same way a person does.
type Server struct {
	nav       Navigator
	docs      ports.DocumentStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(nav Navigator, docs ports.DocumentStore, version string, opts ...Option) *Server {
	s := &Server{
		nav:       nav,
		docs:      docs,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("waypoint-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// startArgs, sessionArgs and answerArgs are decoded from tool arguments.
type startArgs struct {
	DocumentID string `mapstructure:"document_id"`
	Line       int    `mapstructure:"line"`
	SessionID  string `mapstructure:"session_id"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

type answerArgs struct {
	SessionID string `mapstructure:"session_id"`
	Name      string `mapstructure:"name"`
	Value     string `mapstructure:"value"`
	Position  *int   `mapstructure:"position"`
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_session"))

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Open a workflow session on the checklist enclosing a line of a document."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document holding the workflow")),
		mcp.WithNumber("line", mcp.Description("Zero-based line inside the workflow region (default 0)")),
		mcp.WithString("session_id", mcp.Description("Optional session ID; generated when omitted")),
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("current_step",
		mcp.WithDescription("Render the step a session is on."),
		sessionID,
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleCurrent))

	s.mcpServer.AddTool(mcp.NewTool("next_step",
		mcp.WithDescription("Move to the next step, skipping blocks whose conditions do not hold."),
		sessionID,
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleNext))

	s.mcpServer.AddTool(mcp.NewTool("previous_step",
		mcp.WithDescription("Move back to the previous step."),
		sessionID,
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handlePrevious))

	s.mcpServer.AddTool(mcp.NewTool("answer_prompt",
		mcp.WithDescription("Answer a prompt of the current step and save it into the document."),
		sessionID,
		mcp.WithString("name", mcp.Required(), mcp.Description("Variable the prompt asks for")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Single-line value")),
		mcp.WithNumber("position", mcp.Description("Document line of the prompt when the name repeats")),
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("cancel_session",
		mcp.WithDescription("Abandon a session and clean its markers and answers from the document."),
		sessionID,
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleCancel))

	s.mcpServer.AddTool(mcp.NewTool("complete_session",
		mcp.WithDescription("Finish a session on its last step and clean the document."),
		sessionID,
		mcp.WithOutputSchema[domain.StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleComplete))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List open session IDs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.nav.Sessions(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documents that may hold workflows."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.docs.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.StepResponse, error) {
	var in startArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.StepResponse{}, err
	}
	if in.DocumentID == "" {
		return domain.StepResponse{}, fmt.Errorf("document_id is required")
	}
	snap, step, err := s.nav.StartWithID(ctx, in.SessionID, in.DocumentID, in.Line)
	if err != nil {
		return domain.StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return domain.NewStepResponse(snap, step), nil
}

func (s *Server) handleCurrent(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.StepResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.StepResponse{}, err
	}
	snap, step, err := s.nav.Current(ctx, in.SessionID)
	if err != nil {
		return domain.StepResponse{}, fmt.Errorf("current failed: %w", err)
	}
	return domain.NewStepResponse(snap, step), nil
}

func (s *Server) handleNext(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.StepResponse, error) {
	return s.move(ctx, args, "next", s.nav.Next)
}

func (s *Server) handlePrevious(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.StepResponse, error) {
	return s.move(ctx, args, "previous", s.nav.Previous)
}

func (s *Server) move(ctx context.Context, args map[string]any, op string, fn func(context.Context, string) (domain.Step, error)) (domain.StepResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.StepResponse{}, err
	}
	step, err := fn(ctx, in.SessionID)
	if err != nil {
		return domain.StepResponse{}, fmt.Errorf("%s failed: %w", op, err)
	}
	return domain.NewStepResponse(nil, step), nil
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.StepResponse, error) {
	var in answerArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.StepResponse{}, err
	}
	value, err := runner.SanitizeAnswer(in.Name, in.Value)
	if err != nil {
		s.logger.Warn("MCP Answer: input rejected", "err", err, "size", len(in.Value))
		return domain.StepResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	position := -1
	if in.Position != nil {
		position = *in.Position
	}
	step, err := s.nav.Answer(ctx, in.SessionID, in.Name, value, position)
	if err != nil {
		return domain.StepResponse{}, fmt.Errorf("answer failed: %w", err)
	}
	return domain.NewStepResponse(nil, step), nil
}

func (s *Server) handleCancel(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.StepResponse, error) {
	return s.close(ctx, args, "cancel", s.nav.Cancel)
}

func (s *Server) handleComplete(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (domain.StepResponse, error) {
	return s.close(ctx, args, "complete", s.nav.Complete)
}

func (s *Server) close(ctx context.Context, args map[string]any, op string, fn func(context.Context, string) error) (domain.StepResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return domain.StepResponse{}, err
	}
	if err := fn(ctx, in.SessionID); err != nil {
		return domain.StepResponse{}, fmt.Errorf("%s failed: %w", op, err)
	}
	return domain.StepResponse{Closed: true}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("waypoint://sessions", "Open sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.nav.Sessions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "waypoint://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(DocumentURIPrefix+"{id}", "Workflow document",
		mcp.WithTemplateDescription("Raw Markdown of a document, markers included"),
		mcp.WithTemplateMIMEType("text/markdown"),
	), s.readDocument)
}

func (s *Server) readDocument(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	id := strings.TrimPrefix(uri, DocumentURIPrefix)
	text, err := s.docs.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}
