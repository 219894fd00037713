package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/waypoint/pkg/domain"
)

// LogHooks writes every lifecycle event to logger at debug level, and
// session ends at info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "session_id", e.SessionID, "document", e.DocumentID, "line", e.Line, "context", e.Context)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "line", e.Line)
		},
		OnPromptCapture: func(ctx context.Context, e *domain.PromptEvent) {
			logger.DebugContext(ctx, "prompt_capture", "session_id", e.SessionID, "variable", e.Prompt.Name, "line", e.Prompt.Position)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_end", "session_id", e.SessionID, "document", e.DocumentID, "status", e.Status)
		},
	}
}
