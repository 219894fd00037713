package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter     EventType = "step_enter"
	EventStepLeave     EventType = "step_leave"
	EventPromptCapture EventType = "prompt_capture"
	EventSessionEnd    EventType = "session_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	SessionID  string    `json:"session_id"`
	DocumentID string    `json:"document_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	Line    int      `json:"line"`
	Context []string `json:"context,omitempty"`
}

// PromptEvent represents a captured answer.
type PromptEvent struct {
	EventBase
	Prompt Prompt `json:"prompt"`
}

// SessionEvent represents the end of a session.
type SessionEvent struct {
	EventBase
	Status SessionStatus `json:"status"`
}

// LifecycleHooks defines callbacks for session observability.
type LifecycleHooks struct {
	OnStepEnter     func(context.Context, *StepEvent)
	OnStepLeave     func(context.Context, *StepEvent)
	OnPromptCapture func(context.Context, *PromptEvent)
	OnSessionEnd    func(context.Context, *SessionEvent)
}

// NewEventBase stamps an event header.
func NewEventBase(t EventType, sessionID, documentID string) EventBase {
	return EventBase{
		Timestamp:  time.Now().UTC(),
		Type:       t,
		SessionID:  sessionID,
		DocumentID: documentID,
	}
}

// MergeHooks calls every non-nil callback of each set in order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		h := h
		if h.OnStepEnter != nil {
			prev := out.OnStepEnter
			out.OnStepEnter = func(ctx context.Context, e *StepEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStepEnter(ctx, e)
			}
		}
		if h.OnStepLeave != nil {
			prev := out.OnStepLeave
			out.OnStepLeave = func(ctx context.Context, e *StepEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStepLeave(ctx, e)
			}
		}
		if h.OnPromptCapture != nil {
			prev := out.OnPromptCapture
			out.OnPromptCapture = func(ctx context.Context, e *PromptEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnPromptCapture(ctx, e)
			}
		}
		if h.OnSessionEnd != nil {
			prev := out.OnSessionEnd
			out.OnSessionEnd = func(ctx context.Context, e *SessionEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnSessionEnd(ctx, e)
			}
		}
	}
	return out
}
