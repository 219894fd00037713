package domain

import "time"

// Step is a read-only view of a workflow at its current position.
type Step struct {
	// Position is the local index of the current bullet line within the region.
	Position int `json:"position"`

	// Line is the absolute document line of the current step.
	Line int `json:"line"`

	// Text holds the displayable lines of the step (directives removed).
	Text []string `json:"text"`

	// Context is the heading breadcrumb, outermost first.
	Context []string `json:"context"`

	Variables map[string]string `json:"variables"`
	Prompts   []Prompt          `json:"prompts,omitempty"`

	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// Last reports whether the step is the final one and the workflow can be completed.
func (s Step) Last() bool {
	return !s.HasNext
}

// SessionStatus describes the lifecycle phase of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

// Session is the persisted snapshot of an interactive session.
// The document itself stays authoritative; the snapshot only lets hosts
// list, inspect and resume sessions.
type Session struct {
	ID         string            `json:"id"`
	DocumentID string            `json:"document_id"`
	Status     SessionStatus     `json:"status"`
	Line       int               `json:"line"`
	Context    []string          `json:"context"`
	Variables  map[string]string `json:"variables"`
	Prompts    []Prompt          `json:"prompts,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewSession creates a clean active session for a document.
func NewSession(id, documentID string) *Session {
	return &Session{
		ID:         id,
		DocumentID: documentID,
		Status:     StatusActive,
		Variables:  make(map[string]string),
		UpdatedAt:  time.Now().UTC(),
	}
}

// Apply copies the step view into the snapshot.
func (s *Session) Apply(step Step) {
	s.Line = step.Line
	s.Context = append([]string(nil), step.Context...)
	s.Variables = make(map[string]string, len(step.Variables))
	for k, v := range step.Variables {
		s.Variables[k] = v
	}
	s.Prompts = append([]Prompt(nil), step.Prompts...)
	s.UpdatedAt = time.Now().UTC()
}
