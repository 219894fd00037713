package domain

import "slices"

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Line   *int           `json:"line,omitempty"`
	Status *SessionStatus `json:"status,omitempty"`
	// Context is the whole new breadcrumb when any heading changed.
	Context []string `json:"context,omitempty"`

	// Variables contains only changed, added or deleted bindings.
	// For deletions, the key is present with a nil value.
	Variables map[string]*string `json:"variables,omitempty"`

	// Prompts is the new pending list when it changed.
	Prompts []Prompt `json:"prompts,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new snapshot.
// It returns nil when nothing but the timestamp changed.
func Diff(old, new *Session) *SessionDiff {
	if new == nil {
		return nil
	}
	if old == nil {
		old = &Session{ID: new.ID, Line: -1}
	}

	diff := &SessionDiff{SessionID: new.ID}
	if old.Line != new.Line {
		diff.Line = &new.Line
	}
	if old.Status != new.Status {
		diff.Status = &new.Status
	}
	if !slices.Equal(old.Context, new.Context) {
		diff.Context = append([]string{}, new.Context...)
	}
	if !slices.Equal(old.Prompts, new.Prompts) {
		diff.Prompts = append([]Prompt{}, new.Prompts...)
	}
	diff.Variables = diffVariables(old.Variables, new.Variables)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVariables(old, new map[string]string) map[string]*string {
	delta := make(map[string]*string)
	for k, v := range new {
		if prev, ok := old[k]; !ok || prev != v {
			delta[k] = &v
		}
	}
	for k := range old {
		if _, ok := new[k]; !ok {
			delta[k] = nil
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Line == nil &&
		d.Status == nil &&
		d.Context == nil &&
		d.Prompts == nil &&
		len(d.Variables) == 0
}

// Changed lists the names of the fields the diff carries, for logging.
func (d *SessionDiff) Changed() []string {
	if d == nil {
		return nil
	}
	var out []string
	if d.Line != nil {
		out = append(out, "line")
	}
	if d.Status != nil {
		out = append(out, "status")
	}
	if d.Context != nil {
		out = append(out, "context")
	}
	if len(d.Variables) > 0 {
		out = append(out, "variables")
	}
	if d.Prompts != nil {
		out = append(out, "prompts")
	}
	return out
}
