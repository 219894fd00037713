package domain

import (
	"fmt"
	"strings"
)

// DirectiveKind names a directive variant. It is used for logging and wire formats.
type DirectiveKind string

const (
	KindSetContext           DirectiveKind = "set_context"
	KindSetVariable          DirectiveKind = "set_variable"
	KindSetTemporaryVariable DirectiveKind = "set_temporary_variable"
	KindUnsetVariable        DirectiveKind = "unset_variable"
	KindGetVariable          DirectiveKind = "get_variable"
	KindConditional          DirectiveKind = "conditional"
)

// Directive is an inline instruction parsed from a single line of a workflow.
// The set of variants is closed: only types in this package implement it.
type Directive interface {
	Kind() DirectiveKind
	directive()
}

// SetContext is produced by a heading line. Depth is the number of '#' minus one.
type SetContext struct {
	Depth int
	Label string
}

// SetVariable is a persistent variable assignment.
type SetVariable struct {
	Name  string
	Value string
}

// SetTemporaryVariable has the same effect as SetVariable, but marks an answer
// captured from a prompt. It is stripped from the document when a session ends.
type SetTemporaryVariable struct {
	Name  string
	Value string
}

// UnsetVariable removes a variable binding.
type UnsetVariable struct {
	Name string
}

// GetVariable asks the user for a value. Position is the absolute line index
// of the directive in the source document.
type GetVariable struct {
	Name     string
	Position int
}

// Conditional guards the structural block that follows it.
type Conditional struct {
	Variable string
	Expected string
}

func (SetContext) Kind() DirectiveKind           { return KindSetContext }
func (SetVariable) Kind() DirectiveKind          { return KindSetVariable }
func (SetTemporaryVariable) Kind() DirectiveKind { return KindSetTemporaryVariable }
func (UnsetVariable) Kind() DirectiveKind        { return KindUnsetVariable }
func (GetVariable) Kind() DirectiveKind          { return KindGetVariable }
func (Conditional) Kind() DirectiveKind          { return KindConditional }

func (SetContext) directive()           {}
func (SetVariable) directive()          {}
func (SetTemporaryVariable) directive() {}
func (UnsetVariable) directive()        {}
func (GetVariable) directive()          {}
func (Conditional) directive()          {}

// Prompt is a pending request for user input at the current step.
type Prompt struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// PromptFrom converts a GetVariable directive into its pending prompt.
func PromptFrom(d GetVariable) Prompt {
	return Prompt{Name: d.Name, Position: d.Position}
}

// ValidateAnswer checks that value can be written back as the value of a
// single set_temp line and read back unchanged.
func ValidateAnswer(name, value string) error {
	if strings.ContainsAny(value, "\r\n") || strings.Contains(value, " = ") {
		return fmt.Errorf("%w: value for %q must be a single line without \" = \"", ErrInvalidAnswer, name)
	}
	return nil
}
