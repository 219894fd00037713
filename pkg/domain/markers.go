package domain

import "strings"

// Markers is the vocabulary of the embedded directive syntax.
// Every marker line has the form Open + Keyword + " " + body + Close,
// e.g. "%%workflow start%%".
type Markers struct {
	Open    string `json:"open" yaml:"open" mapstructure:"open"`
	Close   string `json:"close" yaml:"close" mapstructure:"close"`
	Keyword string `json:"keyword" yaml:"keyword" mapstructure:"keyword"`

	Start  string `json:"start" yaml:"start" mapstructure:"start"`
	End    string `json:"end" yaml:"end" mapstructure:"end"`
	Resume string `json:"resume" yaml:"resume" mapstructure:"resume"`

	// Answered replaces "get" once a captured answer has been saved.
	Answered string `json:"answered" yaml:"answered" mapstructure:"answered"`
}

// Directive command words.
const (
	CommandSet     = "set"
	CommandSetTemp = "set_temp"
	CommandUnset   = "unset"
	CommandGet     = "get"
	CommandIf      = "if"
)

// DefaultMarkers returns the Obsidian-compatible comment syntax.
func DefaultMarkers() Markers {
	return Markers{
		Open:     "%%",
		Close:    "%%",
		Keyword:  "workflow",
		Start:    "start",
		End:      "end",
		Resume:   "here",
		Answered: "got",
	}
}

// Prefix is the opening of every marker line, e.g. "%%workflow ".
func (m Markers) Prefix() string {
	return m.Open + m.Keyword + " "
}

// Line wraps body into a full marker line.
func (m Markers) Line(body string) string {
	return m.Prefix() + body + m.Close
}

// ResumeLine is the transient line marking the current step.
func (m Markers) ResumeLine() string { return m.Line(m.Resume) }

// SetTempLine renders a captured answer.
func (m Markers) SetTempLine(name, value string) string {
	return m.Line(CommandSetTemp + " " + name + " = " + value)
}

// GetLine renders an input request.
func (m Markers) GetLine(name string) string {
	return m.Line(CommandGet + " " + name)
}

// AnsweredLine renders the no-op marker an answered input request turns into.
func (m Markers) AnsweredLine(name string) string {
	return m.Line(m.Answered + " " + name)
}

// Is reports whether line, once trimmed, is exactly the marker for body.
func (m Markers) Is(line, body string) bool {
	return strings.TrimSpace(line) == m.Line(body)
}
