package compiler

import (
	"strings"

	"github.com/aretw0/waypoint/pkg/domain"
)

// Parser classifies single lines of a workflow into directives.
// It holds no state beyond the marker vocabulary and is safe for concurrent use.
type Parser struct {
	markers domain.Markers
}

// Option configures a Parser.
type Option func(*Parser)

// WithMarkers overrides the directive vocabulary.
func WithMarkers(m domain.Markers) Option {
	return func(p *Parser) {
		p.markers = m
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...Option) *Parser {
	p := &Parser{markers: domain.DefaultMarkers()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse classifies a line with the default vocabulary.
func Parse(line string, absolutePosition int) domain.Directive {
	return defaultParser.Parse(line, absolutePosition)
}

// Markers returns the vocabulary the parser was built with.
func (p *Parser) Markers() domain.Markers {
	return p.markers
}

// Parse returns the directive carried by line, or nil when the line is ordinary content.
// Malformed directives never fail; they degrade to nil.
func (p *Parser) Parse(line string, absolutePosition int) domain.Directive {
	text := strings.TrimSpace(line)

	if depth := HeadingDepth(text); depth > 0 {
		return domain.SetContext{Depth: depth - 1, Label: text[depth+1:]}
	}

	if body, ok := p.command(text, domain.CommandSet); ok {
		name, value, ok := p.assignment(body)
		if !ok {
			return nil
		}
		return domain.SetVariable{Name: name, Value: value}
	}
	if body, ok := p.command(text, domain.CommandSetTemp); ok {
		name, value, ok := p.assignment(body)
		if !ok {
			return nil
		}
		return domain.SetTemporaryVariable{Name: name, Value: value}
	}
	if body, ok := p.command(text, domain.CommandUnset); ok {
		return domain.UnsetVariable{Name: strings.TrimSpace(p.stripClose(body))}
	}
	if body, ok := p.command(text, domain.CommandGet); ok {
		return domain.GetVariable{Name: strings.TrimSpace(p.stripClose(body)), Position: absolutePosition}
	}
	if body, ok := p.command(text, domain.CommandIf); ok {
		variable, expected, ok := p.assignment(body)
		if !ok {
			return nil
		}
		return domain.Conditional{Variable: variable, Expected: expected}
	}
	return nil
}

// IsStructural reports whether line is one of the region markers
// (start, end, resume) or an answered input request.
func (p *Parser) IsStructural(line string) bool {
	if p.IsStart(line) || p.IsEnd(line) || p.IsResume(line) {
		return true
	}
	_, ok := p.command(strings.TrimSpace(line), p.markers.Answered)
	return ok
}

// IsControl reports whether line is hidden from the displayed step text:
// any parsed directive (headings included) or a structural marker.
func (p *Parser) IsControl(line string) bool {
	return p.Parse(line, 0) != nil || p.IsStructural(line)
}

// IsMalformed reports whether line looks like a directive but does not parse.
// It is used for diagnostics only.
func (p *Parser) IsMalformed(line string) bool {
	text := strings.TrimSpace(line)
	if !strings.HasPrefix(text, p.markers.Open+p.markers.Keyword) {
		return false
	}
	return !p.IsControl(text)
}

// IsStart reports whether line is the region start marker.
func (p *Parser) IsStart(line string) bool {
	return p.markers.Is(line, p.markers.Start)
}

// IsEnd reports whether line is the region end marker.
func (p *Parser) IsEnd(line string) bool {
	return p.markers.Is(line, p.markers.End)
}

// IsResume reports whether line is the transient resume marker.
func (p *Parser) IsResume(line string) bool {
	return p.markers.Is(line, p.markers.Resume)
}

// IsTemporary reports whether line holds a captured answer.
func (p *Parser) IsTemporary(line string) bool {
	_, ok := p.command(strings.TrimSpace(line), domain.CommandSetTemp)
	return ok
}

// AnsweredName returns the prompt name of an answered marker.
func (p *Parser) AnsweredName(line string) (string, bool) {
	body, ok := p.command(strings.TrimSpace(line), p.markers.Answered)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(p.stripClose(body)), true
}

func (p *Parser) command(text, cmd string) (string, bool) {
	prefix := p.markers.Prefix() + cmd + " "
	if !strings.HasPrefix(text, prefix) {
		return "", false
	}
	return text[len(prefix):], true
}

// assignment splits "name = value" exactly once. Any other number of parts is malformed.
func (p *Parser) assignment(body string) (string, string, bool) {
	parts := strings.Split(body, " = ")
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), p.stripClose(parts[1]), true
}

func (p *Parser) stripClose(s string) string {
	s = strings.TrimRight(s, " \t")
	s = strings.TrimSuffix(s, p.markers.Close)
	return strings.TrimRight(s, " \t")
}

// IsBullet reports whether line is a structural step.
func IsBullet(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "-")
}

// HeadingDepth returns the number of leading '#' of a heading line, or 0.
// A heading needs at least one '#' followed by a space.
func HeadingDepth(line string) int {
	text := strings.TrimLeft(line, " \t")
	n := 0
	for n < len(text) && text[n] == '#' {
		n++
	}
	if n == 0 || n >= len(text) || text[n] != ' ' {
		return 0
	}
	return n
}
