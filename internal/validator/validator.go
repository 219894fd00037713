package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/internal/runtime"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single diagnostic anchored to a document line.
type Issue struct {
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report summarizes the region enclosing a cursor line.
// Parsing stays permissive: nothing reported here stops a session from opening
// except a missing end marker.
type Report struct {
	// Start is the first content line; End is the end marker line (-1 when missing).
	Start      int                          `json:"start"`
	End        int                          `json:"end"`
	Steps      int                          `json:"steps"`
	Directives map[domain.DirectiveKind]int `json:"directives"`
	Resumes    []int                        `json:"resumes,omitempty"`
	Issues     []Issue                      `json:"issues,omitempty"`
}

// Valid reports whether the region has no error-level issue.
func (r *Report) Valid() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Err folds error-level issues into a single error, or nil.
func (r *Report) Err() error {
	var msgs []string
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			msgs = append(msgs, fmt.Sprintf("line %d: %s", i.Line, i.Message))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
}

// ValidateRegion inspects the region enclosing line.
func ValidateRegion(text string, line int, parser *compiler.Parser) *Report {
	if parser == nil {
		parser = compiler.NewParser()
	}
	report := &Report{End: -1, Directives: make(map[domain.DirectiveKind]int)}

	w, err := runtime.New(text, line, runtime.WithParser(parser))
	if err != nil {
		var regionErr *domain.RegionError
		if errors.As(err, &regionErr) {
			report.Start = regionErr.Start
		}
		report.Issues = append(report.Issues, Issue{Line: report.Start, Severity: SeverityError, Message: err.Error()})
		return report
	}

	report.Start = w.Offset()
	report.End = w.End()
	report.Resumes = w.ResumeLines()
	if len(report.Resumes) > 1 {
		for _, l := range report.Resumes[1:] {
			report.Issues = append(report.Issues, Issue{Line: l, Severity: SeverityWarning, Message: "extra resume marker; the last one wins"})
		}
	}

	known := make(map[string]bool)
	type guard struct {
		name string
		line int
	}
	var guards []guard

	for k, text := range w.Lines() {
		abs := w.Absolute(k)
		if compiler.IsBullet(text) {
			report.Steps++
		}
		if parser.IsMalformed(text) {
			report.Issues = append(report.Issues, Issue{Line: abs, Severity: SeverityWarning, Message: fmt.Sprintf("unrecognised directive %q", strings.TrimSpace(text))})
			continue
		}
		if parser.IsStart(text) {
			report.Issues = append(report.Issues, Issue{Line: abs, Severity: SeverityWarning, Message: "nested start marker"})
		}
		if name, ok := parser.AnsweredName(text); ok {
			known[name] = true
		}
		d := parser.Parse(text, abs)
		if d == nil {
			continue
		}
		report.Directives[d.Kind()]++
		switch d := d.(type) {
		case domain.SetVariable:
			known[d.Name] = true
		case domain.SetTemporaryVariable:
			known[d.Name] = true
		case domain.GetVariable:
			known[d.Name] = true
		case domain.Conditional:
			guards = append(guards, guard{name: d.Variable, line: abs})
		}
	}

	if report.Steps == 0 {
		report.Issues = append(report.Issues, Issue{Line: report.Start, Severity: SeverityWarning, Message: "region has no steps"})
	}
	for _, g := range guards {
		if !known[g.name] {
			report.Issues = append(report.Issues, Issue{Line: g.line, Severity: SeverityWarning, Message: fmt.Sprintf("condition on %q, which is never set or asked", g.name)})
		}
	}

	sort.SliceStable(report.Issues, func(i, j int) bool { return report.Issues[i].Line < report.Issues[j].Line })
	return report
}
