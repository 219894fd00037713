package runtime

import (
	"strings"

	"github.com/aretw0/waypoint/internal/compiler"
	"github.com/aretw0/waypoint/pkg/domain"
)

// region is the slice of a document between the start and end markers.
type region struct {
	lines []string

	// offset is the absolute document line of lines[0].
	offset int

	// resumes holds the local indexes at which resume markers were removed,
	// in ascending order. A marker at resumes[i] sat just before lines[resumes[i]].
	resumes []int

	// lastLine is the end marker's absolute line minus offset.
	lastLine int
}

// SplitLines splits a document into lines the same way the region scanner does.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// locate isolates the region enclosing cursor. The start marker is searched
// backward from cursor down to line 0; without one the region starts at line 0.
func locate(p *compiler.Parser, text string, cursor int) (region, error) {
	all := SplitLines(text)
	if cursor >= len(all) {
		cursor = len(all) - 1
	}
	if cursor < 0 {
		cursor = 0
	}

	offset := 0
	for i := cursor; i >= 0; i-- {
		if p.IsStart(all[i]) {
			offset = i + 1
			break
		}
	}

	r := region{offset: offset}
	for i := offset; i < len(all); i++ {
		line := all[i]
		if p.IsEnd(line) {
			r.lastLine = i - offset
			return r, nil
		}
		if p.IsResume(line) {
			r.resumes = append(r.resumes, len(r.lines))
			continue
		}
		r.lines = append(r.lines, line)
	}
	return region{}, &domain.RegionError{Start: offset, Err: domain.ErrMissingEndMarker}
}

// absolute translates a local index into a document line.
func (r region) absolute(k int) int {
	abs := r.offset + k
	for _, m := range r.resumes {
		if m > k {
			break
		}
		abs++
	}
	return abs
}
