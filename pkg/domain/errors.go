package domain

import (
	"errors"
	"fmt"
)

// ErrMissingEndMarker is returned when a workflow region has no closing marker.
var ErrMissingEndMarker = errors.New("workflow end marker not found")

// ErrNoActiveDocument is returned when a session is opened without a readable document.
var ErrNoActiveDocument = errors.New("no active document")

// ErrDocumentNotFound is returned by document stores for unknown IDs.
var ErrDocumentNotFound = errors.New("document not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned when a controller is used after cancel or complete.
var ErrSessionClosed = errors.New("session closed")

// ErrUnknownPrompt is returned when an answer does not match a pending prompt.
var ErrUnknownPrompt = errors.New("no pending prompt")

// ErrStalePrompt is returned when the document line of a prompt changed before saving.
var ErrStalePrompt = errors.New("prompt line changed in document")

// ErrInvalidAnswer is returned when a prompt value cannot be written as a directive.
var ErrInvalidAnswer = errors.New("invalid answer")

// ErrIncomplete is returned when completing a workflow that has steps left.
var ErrIncomplete = errors.New("workflow has remaining steps")

// RegionError reports a structural failure while isolating a workflow region.
type RegionError struct {
	// Start is the absolute line where the region content begins.
	Start int
	Err   error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("workflow region starting at line %d: %v", e.Start, e.Err)
}

func (e *RegionError) Unwrap() error {
	return e.Err
}
