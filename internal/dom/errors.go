package dom

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when a node id no longer resolves in the page.
var ErrNodeNotFound = errors.New("node not found")

// ParseError represents a failure to turn a page snapshot into a Document.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapshot parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("snapshot parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
