package pipeline

import (
	"errors"
	"fmt"
)

// ErrRunSuperseded is the cancellation cause of a run replaced by a newer one.
var ErrRunSuperseded = errors.New("extraction run superseded by a newer run")

// ChannelError represents a failure talking to the page being extracted.
// It aborts the run.
type ChannelError struct {
	Message string
	Cause   error
}

func (e *ChannelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("page channel failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("page channel failure: %s", e.Message)
}

func (e *ChannelError) Unwrap() error {
	return e.Cause
}
