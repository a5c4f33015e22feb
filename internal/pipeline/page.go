package pipeline

import (
	"context"
	"time"
)

// Page is the document a run extracts from and navigates. Implementations
// return dom.ErrNodeNotFound from ScrollIntoView and Click when the element
// with the given id no longer exists.
type Page interface {
	// Snapshot returns the annotated markup of the current page and its URL.
	Snapshot(ctx context.Context) (html string, pageURL string, err error)
	// ScrollHeight reports the scrollable height of the page.
	ScrollHeight(ctx context.Context) (float64, error)
	// ScrollTo scrolls the viewport to an absolute vertical offset.
	ScrollTo(ctx context.Context, y float64) error
	// Query returns the id of the first element matching selector.
	Query(ctx context.Context, selector string) (id string, found bool, err error)
	// CountMatches returns how many elements match selector.
	CountMatches(ctx context.Context, selector string) (int, error)
	ScrollIntoView(ctx context.Context, id string) error
	Click(ctx context.Context, id string) error
}

// Clock suspends a run between page interactions.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock waits on wall-clock timers.
type RealClock struct{}

// Sleep blocks for d or until ctx is done, returning the cancellation cause.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return context.Cause(ctx)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
