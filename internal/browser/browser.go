// Package browser drives a live results page in headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/dom"
)

// DefaultNavigateTimeout bounds page loads.
const DefaultNavigateTimeout = 60 * time.Second

// Error represents a failure of the browser session.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("browser error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the browser session.
type Options struct {
	Headless        bool
	ChromePath      string
	UserDataDir     string
	NavigateTimeout time.Duration
	Logger          *zap.Logger
}

// Page is one browser tab. It satisfies pipeline.Page.
type Page struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	opts        Options
	logger      *zap.Logger
}

// Launch starts Chrome and opens a blank tab. The session lives until Close
// is called or ctx is done.
func Launch(ctx context.Context, opts Options) (*Page, error) {
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = DefaultNavigateTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 1024),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Warnf),
	)

	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, &Error{Message: "failed to start browser", Cause: err}
	}
	logger.Info("browser started", zap.Bool("headless", opts.Headless))

	return &Page{
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		opts:        opts,
		logger:      logger,
	}, nil
}

// Close shuts the tab and the browser down.
func (p *Page) Close() {
	p.cancelTab()
	p.cancelAlloc()
}

// run executes actions in the tab, aborting them when ctx is done.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the body to be ready.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.logger.Info("navigating", zap.String("url", url))

	ctx, cancel := context.WithTimeout(ctx, p.opts.NavigateTimeout)
	defer cancel()

	if err := p.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return &Error{Message: "navigation to " + url + " failed", Cause: err}
	}
	return nil
}

// Snapshot annotates the live page with layout attributes and returns its markup.
func (p *Page) Snapshot(ctx context.Context) (string, string, error) {
	var res snapshotResult
	if err := p.run(ctx, chromedp.Evaluate(annotateJS, &res)); err != nil {
		return "", "", &Error{Message: "failed to snapshot page", Cause: err}
	}
	p.logger.Debug("captured snapshot", zap.String("url", res.URL), zap.Int("bytes", len(res.HTML)))
	return res.HTML, res.URL, nil
}

// ScrollHeight reports the scrollable height of the page.
func (p *Page) ScrollHeight(ctx context.Context) (float64, error) {
	var height float64
	if err := p.run(ctx, chromedp.Evaluate(scrollHeightJS, &height)); err != nil {
		return 0, &Error{Message: "failed to read scroll height", Cause: err}
	}
	return height, nil
}

// ScrollTo scrolls the window to an absolute vertical offset.
func (p *Page) ScrollTo(ctx context.Context, y float64) error {
	if err := p.run(ctx, chromedp.Evaluate(scrollToJS(y), nil)); err != nil {
		return &Error{Message: "failed to scroll", Cause: err}
	}
	return nil
}

// Query returns the data-cx-id of the first element matching selector,
// assigning one if needed.
func (p *Page) Query(ctx context.Context, selector string) (string, bool, error) {
	var id string
	if err := p.run(ctx, chromedp.Evaluate(queryJS(selector), &id)); err != nil {
		return "", false, &Error{Message: "failed to query " + selector, Cause: err}
	}
	return id, id != "", nil
}

// CountMatches returns how many elements match selector.
func (p *Page) CountMatches(ctx context.Context, selector string) (int, error) {
	var n int
	if err := p.run(ctx, chromedp.Evaluate(countJS(selector), &n)); err != nil {
		return 0, &Error{Message: "failed to count " + selector, Cause: err}
	}
	return n, nil
}

// ScrollIntoView centers the element with the given id in the viewport.
func (p *Page) ScrollIntoView(ctx context.Context, id string) error {
	return p.activate(ctx, scrollIntoViewJS(id), "scroll into view", id)
}

// Click activates the element with the given id.
func (p *Page) Click(ctx context.Context, id string) error {
	return p.activate(ctx, clickJS(id), "click", id)
}

func (p *Page) activate(ctx context.Context, script, action, id string) error {
	var found bool
	if err := p.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return &Error{Message: fmt.Sprintf("failed to %s element %s", action, id), Cause: err}
	}
	if !found {
		return fmt.Errorf("%s element %s: %w", action, id, dom.ErrNodeNotFound)
	}
	return nil
}
