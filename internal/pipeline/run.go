// Package pipeline orchestrates an extraction run across the pages of a result listing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/dom"
	"github.com/jonathan/contact-extractor/internal/extraction"
	"github.com/jonathan/contact-extractor/internal/types"
)

// State is the position of a run in its state machine.
type State string

const (
	StateIdle          State = "idle"
	StateScrolling     State = "scrolling"
	StateExtracting    State = "extracting"
	StateAdvancingPage State = "advancing_page"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// Progress bounds. Pagination fills up to paginationShare percent; the rest is
// reserved for completion.
const (
	paginationShare   = 85.0
	unboundedPageStep = 15.0
)

// DefaultNextPageSelectors are tried in order to find the "next page" control.
var DefaultNextPageSelectors = []string{
	`button[aria-label*="Next"]:not([disabled])`,
	`button[aria-label*="next"]:not([disabled])`,
	`.artdeco-pagination__button--next:not([disabled])`,
}

// Options configures a Runner.
type Options struct {
	ProfileLinkPattern string
	NextPageSelectors  []string

	// ScrollSteps is the number of evenly spaced scroll positions from the top
	// to the bottom of the page visited before extracting.
	ScrollSteps          int
	ScrollSettle         time.Duration
	ScrollIntoViewSettle time.Duration
	ClickSettle          time.Duration
	PollInterval         time.Duration
	PollAttempts         int

	Clock     Clock
	Logger    *zap.Logger
	Extractor *extraction.Extractor
}

// DefaultOptions returns the timings used against live pages.
func DefaultOptions() Options {
	return Options{
		ProfileLinkPattern:   dom.DefaultProfileLinkPattern,
		NextPageSelectors:    slices.Clone(DefaultNextPageSelectors),
		ScrollSteps:          4,
		ScrollSettle:         time.Second,
		ScrollIntoViewSettle: 2 * time.Second,
		ClickSettle:          4 * time.Second,
		PollInterval:         500 * time.Millisecond,
		PollAttempts:         15,
	}
}

// RunOptions holds the parameters of one run.
type RunOptions struct {
	// PageLimit caps the number of pages visited; 0 means until no next page.
	PageLimit int
	OnEvent   EventFunc
	// RunID identifies the run in events; a new one is generated when nil.
	RunID uuid.UUID
	// OnSnapshot receives the markup of every page before it is extracted.
	OnSnapshot func(page int, html, pageURL string)
}

// Report is the outcome of a run. On failure it holds what was gathered
// before the run aborted.
type Report struct {
	RunID      uuid.UUID
	PageLimit  int
	TotalPages int
	Contacts   []types.ContactRecord
	Pages      []extraction.PageStats
}

// Result converts the report into the run control response.
func (r *Report) Result(err error) types.RunResult {
	if err != nil {
		return types.RunResult{Success: false, Contacts: []types.ContactRecord{}, Error: err.Error()}
	}
	contacts := r.Contacts
	if contacts == nil {
		contacts = []types.ContactRecord{}
	}
	return types.RunResult{Success: true, Contacts: contacts}
}

type activeRun struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// Runner drives extraction runs against one page. A Runner owns the page:
// starting a run cancels any run still in flight and waits for it to stop.
type Runner struct {
	page Page
	opts Options
	seen *extraction.IdentitySet

	mu     sync.Mutex
	active *activeRun
	state  State
}

// NewRunner creates a Runner over page. Unset selectors, pattern, step
// counts, clock, logger and extractor fall back to defaults; durations are
// used as given.
func NewRunner(page Page, opts Options) *Runner {
	defaults := DefaultOptions()
	if opts.ProfileLinkPattern == "" {
		opts.ProfileLinkPattern = defaults.ProfileLinkPattern
	}
	if len(opts.NextPageSelectors) == 0 {
		opts.NextPageSelectors = defaults.NextPageSelectors
	}
	if opts.ScrollSteps < 2 {
		opts.ScrollSteps = defaults.ScrollSteps
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = defaults.PollAttempts
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Extractor == nil {
		opts.Extractor = extraction.NewExtractor(extraction.Options{Logger: opts.Logger})
	}

	return &Runner{
		page:  page,
		opts:  opts,
		seen:  extraction.NewIdentitySet(),
		state: StateIdle,
	}
}

// Ping reports that the runner can accept a run.
func (r *Runner) Ping() string {
	return "ready"
}

// State returns the state of the current or last run.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.opts.Logger.Debug("run state", zap.String("state", string(s)))
}

// Extract runs to completion and returns the run control response.
func (r *Runner) Extract(ctx context.Context, pageLimit int, onEvent EventFunc) types.RunResult {
	report, err := r.Run(ctx, RunOptions{PageLimit: pageLimit, OnEvent: onEvent})
	return report.Result(err)
}

// Run executes one extraction run. Page-level problems are skipped; a
// failure of the page channel or cancellation of ctx aborts the run, after
// which no further events are emitted.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	if opts.PageLimit < 0 {
		return &Report{}, fmt.Errorf("page limit must be >= 0, got %d", opts.PageLimit)
	}

	ctx, finish := r.begin(ctx)
	defer finish()

	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	report := &Report{RunID: runID, PageLimit: opts.PageLimit}
	logger := r.opts.Logger.With(zap.String("run_id", runID.String()))

	emit := func(ev Event) {
		if opts.OnEvent == nil || ctx.Err() != nil {
			return
		}
		ev.RunID = runID.String()
		opts.OnEvent(ev)
	}

	r.seen.Reset()
	logger.Info("starting extraction", zap.Int("page_limit", opts.PageLimit))
	emit(Event{Type: EventProgress, Percent: 0, Message: "Starting extraction..."})

	page := 1
	for {
		emit(Event{
			Type:    EventProgress,
			Percent: Progress(page, opts.PageLimit),
			Message: fmt.Sprintf("Extracting page %d...", page),
		})

		r.setState(StateScrolling)
		if err := r.scroll(ctx); err != nil {
			return report, r.fail(ctx, logger, err)
		}

		r.setState(StateExtracting)
		contacts, stats, err := r.extractPage(ctx, logger, page, opts.OnSnapshot)
		if err != nil {
			return report, r.fail(ctx, logger, err)
		}
		report.TotalPages = page
		report.Pages = append(report.Pages, stats)
		if len(contacts) > 0 {
			report.Contacts = append(report.Contacts, contacts...)
			emit(Event{
				Type:       EventPageComplete,
				Contacts:   slices.Clone(report.Contacts),
				PageNumber: page,
			})
		}
		logger.Info("page extracted",
			zap.Int("page", page),
			zap.Int("containers", stats.Containers),
			zap.Int("new_contacts", stats.Extracted),
			zap.Int("duplicates", stats.Duplicates),
			zap.Int("unextractable", stats.Unextractable),
			zap.Int("total_contacts", len(report.Contacts)))

		r.setState(StateAdvancingPage)
		if opts.PageLimit > 0 && page >= opts.PageLimit {
			break
		}
		advanced, err := r.advance(ctx, logger)
		if err != nil {
			return report, r.fail(ctx, logger, err)
		}
		if !advanced {
			logger.Info("no next page available", zap.Int("page", page))
			break
		}
		page++
	}

	r.setState(StateCompleted)
	emit(Event{Type: EventProgress, Percent: 100, Message: "Complete!"})
	emit(Event{Type: EventRunComplete, TotalPages: report.TotalPages, TotalContacts: len(report.Contacts)})
	logger.Info("extraction complete",
		zap.Int("total_pages", report.TotalPages),
		zap.Int("total_contacts", len(report.Contacts)))

	return report, nil
}

// Progress is the completion percentage reported when page starts. With an
// unknown limit it grows by a fixed step per page.
func Progress(page, pageLimit int) float64 {
	if pageLimit > 0 {
		return float64(page-1) / float64(pageLimit) * paginationShare
	}
	return math.Min(float64(page)*unboundedPageStep, paginationShare)
}

// begin registers a new run, superseding the one in flight.
func (r *Runner) begin(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	run := &activeRun{cancel: cancel, done: make(chan struct{})}

	r.mu.Lock()
	prev := r.active
	r.active = run
	r.mu.Unlock()

	if prev != nil {
		prev.cancel(ErrRunSuperseded)
		<-prev.done
	}

	return ctx, func() {
		cancel(nil)
		r.mu.Lock()
		if r.active == run {
			r.active = nil
		}
		r.mu.Unlock()
		close(run.done)
	}
}

func (r *Runner) fail(ctx context.Context, logger *zap.Logger, err error) error {
	if cause := context.Cause(ctx); cause != nil {
		err = cause
	}
	r.setState(StateFailed)
	logger.Warn("extraction aborted", zap.Error(err))
	return err
}

// scroll visits evenly spaced offsets down the page so lazy content renders,
// then returns to the top.
func (r *Runner) scroll(ctx context.Context) error {
	height, err := r.page.ScrollHeight(ctx)
	if err != nil {
		return &ChannelError{Message: "failed to read scroll height", Cause: err}
	}

	last := r.opts.ScrollSteps - 1
	for i := 0; i <= last; i++ {
		y := height * float64(i) / float64(last)
		if err := r.page.ScrollTo(ctx, y); err != nil {
			return &ChannelError{Message: "failed to scroll", Cause: err}
		}
		if err := r.opts.Clock.Sleep(ctx, r.opts.ScrollSettle); err != nil {
			return err
		}
	}

	if err := r.page.ScrollTo(ctx, 0); err != nil {
		return &ChannelError{Message: "failed to scroll to top", Cause: err}
	}
	return r.opts.Clock.Sleep(ctx, r.opts.ScrollSettle)
}

func (r *Runner) extractPage(ctx context.Context, logger *zap.Logger, page int, onSnapshot func(int, string, string)) ([]types.ContactRecord, extraction.PageStats, error) {
	html, pageURL, err := r.page.Snapshot(ctx)
	if err != nil {
		return nil, extraction.PageStats{}, &ChannelError{Message: "failed to snapshot page", Cause: err}
	}
	if onSnapshot != nil {
		onSnapshot(page, html, pageURL)
	}

	doc, err := dom.ParseString(html, pageURL, dom.WithProfileLinkPattern(r.opts.ProfileLinkPattern))
	if err != nil {
		logger.Warn("skipping unparseable page", zap.Int("page", page), zap.Error(err))
		return nil, extraction.PageStats{}, nil
	}

	contacts, stats := r.opts.Extractor.ExtractPage(doc, r.seen, page)
	return contacts, stats, nil
}

// advance activates the first next-page control that leads to a rendered
// page. It returns false when no control works.
func (r *Runner) advance(ctx context.Context, logger *zap.Logger) (bool, error) {
	for _, selector := range r.opts.NextPageSelectors {
		id, found, err := r.page.Query(ctx, selector)
		if err != nil {
			return false, &ChannelError{Message: "failed to query next page control", Cause: err}
		}
		if !found {
			continue
		}
		logger.Debug("found next page control", zap.String("selector", selector))

		if err := r.page.ScrollIntoView(ctx, id); err != nil {
			if errors.Is(err, dom.ErrNodeNotFound) {
				continue
			}
			return false, &ChannelError{Message: "failed to scroll to next page control", Cause: err}
		}
		if err := r.opts.Clock.Sleep(ctx, r.opts.ScrollIntoViewSettle); err != nil {
			return false, err
		}

		if err := r.page.Click(ctx, id); err != nil {
			if errors.Is(err, dom.ErrNodeNotFound) {
				continue
			}
			return false, &ChannelError{Message: "failed to activate next page control", Cause: err}
		}
		if err := r.opts.Clock.Sleep(ctx, r.opts.ClickSettle); err != nil {
			return false, err
		}

		loaded, err := r.waitForProfiles(ctx)
		if err != nil {
			return false, err
		}
		if loaded {
			return true, nil
		}
		logger.Debug("next page did not render", zap.String("selector", selector))
	}
	return false, nil
}

// waitForProfiles polls a bounded number of times for profile links.
func (r *Runner) waitForProfiles(ctx context.Context) (bool, error) {
	selector := dom.ProfileLinkSelector(r.opts.ProfileLinkPattern)
	for attempt := 0; attempt < r.opts.PollAttempts; attempt++ {
		n, err := r.page.CountMatches(ctx, selector)
		if err != nil {
			return false, &ChannelError{Message: "failed to poll for profile links", Cause: err}
		}
		if n > 0 {
			return true, nil
		}
		if err := r.opts.Clock.Sleep(ctx, r.opts.PollInterval); err != nil {
			return false, err
		}
	}
	return false, nil
}
