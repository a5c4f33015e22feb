// Package snapshot replays saved page snapshots as a navigable page, so runs
// can be repeated offline against captured result listings.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/dom"
	"github.com/jonathan/contact-extractor/internal/fetch"
)

// DefaultScrollHeight is reported for snapshots without a body height annotation.
const DefaultScrollHeight = 3000.0

const emptyPage = "<html><head></head><body></body></html>"

// Source is one saved page.
type Source struct {
	Name string
	URL  string
	HTML string
}

// LoadError represents a failure to read snapshots.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapshot load error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("snapshot load error for %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// LoadFiles reads snapshots in the given order.
func LoadFiles(paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
		}
		sources = append(sources, Source{Name: filepath.Base(path), HTML: string(data)})
	}
	return sources, nil
}

// LoadDir reads every .html/.htm file in dir, ordered by file name.
func LoadDir(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: "failed to read directory", Cause: err}
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".html" || ext == ".htm" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, &LoadError{Path: dir, Message: "no .html snapshots found"}
	}
	slices.Sort(paths)
	return LoadFiles(paths)
}

// LoadURLs downloads snapshots in the given order.
func LoadURLs(ctx context.Context, urls []string, opts *fetch.Options) ([]Source, error) {
	sources := make([]Source, 0, len(urls))
	for _, u := range urls {
		result, err := fetch.URL(ctx, u, opts)
		if err != nil {
			return nil, &LoadError{Path: u, Message: "failed to download snapshot", Cause: err}
		}
		if result.Truncated {
			return nil, &LoadError{Path: u, Message: fmt.Sprintf("snapshot larger than %d bytes", fetch.MaxBodyBytes)}
		}
		sources = append(sources, Source{Name: u, URL: u, HTML: result.HTML})
	}
	return sources, nil
}

// Page serves snapshots in order. Activating any element of the current
// snapshot moves to the next one; past the last snapshot the page is empty.
// It satisfies pipeline.Page.
type Page struct {
	mu      sync.Mutex
	sources []Source
	docs    []*dom.Document
	index   int
	scrolls []float64
	clicks  []string
	logger  *zap.Logger
}

// New parses sources into a replayable page.
func New(sources []Source, logger *zap.Logger) (*Page, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Page{sources: sources, logger: logger}
	for _, src := range sources {
		doc, err := dom.ParseString(src.HTML, src.URL)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", src.Name, err)
		}
		doc.EnsureIDs()
		p.docs = append(p.docs, doc)
	}
	return p, nil
}

func (p *Page) current() *dom.Document {
	if p.index < len(p.docs) {
		return p.docs[p.index]
	}
	doc, _ := dom.ParseString(emptyPage, "")
	return doc
}

// Index returns the position of the snapshot being served.
func (p *Page) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Scrolls returns the scroll offsets requested so far.
func (p *Page) Scrolls() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.scrolls)
}

// Clicks returns the ids of the elements activated so far.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.clicks)
}

// Snapshot returns the markup and URL of the current snapshot.
func (p *Page) Snapshot(ctx context.Context) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	doc := p.current()
	html, err := doc.HTML()
	if err != nil {
		return "", "", err
	}
	return html, doc.URL(), nil
}

// ScrollHeight returns the body height annotation of the current snapshot.
func (p *Page) ScrollHeight(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if h := dom.RectOf(p.current().Find("body")).Height; h > 0 {
		return h, nil
	}
	return DefaultScrollHeight, nil
}

// ScrollTo records the requested offset.
func (p *Page) ScrollTo(ctx context.Context, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls = append(p.scrolls, y)
	return nil
}

// Query returns the id of the first element of the current snapshot matching selector.
func (p *Page) Query(ctx context.Context, selector string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	match := p.current().Find(selector).First()
	if match.Length() == 0 {
		return "", false, nil
	}
	return dom.NodeID(match), true, nil
}

// CountMatches counts elements of the current snapshot matching selector.
func (p *Page) CountMatches(ctx context.Context, selector string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current().Find(selector).Length(), nil
}

// ScrollIntoView checks that the element exists in the current snapshot.
func (p *Page) ScrollIntoView(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current().NodeByID(id).Length() == 0 {
		return fmt.Errorf("scroll into view %s: %w", id, dom.ErrNodeNotFound)
	}
	return nil
}

// Click moves to the next snapshot.
func (p *Page) Click(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current().NodeByID(id).Length() == 0 {
		return fmt.Errorf("click %s: %w", id, dom.ErrNodeNotFound)
	}
	p.clicks = append(p.clicks, id)
	if p.index < len(p.docs) {
		p.index++
	}
	if p.index < len(p.sources) {
		p.logger.Debug("advanced snapshot", zap.String("name", p.sources[p.index].Name), zap.Int("index", p.index))
	} else {
		p.logger.Debug("replay exhausted", zap.Int("snapshots", len(p.sources)))
	}
	return nil
}
