// Package dom exposes a rendered page snapshot as a queryable document tree.
//
// A snapshot is the page's outer HTML in which every element carries layout
// annotations written by the page driver:
//
//	data-cx-id      stable element id used to activate the live node
//	data-cx-top     top edge of the bounding box, page relative
//	data-cx-left    left edge of the bounding box, page relative
//	data-cx-height  height of the bounding box
//	data-cx-font    computed font size in px
//	data-cx-href    absolute href (anchors only)
//	data-cx-url     address of the page (root element only)
//
// Elements without annotations are treated as having a zero box and the default font size.
package dom

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Layout annotation attributes.
const (
	AttrID     = "data-cx-id"
	AttrTop    = "data-cx-top"
	AttrLeft   = "data-cx-left"
	AttrHeight = "data-cx-height"
	AttrFont   = "data-cx-font"
	AttrHref   = "data-cx-href"
	AttrURL    = "data-cx-url"
)

// DefaultFontSize is used when an element has no computed font size.
const DefaultFontSize = 14.0

// DefaultProfileLinkPattern is the href fragment that marks a profile identity link.
const DefaultProfileLinkPattern = "/in/"

// Document is a parsed page snapshot.
type Document struct {
	doc         *goquery.Document
	pageURL     *url.URL
	linkPattern string
}

// Option configures a Document.
type Option func(*Document)

// WithProfileLinkPattern overrides the href fragment identifying profile links.
func WithProfileLinkPattern(pattern string) Option {
	return func(d *Document) {
		if pattern != "" {
			d.linkPattern = pattern
		}
	}
}

// Parse reads an annotated snapshot. pageURL is used to resolve relative links;
// when empty the address recorded on the root element is used, if any.
func Parse(r io.Reader, pageURL string, opts ...Option) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML", Cause: err}
	}

	if pageURL == "" {
		pageURL, _ = doc.Find("html").First().Attr(AttrURL)
	}

	var base *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return nil, &ParseError{Message: "invalid page URL " + pageURL, Cause: err}
		}
		base = parsed
	}

	d := &Document{doc: doc, pageURL: base, linkPattern: DefaultProfileLinkPattern}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString is Parse over an in-memory snapshot.
func ParseString(htmlContent, pageURL string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(htmlContent), pageURL, opts...)
}

// URL returns the address the snapshot was taken from, or "".
func (d *Document) URL() string {
	if d.pageURL == nil {
		return ""
	}
	return d.pageURL.String()
}

// Root returns the document root selection.
func (d *Document) Root() *goquery.Selection {
	return d.doc.Selection
}

// Find runs a CSS selector against the whole document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// ProfileLinkSelector is the CSS selector matching profile identity links.
func (d *Document) ProfileLinkSelector() string {
	return ProfileLinkSelector(d.linkPattern)
}

// ProfileLinks returns the profile identity links inside s, in document order.
func (d *Document) ProfileLinks(s *goquery.Selection) *goquery.Selection {
	return s.Find(d.ProfileLinkSelector())
}

// Href returns the absolute target of a link. The driver-provided absolute
// href wins; otherwise the raw href is resolved against the page URL.
func (d *Document) Href(link *goquery.Selection) string {
	if abs, ok := link.Attr(AttrHref); ok && strings.TrimSpace(abs) != "" {
		return strings.TrimSpace(abs)
	}
	href, ok := link.Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if d.pageURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return d.pageURL.ResolveReference(ref).String()
}

// NodeByID finds the element carrying the given data-cx-id.
func (d *Document) NodeByID(id string) *goquery.Selection {
	return d.doc.Find(fmt.Sprintf(`[%s=%q]`, AttrID, id))
}

// EnsureIDs gives every element without a data-cx-id a fresh one so that
// offline snapshots can be activated the same way live pages are.
func (d *Document) EnsureIDs() {
	next := 1
	d.doc.Find("[" + AttrID + "]").Each(func(_ int, s *goquery.Selection) {
		if n, err := strconv.Atoi(NodeID(s)); err == nil && n >= next {
			next = n + 1
		}
	})
	d.doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if NodeID(s) != "" {
			return
		}
		s.SetAttr(AttrID, strconv.Itoa(next))
		next++
	})
}

// HTML renders the snapshot back to markup.
func (d *Document) HTML() (string, error) {
	return goquery.OuterHtml(d.doc.Selection)
}

// ProfileLinkSelector builds the anchor selector for an href pattern.
func ProfileLinkSelector(pattern string) string {
	if pattern == "" {
		pattern = DefaultProfileLinkPattern
	}
	return `a[href*="` + strings.ReplaceAll(pattern, `"`, `\"`) + `"]`
}
