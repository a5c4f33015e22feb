package dom

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Rect is the part of an element's bounding box the extractor uses.
type Rect struct {
	Top    float64
	Left   float64
	Height float64
}

// RectOf reads the layout annotations of the first node in s.
func RectOf(s *goquery.Selection) Rect {
	return Rect{
		Top:    floatAttr(s, AttrTop, 0),
		Left:   floatAttr(s, AttrLeft, 0),
		Height: floatAttr(s, AttrHeight, 0),
	}
}

// FontSize returns the computed font size of the first node in s, or DefaultFontSize.
func FontSize(s *goquery.Selection) float64 {
	size := floatAttr(s, AttrFont, DefaultFontSize)
	if size <= 0 {
		return DefaultFontSize
	}
	return size
}

// NodeID returns the data-cx-id of the first node in s, or "".
func NodeID(s *goquery.Selection) string {
	id, _ := s.Attr(AttrID)
	return id
}

// DirectText returns the text owned directly by the first node in s,
// excluding text that belongs to nested elements. The result is trimmed.
func DirectText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var sb strings.Builder
	for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

// Text returns all descendant text of s, trimmed.
func Text(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// CleanText collapses whitespace runs to single spaces and trims.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// CanonicalURL strips the query string and fragment from an identity URL.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func floatAttr(s *goquery.Selection, name string, fallback float64) float64 {
	raw, ok := s.Attr(name)
	if !ok {
		return fallback
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
