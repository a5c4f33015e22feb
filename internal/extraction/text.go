package extraction

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/contact-extractor/internal/dom"
)

// RowTolerance is the vertical distance within which two fragments are read as
// sitting on the same visual line.
const RowTolerance = 15.0

// maxFragmentLength drops paragraphs that cannot be a single field.
const maxFragmentLength = 300

var decorationOnly = regexp.MustCompile(`^[•·\-–—\s]+$`)

// Fragment is a piece of text owned directly by one element, with its position.
type Fragment struct {
	Text string
	Top  float64
	Left float64
}

// CollectFragments gathers the direct text of every descendant of container in
// visual reading order: top to bottom, and left to right within a row.
func CollectFragments(container *goquery.Selection) []Fragment {
	var fragments []Fragment
	container.Find("*").Each(func(_ int, el *goquery.Selection) {
		text := dom.DirectText(el)
		if text == "" {
			return
		}
		rect := dom.RectOf(el)
		fragments = append(fragments, Fragment{Text: text, Top: rect.Top, Left: rect.Left})
	})

	sort.SliceStable(fragments, func(i, j int) bool {
		a, b := fragments[i], fragments[j]
		if math.Abs(a.Top-b.Top) > RowTolerance {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})

	return fragments
}

// CollectText returns the distinct cleaned text of a container in reading order.
// Fragments that are empty, overlong, decoration only, or a case-insensitive
// repeat of an earlier fragment are dropped.
func CollectText(container *goquery.Selection) []string {
	fragments := CollectFragments(container)

	seen := make(map[string]bool, len(fragments))
	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		text := dom.CleanText(f.Text)
		if text == "" || utf8.RuneCountInString(text) > maxFragmentLength {
			continue
		}
		if decorationOnly.MatchString(text) {
			continue
		}
		key := strings.ToLower(text)
		if seen[key] {
			continue
		}
		seen[key] = true
		texts = append(texts, text)
	}
	return texts
}
