// Package extraction turns the profile cards of a rendered results page into contact records
// without relying on a fixed markup schema.
package extraction

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jonathan/contact-extractor/internal/dom"
)

const (
	// minProfileText and maxProfileText bound the text length of a plausible profile card.
	minProfileText = 20
	maxProfileText = 2000

	// maxAscend is how many ancestors of a profile link are inspected for a container.
	maxAscend = 10

	minContainerHeight = 80.0
	maxContainerHeight = 600.0

	// maxLinksPerContainer stops link ascension from selecting a whole results list.
	maxLinksPerContainer = 10
)

// classHintSelector matches block elements whose class names suggest a search result.
const classHintSelector = `div[class*="result"], div[class*="entity"], div[class*="search"]`

// ascensionClassHints are the class fragments accepted while walking up from a link.
var ascensionClassHints = []string{"result", "entity"}

// FindContainers returns the candidate profile containers of a page in order of
// first discovery. Three strategies are unioned: list items, class-hinted blocks and
// ancestors of profile links. A node is never returned twice.
func FindContainers(doc *dom.Document) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var containers []*goquery.Selection

	add := func(s *goquery.Selection) {
		node := s.Nodes[0]
		if seen[node] {
			return
		}
		seen[node] = true
		containers = append(containers, s)
	}

	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if LooksLikeProfile(doc, li) {
			add(li)
		}
	})

	doc.Find(classHintSelector).Each(func(_ int, div *goquery.Selection) {
		if LooksLikeProfile(doc, div) {
			add(div)
		}
	})

	doc.ProfileLinks(doc.Root()).Each(func(_ int, link *goquery.Selection) {
		container := containerForLink(doc, link)
		if container != nil && LooksLikeProfile(doc, container) {
			add(container)
		}
	})

	return containers
}

// LooksLikeProfile reports whether s holds at least one profile link and a
// plausible amount of text for a single card.
func LooksLikeProfile(doc *dom.Document, s *goquery.Selection) bool {
	if doc.ProfileLinks(s).Length() == 0 {
		return false
	}
	n := utf8.RuneCountInString(dom.Text(s))
	return n > minProfileText && n < maxProfileText
}

// containerForLink walks up from a profile link looking for the node that
// represents one entry.
func containerForLink(doc *dom.Document, link *goquery.Selection) *goquery.Selection {
	current := link
	for i := 0; i < maxAscend; i++ {
		current = current.Parent()
		if current.Length() == 0 {
			return nil
		}
		if !looksLikeEntry(current) {
			continue
		}
		if doc.ProfileLinks(current).Length() <= maxLinksPerContainer {
			return current
		}
	}
	return nil
}

func looksLikeEntry(s *goquery.Selection) bool {
	if goquery.NodeName(s) == "li" {
		return true
	}
	class, _ := s.Attr("class")
	for _, hint := range ascensionClassHints {
		if strings.Contains(class, hint) {
			return true
		}
	}
	h := dom.RectOf(s).Height
	return h > minContainerHeight && h < maxContainerHeight
}
