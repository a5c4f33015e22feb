package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/contact-extractor/internal/dom"
)

// Link scoring weights.
const (
	nameBonus        = 10.0
	maxPositionBonus = 50.0
	positionDivisor  = 10.0
	artifactPenalty  = 20.0
)

// SelectPrimaryLink returns the link that identifies the profile itself, or nil
// when the container has no profile links. With several candidates the highest
// scoring one wins and ties go to the first in document order.
func SelectPrimaryLink(doc *dom.Document, container *goquery.Selection) *goquery.Selection {
	links := doc.ProfileLinks(container)
	switch links.Length() {
	case 0:
		return nil
	case 1:
		return links.First()
	}

	var best *goquery.Selection
	bestScore := 0.0
	links.Each(func(_ int, link *goquery.Selection) {
		score := ScoreLink(link)
		if best == nil || score > bestScore {
			best = link
			bestScore = score
		}
	})
	return best
}

// ScoreLink rates how likely a link is the profile's main name link: names are
// capitalized multi-word strings near the top, rendered larger than metadata.
// Connection summaries ("Jane and 5 others") and badges are penalized.
func ScoreLink(link *goquery.Selection) float64 {
	text := dom.CleanText(link.Text())
	score := 0.0

	if looksLikePersonName(text) {
		score += nameBonus
	}

	score += max(0, maxPositionBonus-dom.RectOf(link).Top/positionDivisor)
	score += dom.FontSize(link)

	if strings.Contains(text, "and ") || containsDigit(text) || utf8.RuneCountInString(text) < 3 {
		score -= artifactPenalty
	}

	return score
}

func looksLikePersonName(text string) bool {
	n := utf8.RuneCountInString(text)
	if n <= 2 || n >= 60 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(text)
	return unicode.IsUpper(first) && strings.Contains(text, " ")
}

func containsDigit(text string) bool {
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}
