package extraction

import (
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/contact-extractor/internal/dom"
	"github.com/jonathan/contact-extractor/internal/types"
)

// IdentitySet records the identity URLs already emitted in one run.
type IdentitySet struct {
	seen map[string]struct{}
}

// NewIdentitySet returns an empty set.
func NewIdentitySet() *IdentitySet {
	return &IdentitySet{seen: make(map[string]struct{})}
}

// Add inserts url and reports whether it was new.
func (s *IdentitySet) Add(url string) bool {
	if _, ok := s.seen[url]; ok {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Has reports whether url was already added.
func (s *IdentitySet) Has(url string) bool {
	_, ok := s.seen[url]
	return ok
}

// Len returns the number of identities recorded.
func (s *IdentitySet) Len() int {
	return len(s.seen)
}

// Reset empties the set.
func (s *IdentitySet) Reset() {
	clear(s.seen)
}

// PageStats counts what happened to the containers of one page.
type PageStats struct {
	Containers    int `json:"containers"`
	Extracted     int `json:"extracted"`
	Unextractable int `json:"unextractable"`
	Duplicates    int `json:"duplicates"`
	Overflow      int `json:"overflow_dropped"`
}

// Options configures an Extractor.
type Options struct {
	Classifier *Classifier
	Logger     *zap.Logger
}

// Extractor turns a page snapshot into contact records.
type Extractor struct {
	classifier *Classifier
	logger     *zap.Logger
}

// NewExtractor creates an Extractor. Nil options fall back to the default
// classifier and a no-op logger.
func NewExtractor(opts Options) *Extractor {
	e := &Extractor{classifier: opts.Classifier, logger: opts.Logger}
	if e.classifier == nil {
		e.classifier = DefaultClassifier()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// ExtractContact builds a record from one container. The boolean is false
// when the container has no primary link or the record fails validation.
func (e *Extractor) ExtractContact(doc *dom.Document, container *goquery.Selection) (types.ContactRecord, bool) {
	rec, _, ok := e.extractContact(doc, container)
	return rec, ok
}

func (e *Extractor) extractContact(doc *dom.Document, container *goquery.Selection) (types.ContactRecord, int, bool) {
	var rec types.ContactRecord

	link := SelectPrimaryLink(doc, container)
	if link == nil {
		return rec, 0, false
	}

	rec.Name = dom.CleanText(link.Text())
	rec.IdentityURL = dom.CanonicalURL(doc.Href(link))
	if !rec.Valid() {
		return rec, 0, false
	}

	dropped := e.classifier.Classify(CollectText(container), rec.Name, &rec)
	return rec, dropped, true
}

// ExtractPage extracts every new contact on doc, tagging each with
// pageNumber and recording it in seen.
func (e *Extractor) ExtractPage(doc *dom.Document, seen *IdentitySet, pageNumber int) ([]types.ContactRecord, PageStats) {
	var stats PageStats
	var contacts []types.ContactRecord

	containers := FindContainers(doc)
	stats.Containers = len(containers)

	for i, container := range containers {
		rec, dropped, ok := e.extractContact(doc, container)
		if !ok {
			stats.Unextractable++
			e.logger.Debug("skipping unextractable container",
				zap.Int("page", pageNumber),
				zap.Int("container", i))
			continue
		}
		if !seen.Add(rec.IdentityURL) {
			stats.Duplicates++
			e.logger.Debug("skipping duplicate contact",
				zap.Int("page", pageNumber),
				zap.String("name", rec.Name),
				zap.String("identity_url", rec.IdentityURL))
			continue
		}

		rec.PageNumber = pageNumber
		stats.Overflow += dropped
		stats.Extracted++
		contacts = append(contacts, rec)
		e.logger.Debug("extracted contact",
			zap.Int("page", pageNumber),
			zap.String("name", rec.Name),
			zap.String("job_title", rec.JobTitle),
			zap.String("location", rec.Location),
			zap.Int("overflow_dropped", dropped))
	}

	return contacts, stats
}
