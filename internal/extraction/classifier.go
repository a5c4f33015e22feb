package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/contact-extractor/internal/textsim"
	"github.com/jonathan/contact-extractor/internal/types"
)

// Field is the semantic slot a text fragment is assigned to.
type Field int

const (
	// FieldName marks a restatement of the profile name; it is discarded.
	FieldName Field = iota
	FieldJobTitle
	FieldLocation
	FieldPastExperience
	FieldMutualConnections
	// FieldNoise marks UI chrome such as buttons and degree badges; it is discarded.
	FieldNoise
	// FieldOther is overflow kept in the additional info slots.
	FieldOther
)

func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldJobTitle:
		return "job_title"
	case FieldLocation:
		return "location"
	case FieldPastExperience:
		return "past_experience"
	case FieldMutualConnections:
		return "mutual_connections"
	case FieldNoise:
		return "noise"
	case FieldOther:
		return "other"
	default:
		return "unknown"
	}
}

// NameSimilarityThreshold is the similarity above which a fragment is a restatement of the name.
const NameSimilarityThreshold = 0.8

// Candidate is one fragment under classification.
type Candidate struct {
	Text  string
	Lower string
	Name  string
}

// Rule assigns Field to fragments matching Match.
type Rule struct {
	Field Field
	Match func(c Candidate) bool
}

// OrgHint recognises an organisation name in a job line. A fragment starting
// with ExcludePrefix does not match.
type OrgHint struct {
	Term          string
	ExcludePrefix string
}

// ClassifierConfig holds the vocabularies behind the rule ladder.
type ClassifierConfig struct {
	JobKeywords        []string
	OrgHints           []OrgHint
	Gazetteer          []string
	ExperiencePrefixes []string
	NoiseTerms         []string
	DegreeBadges       []string
}

// DefaultClassifierConfig returns the stock vocabularies.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		JobKeywords: []string{
			"specialist", "analyst", "engineer", "developer", "manager", "director",
			"consultant", "coordinator", "lead", "senior", "junior", "associate", "acquisition",
		},
		OrgHints: []OrgHint{
			{Term: "ford", ExcludePrefix: "current"},
			{Term: "motor company"},
		},
		Gazetteer: []string{
			"budapest", "hungary", "metropolitan", "area", "antwerp", "belgium",
			"germany", "prague", "czechia", "italy", "romania", "poland",
			"france", "spain", "netherlands", "austria", "sweden", "denmark",
		},
		ExperiencePrefixes: []string{"current:", "past:", "previous:", "former:"},
		NoiseTerms:         []string{"connect", "message", "view profile", "send"},
		DegreeBadges:       []string{"1st", "2nd", "3rd"},
	}
}

var (
	placePattern       = regexp.MustCompile(`^[A-Z][a-z]+,?\s+[A-Z][a-z]+`)
	otherMutualPattern = regexp.MustCompile(`\d+\s*other\s*mutual`)
	digitPattern       = regexp.MustCompile(`\d`)
)

// Classifier assigns fragments to contact fields with an ordered,
// first-match-wins rule ladder.
type Classifier struct {
	cfg   ClassifierConfig
	rules []Rule
}

// NewClassifier builds the rule ladder for cfg. Order is significant: a
// fragment matching both a job keyword and a place is a job title.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	c := &Classifier{cfg: cfg}
	c.rules = []Rule{
		{Field: FieldName, Match: isNameRestatement},
		{Field: FieldJobTitle, Match: c.isJobTitle},
		{Field: FieldLocation, Match: c.isLocation},
		{Field: FieldPastExperience, Match: c.isPastExperience},
		{Field: FieldMutualConnections, Match: isMutualConnections},
		{Field: FieldNoise, Match: c.isNoise},
	}
	return c
}

// DefaultClassifier is NewClassifier(DefaultClassifierConfig()).
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultClassifierConfig())
}

// Rules returns the ladder in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Categorize returns the field text would be assigned to given the fields
// already filled on rec. Single-value fields that are already set are skipped
// so the fragment falls through to later rules.
func (c *Classifier) Categorize(text, name string, rec *types.ContactRecord) Field {
	cand := Candidate{Text: text, Lower: strings.ToLower(text), Name: name}
	for _, rule := range c.rules {
		if filled(rec, rule.Field) {
			continue
		}
		if rule.Match(cand) {
			return rule.Field
		}
	}
	return FieldOther
}

// Classify fills the optional fields of rec from texts in order. The first
// two unclassified fragments become additional info; the number of further
// overflow fragments that were dropped is returned.
func (c *Classifier) Classify(texts []string, name string, rec *types.ContactRecord) int {
	var other []string
	for _, text := range texts {
		switch c.Categorize(text, name, rec) {
		case FieldJobTitle:
			rec.JobTitle = text
		case FieldLocation:
			rec.Location = text
		case FieldPastExperience:
			rec.PastExperience = text
		case FieldMutualConnections:
			rec.MutualConnections = text
		case FieldOther:
			other = append(other, text)
		}
	}

	for i := 0; i < len(other) && i < types.AdditionalInfoSlots; i++ {
		rec.AdditionalInfo[i] = other[i]
	}
	return max(0, len(other)-types.AdditionalInfoSlots)
}

func filled(rec *types.ContactRecord, f Field) bool {
	switch f {
	case FieldJobTitle:
		return rec.JobTitle != ""
	case FieldLocation:
		return rec.Location != ""
	case FieldPastExperience:
		return rec.PastExperience != ""
	case FieldMutualConnections:
		return rec.MutualConnections != ""
	default:
		return false
	}
}

func isNameRestatement(c Candidate) bool {
	if c.Text == c.Name {
		return true
	}
	if textsim.Similarity(c.Lower, strings.ToLower(c.Name)) > NameSimilarityThreshold {
		return true
	}
	return isAbbreviatedName(c.Text, c.Name)
}

// isAbbreviatedName matches shortened forms of the name such as "Jane D.":
// the same number of words, each either equal to the name's word or its initial.
func isAbbreviatedName(text, name string) bool {
	got, want := strings.Fields(text), strings.Fields(name)
	if len(got) < 2 || len(got) != len(want) {
		return false
	}
	full := 0
	for i, word := range got {
		word = strings.TrimSuffix(word, ".")
		if strings.EqualFold(word, want[i]) {
			full++
			continue
		}
		if utf8.RuneCountInString(word) != 1 {
			return false
		}
		initial, _ := utf8.DecodeRuneInString(want[i])
		if !strings.EqualFold(word, string(initial)) {
			return false
		}
	}
	return full > 0
}

func (c *Classifier) isJobTitle(cand Candidate) bool {
	if strings.Contains(cand.Lower, " at ") || strings.Contains(cand.Lower, " @ ") {
		return true
	}
	if containsAny(cand.Lower, c.cfg.JobKeywords) {
		return true
	}
	for _, hint := range c.cfg.OrgHints {
		if !strings.Contains(cand.Lower, hint.Term) {
			continue
		}
		if hint.ExcludePrefix != "" && strings.HasPrefix(cand.Lower, hint.ExcludePrefix) {
			continue
		}
		return true
	}
	return false
}

func (c *Classifier) isLocation(cand Candidate) bool {
	return containsAny(cand.Lower, c.cfg.Gazetteer) || placePattern.MatchString(cand.Text)
}

func (c *Classifier) isPastExperience(cand Candidate) bool {
	for _, prefix := range c.cfg.ExperiencePrefixes {
		if strings.HasPrefix(cand.Lower, prefix) {
			return true
		}
	}
	return strings.Contains(cand.Lower, "current") && strings.Contains(cand.Lower, " at ")
}

func isMutualConnections(cand Candidate) bool {
	if strings.Contains(cand.Lower, "mutual connection") || strings.Contains(cand.Lower, "mutual contact") {
		return true
	}
	if otherMutualPattern.MatchString(cand.Lower) {
		return true
	}
	return strings.Contains(cand.Lower, "other") &&
		strings.Contains(cand.Lower, "connection") &&
		digitPattern.MatchString(cand.Text)
}

func (c *Classifier) isNoise(cand Candidate) bool {
	if containsAny(cand.Lower, c.cfg.NoiseTerms) {
		return true
	}
	for _, badge := range c.cfg.DegreeBadges {
		if cand.Lower == badge {
			return true
		}
	}
	return cand.Lower == "•" || utf8.RuneCountInString(cand.Text) < 2
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
