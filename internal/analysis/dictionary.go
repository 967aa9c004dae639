package analysis

import (
	"regexp"
	"slices"
	"strings"
)

// DefaultDictionaryVersion identifies the pinned vocabulary. Cache keys include it.
const DefaultDictionaryVersion = "2024.1"

var defaultTerms = []string{
	"java", "python", "javascript", "react", "angular", "vue",
	"spring", "node", "docker", "kubernetes", "aws", "azure",
	"sql", "mongodb", "postgresql", "mysql", "git", "agile",
	"scrum", "ci/cd", "devops", "rest", "api", "microservices",
	"html", "css", "typescript", "c++", "c#", "ruby", "php",
	"swift", "kotlin", "flutter", "android", "ios", "linux",
}

// DegreeTerm is a normalized degree keyword and the pattern that detects a mention of it.
type DegreeTerm struct {
	Term    string
	Pattern *regexp.Regexp
}

func defaultDegreeTerms() []DegreeTerm {
	return []DegreeTerm{
		{Term: "bachelor", Pattern: regexp.MustCompile(`(?i)\b(bachelor'?s?|b\.?sc?|b\.a|ba)\b`)},
		{Term: "master", Pattern: regexp.MustCompile(`(?i)\b(master'?s?|m\.sc?|msc|m\.a)\b`)},
		{Term: "phd", Pattern: regexp.MustCompile(`(?i)\b(ph\.?d|doctorate)\b`)},
		{Term: "mba", Pattern: regexp.MustCompile(`(?i)\bm\.?b\.?a\b`)},
		{Term: "degree", Pattern: regexp.MustCompile(`(?i)\bdegrees?\b`)},
	}
}

// genericDegree is satisfied by any specific degree mention.
const genericDegree = "degree"

var yearsPattern = regexp.MustCompile(`(?i)\d+\+?\s*years?`)

// Dictionary is the static vocabulary used for keyword extraction.
// It is immutable once built and safe for concurrent use.
type Dictionary struct {
	version string
	terms   []string
	degrees []DegreeTerm
	years   *regexp.Regexp
}

// DictionaryOption customizes a Dictionary.
type DictionaryOption func(*Dictionary)

// WithTerms appends extra terms to the vocabulary.
func WithTerms(terms ...string) DictionaryOption {
	return func(d *Dictionary) {
		d.terms = append(d.terms, terms...)
	}
}

// WithDegreeTerm adds or replaces a degree keyword. A nil pattern matches the term literally.
func WithDegreeTerm(term string, pattern *regexp.Regexp) DictionaryOption {
	return func(d *Dictionary) {
		term = normalizeTerm(term)
		if term == "" {
			return
		}
		if pattern == nil {
			pattern = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		}
		for i := range d.degrees {
			if d.degrees[i].Term == term {
				d.degrees[i].Pattern = pattern
				return
			}
		}
		d.degrees = append(d.degrees, DegreeTerm{Term: term, Pattern: pattern})
	}
}

// WithVersion overrides the dictionary version label.
func WithVersion(version string) DictionaryOption {
	return func(d *Dictionary) {
		if version != "" {
			d.version = version
		}
	}
}

// NewDictionary builds the default vocabulary with any extensions applied.
func NewDictionary(opts ...DictionaryOption) *Dictionary {
	d := &Dictionary{
		version: DefaultDictionaryVersion,
		terms:   slices.Clone(defaultTerms),
		degrees: defaultDegreeTerms(),
		years:   yearsPattern,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.terms = normalizeTerms(d.terms)
	return d
}

// DefaultDictionary returns the pinned vocabulary.
func DefaultDictionary() *Dictionary {
	return NewDictionary()
}

// Version returns the vocabulary version label.
func (d *Dictionary) Version() string {
	return d.version
}

// Terms returns a copy of the ordered term list.
func (d *Dictionary) Terms() []string {
	return slices.Clone(d.terms)
}

// DegreeTerms returns a copy of the degree keywords in dictionary order.
func (d *Dictionary) DegreeTerms() []string {
	out := make([]string, 0, len(d.degrees))
	for _, dt := range d.degrees {
		out = append(out, dt.Term)
	}
	return out
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// normalizeTerms lower-cases, trims and de-duplicates terms, keeping first-seen order.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = normalizeTerm(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
