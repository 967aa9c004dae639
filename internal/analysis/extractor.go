package analysis

import (
	"strconv"
	"strings"
)

// Extractor finds dictionary keywords in text by case-insensitive substring match.
// A term matches anywhere in the text, so "java" is found inside "javascript".
type Extractor struct {
	dict *Dictionary
}

// NewExtractor creates an extractor bound to dict.
func NewExtractor(dict *Dictionary) *Extractor {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Extractor{dict: dict}
}

// Extract returns the dictionary terms present in text.
func (e *Extractor) Extract(text string) KeywordSet {
	lower := strings.ToLower(text)
	found := NewKeywordSet()
	for _, term := range e.dict.terms {
		if strings.Contains(lower, term) {
			found.Add(term)
		}
	}
	return found
}

// ExtractLiteral returns the dictionary terms plus the degree keywords written out
// literally, such as "bachelor" or "degree". Aliases like "BS" do not count.
func (e *Extractor) ExtractLiteral(text string) KeywordSet {
	found := e.Extract(text)
	lower := strings.ToLower(text)
	for _, dt := range e.dict.degrees {
		if strings.Contains(lower, dt.Term) {
			found.Add(dt.Term)
		}
	}
	return found
}

// ExtractJob returns the keywords a job posting asks for: dictionary terms,
// degree mentions and the first years-of-experience phrase as written.
func (e *Extractor) ExtractJob(text string) KeywordSet {
	found := e.Extract(text)
	for _, dt := range e.dict.degrees {
		if dt.Pattern.MatchString(text) {
			found.Add(dt.Term)
		}
	}
	if years := e.dict.years.FindString(text); years != "" {
		found.Add(years)
	}
	return found
}

// ExtractResume returns the keywords a resume offers when compared against a job:
// dictionary terms plus degree mentions. Any specific degree also satisfies the
// generic "degree" keyword.
func (e *Extractor) ExtractResume(text string) KeywordSet {
	found := e.Extract(text)
	specific := false
	for _, dt := range e.dict.degrees {
		if dt.Pattern.MatchString(text) {
			found.Add(dt.Term)
			if dt.Term != genericDegree {
				specific = true
			}
		}
	}
	if specific {
		found.Add(genericDegree)
	}
	return found
}

// Match splits the job keywords into those the resume covers and those it lacks.
// Returns resumeKeywords, matched and missing; matched and missing partition jobKeywords.
func (e *Extractor) Match(resumeText string, jobKeywords KeywordSet) (resumeKeywords, matched, missing KeywordSet) {
	resumeKeywords = e.ExtractResume(resumeText)
	lower := strings.ToLower(resumeText)
	maxYears := e.maxYears(resumeText)

	// A years phrase from the job is covered when the resume states it or a larger figure.
	for _, k := range jobKeywords.Sorted() {
		if resumeKeywords.Contains(k) {
			continue
		}
		if n, ok := leadingNumber(k); ok && e.dict.years.MatchString(k) {
			if strings.Contains(lower, strings.ToLower(k)) || maxYears >= n {
				resumeKeywords.Add(k)
			}
		}
	}

	matched = resumeKeywords.Intersect(jobKeywords)
	missing = jobKeywords.Difference(resumeKeywords)
	return resumeKeywords, matched, missing
}

func (e *Extractor) maxYears(text string) int {
	best := -1
	for _, m := range e.dict.years.FindAllString(text, -1) {
		if n, ok := leadingNumber(m); ok && n > best {
			best = n
		}
	}
	return best
}

func leadingNumber(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
