package analysis

import (
	"fmt"
	"strings"
	"unicode"
)

// IssueCategory classifies a detected defect.
type IssueCategory string

const (
	CategorySpelling   IssueCategory = "spelling"
	CategoryGrammar    IssueCategory = "grammar"
	CategoryStyle      IssueCategory = "style"
	CategoryFormatting IssueCategory = "formatting"
)

// Severity ranks issues and suggestions.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// DetectedIssue is a single grammar, spelling, style or formatting finding.
type DetectedIssue struct {
	Category     IssueCategory `json:"category"`
	Description  string        `json:"description"`
	SuggestedFix string        `json:"suggestedFix"`
	Severity     Severity      `json:"severity"`
}

// misspellings pairs a misspelled stem with its correction. Inflected forms such as
// "recieved" hit through the stem.
var misspellings = []struct {
	wrong, right string
}{
	{"recieve", "receive"},
	{"acheive", "achieve"},
	{"beleive", "believe"},
	{"seperate", "separate"},
	{"occured", "occurred"},
	{"definately", "definitely"},
	{"managment", "management"},
	{"enviroment", "environment"},
	{"developement", "development"},
	{"experiance", "experience"},
	{"responsability", "responsibility"},
	{"sucessful", "successful"},
	{"succesful", "successful"},
	{"knowlege", "knowledge"},
	{"proficent", "proficient"},
	{"accomodate", "accommodate"},
	{"comunication", "communication"},
	{"commited", "committed"},
	{"leadersip", "leadership"},
	{"analysys", "analysis"},
}

var passivePhrases = []string{
	"was responsible for",
	"were responsible for",
	"was tasked with",
	"was given",
	"was assigned",
	"was handled by",
	"was managed by",
	"was developed by",
	"was created by",
	"were handled",
	"been involved in",
}

// DetectGrammar scans text once, left to right, for misspellings and repeated
// adjacent words, then appends at most one passive voice finding.
func DetectGrammar(text string) []DetectedIssue {
	issues := make([]DetectedIssue, 0)
	tokens := strings.Fields(text)

	consumed := 0
	for i, tok := range tokens {
		if issue, ok := checkSpelling(tok); ok {
			issues = append(issues, issue)
		}

		if i == 0 {
			continue
		}
		// consumed is how much of the previous token a repeat already claimed
		word, n, ok := repeatedWord(tokens[i-1], consumed, tok)
		consumed = n
		if ok {
			issues = append(issues, DetectedIssue{
				Category:     CategoryGrammar,
				Description:  fmt.Sprintf("Repeated word: '%s'", word),
				SuggestedFix: fmt.Sprintf("Remove the duplicate '%s'", word),
				Severity:     SeverityMedium,
			})
		}
	}

	if phrase := firstPassivePhrase(text); phrase != "" {
		issues = append(issues, DetectedIssue{
			Category:     CategoryStyle,
			Description:  fmt.Sprintf("Passive voice detected: '%s'", phrase),
			SuggestedFix: "Use active voice with strong action verbs (e.g. 'Led', 'Built', 'Delivered')",
			Severity:     SeverityLow,
		})
	}
	return issues
}

func checkSpelling(token string) (DetectedIssue, bool) {
	word := strings.ToLower(strings.TrimFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if word == "" {
		return DetectedIssue{}, false
	}
	for _, m := range misspellings {
		if strings.HasPrefix(word, m.wrong) {
			return DetectedIssue{
				Category:     CategorySpelling,
				Description:  fmt.Sprintf("Possible misspelling: '%s'", word),
				SuggestedFix: fmt.Sprintf("Replace '%s' with '%s'", m.wrong, m.right),
				Severity:     SeverityHigh,
			}, true
		}
	}
	return DetectedIssue{}, false
}

// repeatedWord mirrors `\b(\w+)\s+\1\b` (case-insensitive) over two adjacent tokens:
// the trailing word run of prev must equal the leading word run of cur.
// repeatedWord reports whether cur starts with the word that ends prev. Bytes of
// prev before prevConsumed belong to an earlier repeat and cannot match again.
// The returned length is how much of cur the repeat consumed.
func repeatedWord(prev string, prevConsumed int, cur string) (string, int, bool) {
	if prev == "" || cur == "" {
		return "", 0, false
	}

	end := len(prev)
	start := end
	for start > 0 && isWordByte(prev[start-1]) {
		start--
	}
	if start == end || start < prevConsumed {
		return "", 0, false
	}
	tail := prev[start:end]

	n := 0
	for n < len(cur) && isWordByte(cur[n]) {
		n++
	}
	if n == 0 {
		return "", 0, false
	}
	head := cur[:n]

	if !strings.EqualFold(tail, head) {
		return "", 0, false
	}
	return strings.ToLower(head), n, true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// firstPassivePhrase returns the first listed passive phrase present in text, or "".
// Scanning stops at the first hit.
func firstPassivePhrase(text string) string {
	lower := strings.ToLower(text)
	for _, p := range passivePhrases {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}

var bulletStyles = []string{"- ", "• ", "* "}

// DetectFormatting applies the formatting rules in fixed order. Each rule yields at most one issue.
func DetectFormatting(text string) []DetectedIssue {
	issues := make([]DetectedIssue, 0)

	if strings.Contains(text, "/20") && strings.Contains(text, "-20") {
		issues = append(issues, DetectedIssue{
			Category:     CategoryFormatting,
			Description:  "Inconsistent date formats (both '/' and '-' separators used)",
			SuggestedFix: "Use one date format throughout, e.g. 'MM/YYYY'",
			Severity:     SeverityMedium,
		})
	}

	styles := 0
	for _, b := range bulletStyles {
		if strings.Contains(text, b) {
			styles++
		}
	}
	if styles > 1 {
		issues = append(issues, DetectedIssue{
			Category:     CategoryFormatting,
			Description:  "Inconsistent bullet point styles",
			SuggestedFix: "Use a single bullet style for all lists",
			Severity:     SeverityLow,
		})
	}

	if strings.Contains(text, "\n\n\n") {
		issues = append(issues, DetectedIssue{
			Category:     CategoryFormatting,
			Description:  "Excessive blank lines",
			SuggestedFix: "Use a single blank line between sections",
			Severity:     SeverityLow,
		})
	}

	return issues
}
