package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Score bands shared by the ATS and match opening sentences.
const (
	bandExcellent = 80
	bandGood      = 60

	lowMatchThreshold    = 60
	strongMatchThreshold = 70
	maxListedKeywords    = 10
)

var quantifiedPattern = regexp.MustCompile(`\d+%|\$[\d,]+|\d+\+`)

var weakVerbPhrases = []string{
	"responsible for",
	"helped",
	"worked on",
	"assisted with",
	"duties included",
}

// Recommendations is the fixed checklist appended to every overall feedback.
var Recommendations = []string{
	"Add more quantifiable achievements",
	"Include relevant technical skills",
	"Tailor experience to job requirements",
}

// findings is everything the composer reads; it is assembled after the detector join.
type findings struct {
	text       string
	lower      string
	features   StructuralFeatures
	keywords   KeywordSet
	matched    KeywordSet
	missing    KeywordSet
	jobTotal   int
	hasJob     bool
	atsScore   int
	matchScore *int
	grammar    []DetectedIssue
	formatting []DetectedIssue
}

// Composer assembles rule-based narrative output. It performs no I/O.
type Composer struct {
	w Weights
}

// NewComposer returns a composer using the length thresholds from w.
func NewComposer(w Weights) *Composer {
	return &Composer{w: w}
}

// OverallFeedback builds the summary paragraph block.
func (c *Composer) OverallFeedback(f findings) string {
	var lines []string

	lines = append(lines, atsOpening(f.atsScore))
	if f.matchScore != nil {
		lines = append(lines, matchOpening(*f.matchScore))
	}

	lines = append(lines, fmt.Sprintf("Found %d relevant keywords in your resume.", f.keywords.Len()))
	if f.hasJob {
		lines = append(lines, fmt.Sprintf("Matched %d of %d job keywords.", f.matched.Len(), f.jobTotal))
		if f.missing.Len() > 0 {
			lines = append(lines, fmt.Sprintf("Missing keywords: %s.", strings.Join(firstN(f.missing.Sorted(), maxListedKeywords), ", ")))
		}
	}

	lines = append(lines, fmt.Sprintf("Detected %d grammar/spelling issues and %d formatting issues.", len(f.grammar), len(f.formatting)))

	lines = append(lines, "Recommendations:")
	for i, r := range Recommendations {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, r))
	}
	return strings.Join(lines, "\n")
}

func atsOpening(score int) string {
	switch {
	case score >= bandExcellent:
		return "Excellent! Your resume is well-optimized for ATS systems."
	case score >= bandGood:
		return "Good job! Your resume is ATS-friendly with room for improvement."
	default:
		return "Your resume needs work to pass ATS systems effectively."
	}
}

func matchOpening(score int) string {
	switch {
	case score >= bandExcellent:
		return "Excellent match! Your resume aligns closely with this job."
	case score >= bandGood:
		return "Good match. Your resume covers most of what this job asks for."
	default:
		return "Your resume needs tailoring to match this job."
	}
}

// Suggestions evaluates the trigger rules in fixed order. Rules are independent.
func (c *Composer) Suggestions(f findings) []Suggestion {
	out := make([]Suggestion, 0, 5)

	if n := f.missing.Len(); n > 0 && n <= maxListedKeywords {
		out = append(out, Suggestion{
			Category:        "Keywords",
			Priority:        SeverityHigh,
			Text:            fmt.Sprintf("Add these missing keywords where they reflect real experience: %s", strings.Join(f.missing.Sorted(), ", ")),
			EstimatedImpact: "High - improves keyword match and ATS ranking",
		})
	}

	if !strings.Contains(f.text, "%") && !strings.Contains(f.text, "$") {
		out = append(out, Suggestion{
			Category:        "Impact",
			Priority:        SeverityHigh,
			Text:            "Quantify your achievements with numbers, percentages or dollar amounts",
			EstimatedImpact: "High - measurable results stand out to recruiters",
		})
	}

	if weak := weakPhrasesIn(f.lower); len(weak) > 0 {
		out = append(out, Suggestion{
			Category:        "Language",
			Priority:        SeverityMedium,
			Text:            fmt.Sprintf("Replace weak phrases (%s) with strong action verbs", strings.Join(weak, ", ")),
			EstimatedImpact: "Medium - action verbs make contributions clearer",
		})
	}

	if f.matchScore != nil && *f.matchScore < lowMatchThreshold {
		out = append(out, Suggestion{
			Category:        "Relevance",
			Priority:        SeverityHigh,
			Text:            "Tailor your experience descriptions to the job requirements",
			EstimatedImpact: "High - raises the match score for this job",
		})
	}

	if !strings.Contains(f.lower, "project") {
		out = append(out, Suggestion{
			Category:        "Content",
			Priority:        SeverityLow,
			Text:            "Add a projects section to showcase hands-on work",
			EstimatedImpact: "Low - adds evidence of practical skills",
		})
	}

	return out
}

func weakPhrasesIn(lower string) []string {
	var found []string
	for _, p := range weakVerbPhrases {
		if strings.Contains(lower, p) {
			found = append(found, "'"+p+"'")
		}
	}
	return found
}

// StrengthsWeaknesses runs the predicate battery. Each predicate feeds exactly one list.
func (c *Composer) StrengthsWeaknesses(f findings) (strengths, weaknesses []string) {
	strengths = make([]string, 0)
	weaknesses = make([]string, 0)

	type predicate struct {
		holds    bool
		strength bool
		text     string
	}

	quantified := len(quantifiedPattern.FindAllString(f.text, -1))
	words := f.features.WordCount
	allSections := f.features.HasExperienceSection && f.features.HasEducationSection && f.features.HasSkillsSection

	battery := []predicate{
		{f.keywords.Len() >= 8, true, "Strong technical keyword coverage"},
		{f.keywords.Len() < 4, false, "Few technical keywords detected"},
		{f.features.HasEmail && f.features.HasPhone, true, "Complete contact information"},
		{!f.features.HasContactInfo, false, "Missing contact information"},
		{f.features.HasLinks, true, "Online presence (LinkedIn, GitHub or portfolio) included"},
		{!f.features.HasLinks, false, "No LinkedIn, GitHub or portfolio links"},
		{quantified >= 3, true, "Quantified achievements demonstrate impact"},
		{quantified == 0, false, "No quantified achievements"},
		{len(f.grammar) == 0, true, "No grammar or spelling issues detected"},
		{len(f.grammar) >= 3, false, "Multiple grammar or spelling issues"},
		{len(f.formatting) >= 2, false, "Inconsistent formatting"},
		{allSections, true, "Clear experience, education and skills sections"},
		{!allSections, false, "Missing one or more standard sections (experience, education, skills)"},
		{words >= c.w.HealthyMinWords && words <= c.w.LongTextThreshold, true, "Appropriate resume length"},
		{words < c.w.ShortTextThreshold, false, "Resume seems too short"},
		{words > c.w.LongTextThreshold, false, "Resume might be too long"},
		{f.matchScore != nil && *f.matchScore >= strongMatchThreshold, true, "Strong alignment with the job requirements"},
		{f.hasJob && f.missing.Len() > 5, false, "Many job keywords are missing"},
	}

	for _, p := range battery {
		if !p.holds {
			continue
		}
		if p.strength {
			strengths = append(strengths, p.text)
		} else {
			weaknesses = append(weaknesses, p.text)
		}
	}
	return strengths, weaknesses
}

// ImprovementNotes condenses the suggestions into a short checklist.
func (c *Composer) ImprovementNotes(f findings, suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return "Add more specific achievements and quantify your impact."
	}
	var b strings.Builder
	b.WriteString("Suggested improvements:")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "\n- [%s] %s", s.Priority, s.Text)
	}
	if f.hasJob && f.missing.Len() > maxListedKeywords {
		fmt.Fprintf(&b, "\n- Consider covering more of the job keywords, starting with: %s",
			strings.Join(firstN(f.missing.Sorted(), maxListedKeywords), ", "))
	}
	return b.String()
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
