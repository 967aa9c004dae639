package analysis

import "strings"

// Suggestion is a prioritized, actionable recommendation.
type Suggestion struct {
	Category        string   `json:"category"`
	Priority        Severity `json:"priority"`
	Text            string   `json:"text"`
	EstimatedImpact string   `json:"estimatedImpact"`
}

// JobContext describes the posting a resume is matched against.
type JobContext struct {
	Title        string `json:"jobTitle"`
	Description  string `json:"jobDescription"`
	Requirements string `json:"requirements"`
}

// Text assembles the job fields into the single blob keywords are extracted from.
func (j JobContext) Text() string {
	var parts []string
	if t := strings.TrimSpace(j.Title); t != "" {
		parts = append(parts, "Job Title: "+t)
	}
	if d := strings.TrimSpace(j.Description); d != "" {
		parts = append(parts, "Description: "+d)
	}
	if r := strings.TrimSpace(j.Requirements); r != "" {
		parts = append(parts, "Requirements: "+r)
	}
	return strings.Join(parts, "\n\n")
}

// IsEmpty reports whether no job field carries text.
func (j JobContext) IsEmpty() bool {
	return j.Text() == ""
}

// Narrative sources recorded on a ScoreCard.
const (
	SourceRules     = "rules"
	SourceAugmented = "augmented"
	SourceMixed     = "mixed"
)

// ScoreCard is the result of one analysis. It is built once and never mutated.
// Collections are always non-nil so they serialize as [] rather than null.
type ScoreCard struct {
	ATSScore         int                `json:"atsScore"`
	MatchScore       *int               `json:"matchScore"`
	Keywords         KeywordSet         `json:"keywords"`
	MatchedKeywords  KeywordSet         `json:"matchedKeywords"`
	MissingKeywords  KeywordSet         `json:"missingKeywords"`
	Features         StructuralFeatures `json:"features"`
	GrammarIssues    []DetectedIssue    `json:"grammarIssues"`
	FormattingIssues []DetectedIssue    `json:"formattingIssues"`
	Suggestions      []Suggestion       `json:"suggestions"`
	Strengths        []string           `json:"strengths"`
	Weaknesses       []string           `json:"weaknesses"`
	OverallFeedback  string             `json:"overallFeedback"`
	ImprovementNotes string             `json:"improvedVersionNotes"`
	NarrativeSource  string             `json:"narrativeSource"`
}

// HasMatchScore reports whether the card was computed against a job.
func (c ScoreCard) HasMatchScore() bool {
	return c.MatchScore != nil
}

// Normalize replaces nil collections with empty ones. Used after decoding persisted cards.
func (c *ScoreCard) Normalize() {
	if c.GrammarIssues == nil {
		c.GrammarIssues = []DetectedIssue{}
	}
	if c.FormattingIssues == nil {
		c.FormattingIssues = []DetectedIssue{}
	}
	if c.Suggestions == nil {
		c.Suggestions = []Suggestion{}
	}
	if c.Strengths == nil {
		c.Strengths = []string{}
	}
	if c.Weaknesses == nil {
		c.Weaknesses = []string{}
	}
	if c.NarrativeSource == "" {
		c.NarrativeSource = SourceRules
	}
}
