package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"resumefit/internal/analysis"
	"resumefit/internal/store"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Data type names the registry dispatches on
const (
	TypeAny            = "any"
	TypeScoreCard      = "ScoreCard"
	TypeAnalysisRecord = "AnalysisRecord"
	TypeHistory        = "AnalysisHistory"
	TypeSavedJob       = "SavedJob"
	TypeJobList        = "SavedJobList"
)

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	for _, style := range []*style{textStyle, markdownStyle} {
		registry.RegisterFormatter(style.format, TypeScoreCard, &ScoreCardFormatter{style: style})
		registry.RegisterFormatter(style.format, TypeAnalysisRecord, &RecordFormatter{style: style})
		registry.RegisterFormatter(style.format, TypeHistory, &HistoryFormatter{style: style})
		registry.RegisterFormatter(style.format, TypeSavedJob, &JobFormatter{style: style})
		registry.RegisterFormatter(style.format, TypeJobList, &JobListFormatter{style: style})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in lexical order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case analysis.ScoreCard:
		return TypeScoreCard
	case store.AnalysisRecord:
		return TypeAnalysisRecord
	case []store.AnalysisRecord:
		return TypeHistory
	case store.SavedJob:
		return TypeSavedJob
	case []store.SavedJob:
		return TypeJobList
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// style holds the markup differences between text and markdown output
type style struct {
	format  string
	title   func(string) string
	heading func(string) string
	bullet  string
}

var (
	textStyle = &style{
		format:  "text",
		title:   func(s string) string { return "=== " + strings.ToUpper(s) + " ===\n" },
		heading: func(s string) string { return s + ":\n" },
		bullet:  "  - ",
	}
	markdownStyle = &style{
		format:  "markdown",
		title:   func(s string) string { return "# " + s + "\n" },
		heading: func(s string) string { return "## " + s + "\n" },
		bullet:  "- ",
	}
)

func (s *style) list(out *strings.Builder, items []string) {
	if len(items) == 0 {
		out.WriteString(s.bullet + "None\n")
		return
	}
	for _, item := range items {
		out.WriteString(s.bullet + item + "\n")
	}
}

func (s *style) joined(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	if s.format == "markdown" {
		quoted := make([]string, len(items))
		for i, item := range items {
			quoted[i] = "`" + item + "`"
		}
		return strings.Join(quoted, ", ")
	}
	return strings.Join(items, ", ")
}

func (s *style) writeCard(out *strings.Builder, card analysis.ScoreCard) {
	fmt.Fprintf(out, "ATS Score: %d/100\n", card.ATSScore)
	if card.MatchScore != nil {
		fmt.Fprintf(out, "Match Score: %d/100\n", *card.MatchScore)
	}
	fmt.Fprintf(out, "Narrative: %s\n\n", card.NarrativeSource)

	out.WriteString(s.heading("Overall Feedback"))
	out.WriteString(card.OverallFeedback + "\n\n")

	out.WriteString(s.heading("Keywords"))
	out.WriteString("Found: " + s.joined(card.Keywords.Sorted()) + "\n")
	if card.MatchScore != nil {
		out.WriteString("Matched: " + s.joined(card.MatchedKeywords.Sorted()) + "\n")
		out.WriteString("Missing: " + s.joined(card.MissingKeywords.Sorted()) + "\n")
	}
	out.WriteString("\n")

	out.WriteString(s.heading("Structure"))
	f := card.Features
	s.list(out, []string{
		fmt.Sprintf("Contact info: %s", yesNo(f.HasContactInfo)),
		fmt.Sprintf("Experience section: %s", yesNo(f.HasExperienceSection)),
		fmt.Sprintf("Education section: %s", yesNo(f.HasEducationSection)),
		fmt.Sprintf("Skills section: %s", yesNo(f.HasSkillsSection)),
		fmt.Sprintf("Words: %d", f.WordCount),
	})
	out.WriteString("\n")

	out.WriteString(s.heading("Strengths"))
	s.list(out, card.Strengths)
	out.WriteString("\n")

	out.WriteString(s.heading("Weaknesses"))
	s.list(out, card.Weaknesses)
	out.WriteString("\n")

	out.WriteString(s.heading("Suggestions"))
	suggestions := make([]string, len(card.Suggestions))
	for i, sg := range card.Suggestions {
		suggestions[i] = fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(sg.Priority)), sg.Category, sg.Text)
	}
	s.list(out, suggestions)
	out.WriteString("\n")

	issues := append(append([]analysis.DetectedIssue{}, card.GrammarIssues...), card.FormattingIssues...)
	out.WriteString(s.heading("Issues"))
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = fmt.Sprintf("(%s) %s. %s", issue.Severity, issue.Description, issue.SuggestedFix)
	}
	s.list(out, lines)

	if card.ImprovementNotes != "" {
		out.WriteString("\n")
		out.WriteString(s.heading("Improvement Notes"))
		out.WriteString(card.ImprovementNotes + "\n")
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// ScoreCardFormatter renders a bare score card
type ScoreCardFormatter struct{ style *style }

func (f *ScoreCardFormatter) Format(data any) (string, error) {
	card, ok := data.(analysis.ScoreCard)
	if !ok {
		return "", fmt.Errorf("expected ScoreCard, got %T", data)
	}
	var out strings.Builder
	out.WriteString(f.style.title("Resume Analysis"))
	out.WriteString("\n")
	f.style.writeCard(&out, card)
	return out.String(), nil
}

func (f *ScoreCardFormatter) SupportedType() string { return TypeScoreCard }

// RecordFormatter renders an analysis record with its identifiers
type RecordFormatter struct{ style *style }

func (f *RecordFormatter) Format(data any) (string, error) {
	record, ok := data.(store.AnalysisRecord)
	if !ok {
		return "", fmt.Errorf("expected AnalysisRecord, got %T", data)
	}
	var out strings.Builder
	title := "Resume Analysis"
	if record.JobTitle != "" {
		title = "Match: " + record.JobTitle
	}
	out.WriteString(f.style.title(title))
	out.WriteString("\n")
	if record.ID != "" {
		fmt.Fprintf(&out, "Analysis ID: %s\n", record.ID)
	}
	if record.ResumeID != "" {
		fmt.Fprintf(&out, "Resume ID: %s\n", record.ResumeID)
	}
	if record.JobID != "" {
		fmt.Fprintf(&out, "Job ID: %s\n", record.JobID)
	}
	fmt.Fprintf(&out, "Created: %s\n", formatTime(record.CreatedAt))
	f.style.writeCard(&out, record.ScoreCard)
	return out.String(), nil
}

func (f *RecordFormatter) SupportedType() string { return TypeAnalysisRecord }

// HistoryFormatter renders a resume's analysis history
type HistoryFormatter struct{ style *style }

func (f *HistoryFormatter) Format(data any) (string, error) {
	records, ok := data.([]store.AnalysisRecord)
	if !ok {
		return "", fmt.Errorf("expected []AnalysisRecord, got %T", data)
	}
	var out strings.Builder
	out.WriteString(f.style.title("Analysis History"))
	out.WriteString("\n")
	lines := make([]string, len(records))
	for i, r := range records {
		match := "-"
		if r.ScoreCard.MatchScore != nil {
			match = fmt.Sprintf("%d", *r.ScoreCard.MatchScore)
		}
		job := r.JobTitle
		if job == "" {
			job = "ATS only"
		}
		lines[i] = fmt.Sprintf("%s  %s  ATS %d  match %s  %s", formatTime(r.CreatedAt), r.ID, r.ScoreCard.ATSScore, match, job)
	}
	f.style.list(&out, lines)
	return out.String(), nil
}

func (f *HistoryFormatter) SupportedType() string { return TypeHistory }

// JobFormatter renders a saved job posting
type JobFormatter struct{ style *style }

func (f *JobFormatter) Format(data any) (string, error) {
	job, ok := data.(store.SavedJob)
	if !ok {
		return "", fmt.Errorf("expected SavedJob, got %T", data)
	}
	var out strings.Builder
	out.WriteString(f.style.title(job.Title))
	out.WriteString("\n")
	fmt.Fprintf(&out, "ID: %s\n", job.ID)
	if job.Company != "" {
		fmt.Fprintf(&out, "Company: %s\n", job.Company)
	}
	if job.ExperienceLevel != "" {
		fmt.Fprintf(&out, "Level: %s\n", job.ExperienceLevel)
	}
	fmt.Fprintf(&out, "Created: %s\n\n", formatTime(job.CreatedAt))
	out.WriteString(f.style.heading("Description"))
	out.WriteString(job.Description + "\n")
	if job.Requirements != "" {
		out.WriteString("\n")
		out.WriteString(f.style.heading("Requirements"))
		out.WriteString(job.Requirements + "\n")
	}
	return out.String(), nil
}

func (f *JobFormatter) SupportedType() string { return TypeSavedJob }

// JobListFormatter renders saved jobs one per line
type JobListFormatter struct{ style *style }

func (f *JobListFormatter) Format(data any) (string, error) {
	jobs, ok := data.([]store.SavedJob)
	if !ok {
		return "", fmt.Errorf("expected []SavedJob, got %T", data)
	}
	var out strings.Builder
	out.WriteString(f.style.title("Saved Jobs"))
	out.WriteString("\n")
	lines := make([]string, len(jobs))
	for i, j := range jobs {
		line := j.ID + "  " + j.Title
		if j.Company != "" {
			line += " (" + j.Company + ")"
		}
		lines[i] = line
	}
	f.style.list(&out, lines)
	return out.String(), nil
}

func (f *JobListFormatter) SupportedType() string { return TypeJobList }
