package analysis

import (
	"slices"
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func suggestionCategories(s []Suggestion) []string {
	out := make([]string, 0, len(s))
	for _, sg := range s {
		out = append(out, sg.Category)
	}
	return out
}

func TestOverallFeedback(t *testing.T) {
	c := NewComposer(DefaultWeights())

	f := findings{
		keywords:   NewKeywordSet("java", "docker", "aws"),
		matched:    NewKeywordSet("java", "docker"),
		missing:    NewKeywordSet("kubernetes"),
		jobTotal:   3,
		hasJob:     true,
		atsScore:   85,
		matchScore: intPtr(67),
		grammar:    []DetectedIssue{{Category: CategorySpelling}},
		formatting: []DetectedIssue{},
	}

	got := c.OverallFeedback(f)
	lines := strings.Split(got, "\n")

	want := []string{
		"Excellent! Your resume is well-optimized for ATS systems.",
		"Good match. Your resume covers most of what this job asks for.",
		"Found 3 relevant keywords in your resume.",
		"Matched 2 of 3 job keywords.",
		"Missing keywords: kubernetes.",
		"Detected 1 grammar/spelling issues and 0 formatting issues.",
		"Recommendations:",
		"1. Add more quantifiable achievements",
		"2. Include relevant technical skills",
		"3. Tailor experience to job requirements",
	}
	if !slices.Equal(lines, want) {
		t.Errorf("Unexpected feedback:\n%s", got)
	}
}

func TestOverallFeedbackBands(t *testing.T) {
	c := NewComposer(DefaultWeights())

	tests := []struct {
		score int
		want  string
	}{
		{100, "Excellent!"},
		{80, "Excellent!"},
		{79, "Good job!"},
		{60, "Good job!"},
		{59, "Your resume needs work"},
		{0, "Your resume needs work"},
	}

	for _, tt := range tests {
		got := c.OverallFeedback(findings{atsScore: tt.score})
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("Score %d: expected prefix %q, got %q", tt.score, tt.want, got)
		}
		if strings.Contains(got, "Matched") {
			t.Errorf("Score %d: expected no match lines without a job", tt.score)
		}
	}
}

func TestSuggestions(t *testing.T) {
	c := NewComposer(DefaultWeights())

	tests := []struct {
		name string
		f    findings
		want []string
	}{
		{
			name: "weak phrase without numbers",
			f:    newFindings("Responsible for a project at Acme", nil, NewKeywordSet()),
			want: []string{"Impact", "Language"},
		},
		{
			name: "low match with missing keywords",
			f: func() findings {
				f := newFindings("Improved revenue 20% on apps", intPtr(40), NewKeywordSet("go", "sql", "aws"))
				return f
			}(),
			want: []string{"Keywords", "Relevance", "Content"},
		},
		{
			name: "too many missing keywords skips keyword rule",
			f: newFindings("Saved $10,000 on a project", intPtr(90),
				NewKeywordSet("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k")),
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestionCategories(c.Suggestions(tt.f))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func newFindings(text string, matchScore *int, missing KeywordSet) findings {
	return findings{
		text:       text,
		lower:      strings.ToLower(text),
		features:   DetectStructure(text),
		keywords:   NewKeywordSet(),
		matched:    NewKeywordSet(),
		missing:    missing,
		hasJob:     matchScore != nil,
		matchScore: matchScore,
	}
}

func TestStrengthsWeaknessesDisjoint(t *testing.T) {
	c := NewComposer(DefaultWeights())

	texts := []string{
		"",
		"Email: a@b.com Phone: 555-123-4567 https://github.com/me Skills Education Experience",
		"Grew sales 30%, cut costs $5,000, led 10+ engineers",
		strings.Repeat("word ", 1200),
	}

	for _, text := range texts {
		f := newFindings(text, intPtr(75), NewKeywordSet())
		f.grammar = DetectGrammar(text)
		f.formatting = DetectFormatting(text)

		strengths, weaknesses := c.StrengthsWeaknesses(f)
		if strengths == nil || weaknesses == nil {
			t.Fatal("Expected non-nil lists")
		}
		for _, s := range strengths {
			if slices.Contains(weaknesses, s) {
				t.Errorf("Entry %q appears in both lists", s)
			}
		}
	}
}

func TestStrengthsWeaknesses(t *testing.T) {
	c := NewComposer(DefaultWeights())

	text := "Email: a@b.com Phone: 555-123-4567 https://github.com/me. Grew sales 30%, cut costs $5,000, led 10+ engineers."
	f := newFindings(text, intPtr(75), NewKeywordSet())
	f.grammar = []DetectedIssue{}

	strengths, weaknesses := c.StrengthsWeaknesses(f)

	for _, want := range []string{
		"Complete contact information",
		"Online presence (LinkedIn, GitHub or portfolio) included",
		"Quantified achievements demonstrate impact",
		"No grammar or spelling issues detected",
		"Strong alignment with the job requirements",
	} {
		if !slices.Contains(strengths, want) {
			t.Errorf("Expected strength %q, got %v", want, strengths)
		}
	}
	for _, want := range []string{"Few technical keywords detected", "Resume seems too short"} {
		if !slices.Contains(weaknesses, want) {
			t.Errorf("Expected weakness %q, got %v", want, weaknesses)
		}
	}
}

func TestStrengthsWeaknessesLongResume(t *testing.T) {
	c := NewComposer(DefaultWeights())
	f := newFindings(strings.Repeat("word ", 1001), nil, NewKeywordSet())

	_, weaknesses := c.StrengthsWeaknesses(f)
	if !slices.Contains(weaknesses, "Resume might be too long") {
		t.Errorf("Expected a length weakness, got %v", weaknesses)
	}
}

func TestImprovementNotes(t *testing.T) {
	c := NewComposer(DefaultWeights())

	if got := c.ImprovementNotes(findings{}, nil); got != "Add more specific achievements and quantify your impact." {
		t.Errorf("Unexpected fallback notes: %q", got)
	}

	suggestions := []Suggestion{
		{Priority: SeverityHigh, Text: "Quantify results"},
		{Priority: SeverityLow, Text: "Add projects"},
	}
	want := "Suggested improvements:\n- [high] Quantify results\n- [low] Add projects"
	if got := c.ImprovementNotes(findings{}, suggestions); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
