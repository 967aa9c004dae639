package analysis

import "testing"

func countIssues(issues []DetectedIssue, category IssueCategory) int {
	n := 0
	for _, issue := range issues {
		if issue.Category == category {
			n++
		}
	}
	return n
}

func TestDetectGrammarScenario(t *testing.T) {
	issues := DetectGrammar("I will recieve the the award")

	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d: %+v", len(issues), issues)
	}

	spelling := issues[0]
	if spelling.Category != CategorySpelling || spelling.Severity != SeverityHigh {
		t.Errorf("Expected a high spelling issue first, got %+v", spelling)
	}
	if spelling.SuggestedFix != "Replace 'recieve' with 'receive'" {
		t.Errorf("Unexpected fix: %s", spelling.SuggestedFix)
	}

	repeated := issues[1]
	if repeated.Category != CategoryGrammar || repeated.Severity != SeverityMedium {
		t.Errorf("Expected a medium grammar issue second, got %+v", repeated)
	}
	if repeated.Description != "Repeated word: 'the'" {
		t.Errorf("Unexpected description: %s", repeated.Description)
	}
}

func TestDetectGrammarEmpty(t *testing.T) {
	issues := DetectGrammar("")
	if issues == nil || len(issues) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", issues)
	}
}

func TestDetectGrammarSpelling(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Recieved two awards", 1},
		{"(acheive), seperate!", 2},
		{"receive achieve separate", 0},
		{"recieve recieve", 2},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := countIssues(DetectGrammar(tt.text), CategorySpelling); got != tt.want {
				t.Errorf("Expected %d spelling issues, got %d", tt.want, got)
			}
		})
	}
}

func TestDetectGrammarRepeatedWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"the the", 1},
		{"The the end", 1},
		{"the the the", 1},
		{"the the the the", 2},
		{"the theory", 0},
		{"Go, go", 0},
		{"led team team.", 1},
		{"one two one two", 0},
		{"the the-the the", 2},
		{"go go-go", 1},
		{"a-the the-x", 1},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := countIssues(DetectGrammar(tt.text), CategoryGrammar); got != tt.want {
				t.Errorf("Expected %d repeated word issues, got %d", tt.want, got)
			}
		})
	}
}

func TestDetectGrammarPassiveVoice(t *testing.T) {
	issues := DetectGrammar("I was tasked with migrations and was responsible for billing")

	if got := countIssues(issues, CategoryStyle); got != 1 {
		t.Fatalf("Expected exactly one style issue, got %d", got)
	}
	last := issues[len(issues)-1]
	if last.Category != CategoryStyle {
		t.Errorf("Expected the style issue last, got %+v", last)
	}
	if last.Description != "Passive voice detected: 'was responsible for'" {
		t.Errorf("Expected the first listed phrase to win, got %s", last.Description)
	}
}

func TestDetectFormatting(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"mixed dates", "Worked 01/2020 to 01-2020", []string{"Inconsistent date formats (both '/' and '-' separators used)"}},
		{"consistent dates", "01/2020 - 03/2021", nil},
		{"mixed bullets", "- one\n• two", []string{"Inconsistent bullet point styles"}},
		{"blank lines", "a\n\n\nb", []string{"Excessive blank lines"}},
		{
			"all rules in order",
			"01/2020 01-2021\n- a\n* b\n\n\nend",
			[]string{
				"Inconsistent date formats (both '/' and '-' separators used)",
				"Inconsistent bullet point styles",
				"Excessive blank lines",
			},
		},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := DetectFormatting(tt.text)
			if issues == nil {
				t.Fatal("Expected a non-nil slice")
			}
			if len(issues) != len(tt.want) {
				t.Fatalf("Expected %d issues, got %d: %+v", len(tt.want), len(issues), issues)
			}
			for i, issue := range issues {
				if issue.Category != CategoryFormatting {
					t.Errorf("Expected formatting category, got %s", issue.Category)
				}
				if issue.Description != tt.want[i] {
					t.Errorf("Expected %q at %d, got %q", tt.want[i], i, issue.Description)
				}
			}
		})
	}
}

func TestDetectFormattingDateIssueOnce(t *testing.T) {
	issues := DetectFormatting("01/2020 01-2020 02/2021 02-2021")
	if len(issues) != 1 {
		t.Fatalf("Expected the date issue exactly once, got %d", len(issues))
	}
	if issues[0].Severity != SeverityMedium {
		t.Errorf("Expected medium severity, got %s", issues[0].Severity)
	}
}
