package analysis

import "testing"

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultWeights())
	if err != nil {
		t.Fatalf("Failed to create scorer: %v", err)
	}
	return s
}

func TestATSScore(t *testing.T) {
	s := newTestScorer(t)

	full := StructuralFeatures{
		HasEmail: true, HasPhone: true, HasContactInfo: true,
		HasExperienceSection: true, HasEducationSection: true, HasSkillsSection: true,
	}

	tests := []struct {
		name     string
		features StructuralFeatures
		words    int
		keywords int
		want     int
	}{
		{"empty text clamps at zero", StructuralFeatures{}, 0, 0, 0},
		{"structure only, short", full, 50, 0, 45},
		{"structure only, mid length", full, 250, 0, 55},
		{"structure only, healthy length", full, 300, 0, 65},
		{"keywords capped", StructuralFeatures{}, 250, 20, 40},
		{"everything clamps at 100", full, 400, 10, 100},
		{"email only", StructuralFeatures{HasEmail: true, HasContactInfo: true}, 250, 2, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.features
			f.WordCount = tt.words
			if got := s.ATSScore(f, tt.keywords); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestATSScoreMonotoneInKeywords(t *testing.T) {
	s := newTestScorer(t)
	f := StructuralFeatures{HasEmail: true, HasContactInfo: true, WordCount: 320}

	prev := s.ATSScore(f, 0)
	for n := 1; n <= 30; n++ {
		got := s.ATSScore(f, n)
		if got < prev {
			t.Fatalf("Score dropped from %d to %d at %d keywords", prev, got, n)
		}
		prev = got
	}
}

func TestATSScoreMonotoneInWordCount(t *testing.T) {
	s := newTestScorer(t)
	prev := s.ATSScore(StructuralFeatures{}, 5)
	for words := 0; words <= 2000; words += 25 {
		got := s.ATSScore(StructuralFeatures{WordCount: words}, 5)
		if got < prev {
			t.Fatalf("Score dropped from %d to %d at %d words", prev, got, words)
		}
		prev = got
	}
}

func TestMatchScore(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name                    string
		matched, job, resumeKWs int
		want                    int
	}{
		{"no job keywords is neutral", 0, 0, 7, 65},
		{"nothing matched", 0, 4, 2, 0},
		{"partial", 3, 4, 4, 75},
		{"partial with breadth bonus", 3, 4, 6, 80},
		{"rounding", 1, 3, 1, 33},
		{"full clamps at 100", 4, 4, 9, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.MatchScore(tt.matched, tt.job, tt.resumeKWs); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Weights)
		wantErr bool
	}{
		{"defaults", func(*Weights) {}, false},
		{"negative weight", func(w *Weights) { w.Skills = -1 }, true},
		{"neutral above range", func(w *Weights) { w.NeutralMatchScore = 101 }, true},
		{"healthy below short threshold", func(w *Weights) { w.HealthyMinWords = 100 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(&w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if _, err := NewScorer(w); (err != nil) != tt.wantErr {
				t.Errorf("Expected NewScorer error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
