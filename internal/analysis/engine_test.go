package analysis

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"resumefit/internal/errors"
)

const scenarioResume = "Experienced Java developer. Email: a@b.com. Phone: 555-123-4567. Skills: Java, Docker. Education: BS Computer Science."

var scenarioJob = JobContext{Description: "Need Java, Docker, Kubernetes engineer, bachelor's degree required."}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(opts...)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

type fakeAugmenter struct {
	mu       sync.Mutex
	calls    []NarrativeKind
	generate func(NarrativeRequest) (string, error)
	insights func(NarrativeRequest) (Insights, error)
}

func (f *fakeAugmenter) record(kind NarrativeKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
}

func (f *fakeAugmenter) Generate(_ context.Context, req NarrativeRequest) (string, error) {
	f.record(req.Kind)
	return f.generate(req)
}

func (f *fakeAugmenter) Insights(_ context.Context, req NarrativeRequest) (Insights, error) {
	f.record(req.Kind)
	return f.insights(req)
}

func (f *fakeAugmenter) Name() string { return "fake" }

func TestAnalyzeResumeForJobScenario(t *testing.T) {
	e := newTestEngine(t)

	card, err := e.AnalyzeResumeForJob(context.Background(), scenarioJob, scenarioResume)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, k := range []string{"java", "docker", "bachelor"} {
		if !card.MatchedKeywords.Contains(k) {
			t.Errorf("Expected %q to be matched, got %v", k, card.MatchedKeywords.Sorted())
		}
	}
	if !card.MissingKeywords.Contains("kubernetes") {
		t.Errorf("Expected kubernetes to be missing, got %v", card.MissingKeywords.Sorted())
	}
	if !card.Features.HasEmail || !card.Features.HasPhone || !card.Features.HasEducationSection {
		t.Errorf("Unexpected features: %+v", card.Features)
	}
	if card.MatchScore == nil {
		t.Fatal("Expected a match score")
	}
	if *card.MatchScore != 80 {
		t.Errorf("Expected match score 80, got %d", *card.MatchScore)
	}
	if card.ATSScore != 53 {
		t.Errorf("Expected ATS score 53, got %d", card.ATSScore)
	}
	if card.NarrativeSource != SourceRules {
		t.Errorf("Expected rules narrative, got %s", card.NarrativeSource)
	}
}

func TestAnalyzeResumeForJobKeywordsCoverMatch(t *testing.T) {
	e := newTestEngine(t)
	job := JobContext{Description: "5+ years of Java"}
	resume := "Java developer with 7 years experience"

	card, err := e.AnalyzeResumeForJob(context.Background(), job, resume)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	jobKeywords := e.extractor.ExtractJob(job.Text())
	if !card.Keywords.Contains("5+ years") {
		t.Errorf("Expected the satisfied years phrase in keywords, got %v", card.Keywords.Sorted())
	}
	if !card.MissingKeywords.Equal(jobKeywords.Difference(card.Keywords)) {
		t.Errorf("Expected missing %v, got %v",
			jobKeywords.Difference(card.Keywords).Sorted(), card.MissingKeywords.Sorted())
	}
	if !card.MatchedKeywords.Intersect(card.Keywords).Equal(card.MatchedKeywords) {
		t.Errorf("Expected matched %v within keywords %v", card.MatchedKeywords.Sorted(), card.Keywords.Sorted())
	}

	ats, err := e.AnalyzeResume(context.Background(), resume)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ats.ATSScore != card.ATSScore {
		t.Errorf("Expected job independent ATS score %d, got %d", ats.ATSScore, card.ATSScore)
	}
}

func TestAnalyzeResumeIgnoresDegreeAliases(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	base, err := e.AnalyzeResume(ctx, scenarioResume)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	withAlias, err := e.AnalyzeResume(ctx, scenarioResume+" ba")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if withAlias.ATSScore != base.ATSScore {
		t.Errorf("Expected a degree alias to leave the ATS score at %d, got %d", base.ATSScore, withAlias.ATSScore)
	}
	for _, k := range []string{"bachelor", "degree"} {
		if withAlias.Keywords.Contains(k) {
			t.Errorf("Unexpected %q in %v", k, withAlias.Keywords.Sorted())
		}
	}

	literal, err := e.AnalyzeResume(ctx, scenarioResume+" Bachelor degree")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if literal.ATSScore <= base.ATSScore {
		t.Errorf("Expected literal degree terms to raise the ATS score above %d, got %d", base.ATSScore, literal.ATSScore)
	}
}

func TestAnalyzeResumeEmpty(t *testing.T) {
	e := newTestEngine(t)

	card, err := e.AnalyzeResume(context.Background(), "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if card.ATSScore < MinScore || card.ATSScore > MaxScore {
		t.Errorf("ATS score out of range: %d", card.ATSScore)
	}
	if card.GrammarIssues == nil || len(card.GrammarIssues) != 0 {
		t.Errorf("Expected empty grammar issues, got %#v", card.GrammarIssues)
	}
	if card.FormattingIssues == nil || len(card.FormattingIssues) != 0 {
		t.Errorf("Expected empty formatting issues, got %#v", card.FormattingIssues)
	}
	if card.MatchScore != nil {
		t.Errorf("Expected no match score, got %d", *card.MatchScore)
	}
}

func TestAnalyzeResumeForJobRequiresText(t *testing.T) {
	e := newTestEngine(t)

	for _, text := range []string{"", "   \n\t"} {
		_, err := e.AnalyzeResumeForJob(context.Background(), scenarioJob, text)
		if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Expected INVALID_INPUT for %q, got %v", text, err)
		}
		if !errors.IsType(err, errors.ErrorTypeValidation) {
			t.Errorf("Expected validation error type for %q", text)
		}
	}
}

func TestAnalyzeResumeForJobWithoutJobKeywords(t *testing.T) {
	e := newTestEngine(t)

	card, err := e.AnalyzeResumeForJob(context.Background(), JobContext{Title: "Office manager"}, scenarioResume)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if card.MatchScore == nil || *card.MatchScore != DefaultWeights().NeutralMatchScore {
		t.Errorf("Expected neutral match score, got %v", card.MatchScore)
	}
	if card.MissingKeywords.Len() != 0 {
		t.Errorf("Expected no missing keywords, got %v", card.MissingKeywords.Sorted())
	}
}

func TestAnalyzeResumeIdempotent(t *testing.T) {
	e := newTestEngine(t)
	text := scenarioResume + "\n- Led 5 engineers\n• Cut costs 20%\n\n\nI was responsible for the the build"

	first, _ := e.AnalyzeResume(context.Background(), text)
	second, _ := e.AnalyzeResume(context.Background(), text)
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical score cards for identical input")
	}

	firstJob, _ := e.AnalyzeResumeForJob(context.Background(), scenarioJob, text)
	secondJob, _ := e.AnalyzeResumeForJob(context.Background(), scenarioJob, text)
	if !reflect.DeepEqual(firstJob, secondJob) {
		t.Error("Expected identical match score cards for identical input")
	}
}

func TestAnalyzeResumeScoreRange(t *testing.T) {
	e := newTestEngine(t)
	texts := []string{
		"",
		"a",
		strings.Repeat("java python docker kubernetes aws sql react ", 200),
		"@@@ +++ ### 1234567890123456789",
		scenarioResume,
	}
	for _, text := range texts {
		card, _ := e.AnalyzeResume(context.Background(), text)
		if card.ATSScore < MinScore || card.ATSScore > MaxScore {
			t.Errorf("ATS score %d out of range", card.ATSScore)
		}
	}
}

func TestAnalyzeResumeMonotoneInKeywords(t *testing.T) {
	e := newTestEngine(t)
	base := "Experienced developer. Email: a@b.com. Skills: teamwork. Education: college."

	baseCard, _ := e.AnalyzeResume(context.Background(), base)
	for _, term := range DefaultDictionary().Terms() {
		card, _ := e.AnalyzeResume(context.Background(), base+" "+term)
		if card.ATSScore < baseCard.ATSScore {
			t.Errorf("Adding %q lowered the ATS score from %d to %d", term, baseCard.ATSScore, card.ATSScore)
		}
	}
}

func TestEngineAugmenterFallbackIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := errors.NewLoggerWithWriter(slog.LevelInfo, &logs)

	fake := &fakeAugmenter{
		generate: func(NarrativeRequest) (string, error) {
			return "", errors.NewAIError(errors.ErrCodeRemoteUnavailable, "service down", nil)
		},
		insights: func(NarrativeRequest) (Insights, error) {
			return Insights{}, errors.NewAIError(errors.ErrCodeInvalidResponse, "bad json", nil)
		},
	}

	var mu sync.Mutex
	reasons := map[NarrativeKind]FailureReason{}
	observer := func(kind NarrativeKind, ok bool, reason FailureReason, _ time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		reasons[kind] = reason
	}

	rules := newTestEngine(t)
	augmented := newTestEngine(t, WithAugmenter(fake), WithLogger(logger), WithAugmentObserver(observer))

	want, _ := rules.AnalyzeResumeForJob(context.Background(), scenarioJob, scenarioResume)
	got, err := augmented.AnalyzeResumeForJob(context.Background(), scenarioJob, scenarioResume)
	if err != nil {
		t.Fatalf("Expected augmenter failure to be recovered, got %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Error("Expected the rule-based card when every augmenter call fails")
	}
	if len(fake.calls) != 3 {
		t.Errorf("Expected 3 augmenter calls, got %d", len(fake.calls))
	}
	if !strings.Contains(logs.String(), "narrative augmenter failed") {
		t.Errorf("Expected fallback to be logged, got %s", logs.String())
	}
	if reasons[KindInsights] != ReasonInvalidResponse || reasons[KindOverallFeedback] != ReasonRemoteUnavailable {
		t.Errorf("Unexpected observed reasons: %v", reasons)
	}
}

func TestEngineAugmenterPartialSuccess(t *testing.T) {
	fake := &fakeAugmenter{
		generate: func(req NarrativeRequest) (string, error) {
			if req.Kind == KindOverallFeedback {
				return "  Remote feedback.  ", nil
			}
			return "   ", nil
		},
		insights: func(NarrativeRequest) (Insights, error) {
			return Insights{
				Strengths:   []string{"Remote strength"},
				Suggestions: []Suggestion{{Priority: "critical", Text: "ignored"}},
			}, nil
		},
	}

	rules := newTestEngine(t)
	e := newTestEngine(t, WithAugmenter(fake))

	want, _ := rules.AnalyzeResume(context.Background(), scenarioResume)
	got, _ := e.AnalyzeResume(context.Background(), scenarioResume)

	if got.OverallFeedback != "Remote feedback." {
		t.Errorf("Expected trimmed remote feedback, got %q", got.OverallFeedback)
	}
	if got.ImprovementNotes != want.ImprovementNotes {
		t.Error("Expected rule-based improvement notes when remote text is blank")
	}
	if len(got.Strengths) != 1 || got.Strengths[0] != "Remote strength" {
		t.Errorf("Expected remote strengths, got %v", got.Strengths)
	}
	if !reflect.DeepEqual(got.Weaknesses, want.Weaknesses) || !reflect.DeepEqual(got.Suggestions, want.Suggestions) {
		t.Error("Expected rule-based weaknesses and suggestions to be kept")
	}
	if got.ATSScore != want.ATSScore {
		t.Error("Expected scores to stay rule-based")
	}
	if got.NarrativeSource != SourceMixed {
		t.Errorf("Expected mixed narrative source, got %s", got.NarrativeSource)
	}
}

func TestEngineAugmenterTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	fake := &fakeAugmenter{
		generate: func(NarrativeRequest) (string, error) {
			<-release
			return "late", nil
		},
		insights: func(NarrativeRequest) (Insights, error) {
			<-release
			return Insights{Strengths: []string{"late"}}, nil
		},
	}

	e := newTestEngine(t, WithAugmenter(fake), WithAugmenterTimeout(30*time.Millisecond))

	start := time.Now()
	card, err := e.AnalyzeResume(context.Background(), scenarioResume)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected the timeout to bound the call, took %v", elapsed)
	}
	if card.NarrativeSource != SourceRules {
		t.Errorf("Expected rule-based narrative after timeout, got %s", card.NarrativeSource)
	}
}

func TestEngineNoopAugmenterDisabled(t *testing.T) {
	e := newTestEngine(t, WithAugmenter(NoopAugmenter{}))
	if e.Augmented() {
		t.Error("Expected the no-op augmenter to disable augmentation")
	}
}

func TestNewEngineRejectsInvalidWeights(t *testing.T) {
	w := DefaultWeights()
	w.PerKeyword = -4

	_, err := NewEngine(WithWeights(w))
	if !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Expected INVALID_CONFIG, got %v", err)
	}
}

func TestNewEngineCustomDictionary(t *testing.T) {
	e := newTestEngine(t, WithDictionary(NewDictionary(WithTerms("terraform"))))

	card, _ := e.AnalyzeResume(context.Background(), "Terraform modules")
	if !card.Keywords.Contains("terraform") {
		t.Errorf("Expected custom term to be extracted, got %v", card.Keywords.Sorted())
	}
}
