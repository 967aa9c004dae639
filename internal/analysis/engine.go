package analysis

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"resumefit/internal/errors"
)

// DefaultAugmenterTimeout bounds each narrative augmenter call.
const DefaultAugmenterTimeout = 20 * time.Second

// AugmentObserver is notified once per augmenter call site.
type AugmentObserver func(kind NarrativeKind, ok bool, reason FailureReason, elapsed time.Duration)

type engineOptions struct {
	dict      *Dictionary
	weights   Weights
	augmenter Augmenter
	timeout   time.Duration
	logger    *errors.Logger
	observer  AugmentObserver
}

// Option configures an Engine.
type Option func(*engineOptions)

// WithDictionary replaces the default vocabulary.
func WithDictionary(d *Dictionary) Option {
	return func(o *engineOptions) {
		if d != nil {
			o.dict = d
		}
	}
}

// WithWeights replaces the default score weights.
func WithWeights(w Weights) Option {
	return func(o *engineOptions) { o.weights = w }
}

// WithAugmenter enables remote narrative generation.
func WithAugmenter(a Augmenter) Option {
	return func(o *engineOptions) { o.augmenter = a }
}

// WithAugmenterTimeout sets the per-call augmenter deadline.
func WithAugmenterTimeout(d time.Duration) Option {
	return func(o *engineOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger used to report augmenter fallbacks.
func WithLogger(l *errors.Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAugmentObserver registers a callback for augmenter outcomes.
func WithAugmentObserver(fn AugmentObserver) Option {
	return func(o *engineOptions) { o.observer = fn }
}

// Engine runs the rule-based pipeline and optionally the narrative augmenter.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	dict      *Dictionary
	extractor *Extractor
	scorer    *Scorer
	composer  *Composer
	augmenter Augmenter
	timeout   time.Duration
	logger    *errors.Logger
	observer  AugmentObserver
}

// NewEngine builds an engine. It fails only for invalid weights.
func NewEngine(opts ...Option) (*Engine, error) {
	o := engineOptions{
		dict:    DefaultDictionary(),
		weights: DefaultWeights(),
		timeout: DefaultAugmenterTimeout,
		logger:  errors.NewLoggerWithWriter(slog.LevelError, io.Discard),
	}
	for _, opt := range opts {
		opt(&o)
	}

	scorer, err := NewScorer(o.weights)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid analysis weights", err)
	}

	if _, noop := o.augmenter.(NoopAugmenter); noop {
		o.augmenter = nil
	}

	return &Engine{
		dict:      o.dict,
		extractor: NewExtractor(o.dict),
		scorer:    scorer,
		composer:  NewComposer(o.weights),
		augmenter: o.augmenter,
		timeout:   o.timeout,
		logger:    o.logger,
		observer:  o.observer,
	}, nil
}

// Dictionary returns the vocabulary the engine extracts with.
func (e *Engine) Dictionary() *Dictionary {
	return e.dict
}

// Augmented reports whether a narrative augmenter is configured.
func (e *Engine) Augmented() bool {
	return e.augmenter != nil
}

// AnalyzeResume scores a resume without job context. It accepts any text, including "".
func (e *Engine) AnalyzeResume(ctx context.Context, resumeText string) (ScoreCard, error) {
	return e.analyze(ctx, resumeText, nil), nil
}

// AnalyzeResumeForJob scores a resume against a job posting.
func (e *Engine) AnalyzeResumeForJob(ctx context.Context, job JobContext, resumeText string) (ScoreCard, error) {
	if strings.TrimSpace(resumeText) == "" {
		return ScoreCard{}, errors.NewValidationError(errors.ErrCodeInvalidInput, "resume text is required", nil)
	}
	return e.analyze(ctx, resumeText, &job), nil
}

// detection holds the detector outputs; each field is written by exactly one goroutine.
type detection struct {
	keywords     KeywordSet
	literalCount int
	jobTotal   int
	matched    KeywordSet
	missing    KeywordSet
	features   StructuralFeatures
	grammar    []DetectedIssue
	formatting []DetectedIssue
}

func (e *Engine) detect(resumeText, jobText string, withJob bool) detection {
	var d detection
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		literal := e.extractor.ExtractLiteral(resumeText)
		d.literalCount = literal.Len()
		d.keywords = literal
		d.matched, d.missing = NewKeywordSet(), NewKeywordSet()
		if withJob {
			jobKeywords := e.extractor.ExtractJob(jobText)
			d.jobTotal = jobKeywords.Len()
			// matched and missing partition the job keywords against d.keywords
			d.keywords, d.matched, d.missing = e.extractor.Match(resumeText, jobKeywords)
		}
	}()
	go func() {
		defer wg.Done()
		d.features = DetectStructure(resumeText)
	}()
	go func() {
		defer wg.Done()
		d.grammar = DetectGrammar(resumeText)
	}()
	go func() {
		defer wg.Done()
		d.formatting = DetectFormatting(resumeText)
	}()

	wg.Wait()
	return d
}

func (e *Engine) analyze(ctx context.Context, resumeText string, job *JobContext) ScoreCard {
	var jobText string
	if job != nil {
		jobText = job.Text()
	}
	d := e.detect(resumeText, jobText, job != nil)

	f := findings{
		text:       resumeText,
		lower:      strings.ToLower(resumeText),
		features:   d.features,
		keywords:   d.keywords,
		matched:    d.matched,
		missing:    d.missing,
		jobTotal:   d.jobTotal,
		hasJob:     job != nil,
		grammar:    d.grammar,
		formatting: d.formatting,
	}
	f.atsScore = e.scorer.ATSScore(d.features, d.literalCount)
	if job != nil {
		score := e.scorer.MatchScore(d.matched.Len(), d.jobTotal, d.literalCount)
		f.matchScore = &score
	}

	suggestions := e.composer.Suggestions(f)
	strengths, weaknesses := e.composer.StrengthsWeaknesses(f)

	card := ScoreCard{
		ATSScore:         f.atsScore,
		MatchScore:       f.matchScore,
		Keywords:         d.keywords,
		MatchedKeywords:  d.matched,
		MissingKeywords:  d.missing,
		Features:         d.features,
		GrammarIssues:    d.grammar,
		FormattingIssues: d.formatting,
		Suggestions:      suggestions,
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		OverallFeedback:  e.composer.OverallFeedback(f),
		ImprovementNotes: e.composer.ImprovementNotes(f, suggestions),
		NarrativeSource:  SourceRules,
	}

	if e.augmenter != nil {
		e.augment(ctx, &card, resumeText, jobText)
	}
	return card
}

// narrativeFields counts the ScoreCard fields an augmenter may replace.
const narrativeFields = 5

// augment runs the augmenter call sites concurrently and keeps each rule-based
// value whose remote counterpart failed or did not validate.
func (e *Engine) augment(ctx context.Context, card *ScoreCard, resumeText, jobText string) {
	base := NarrativeRequest{
		ResumeText:      resumeText,
		JobText:         jobText,
		ATSScore:        card.ATSScore,
		MatchScore:      card.MatchScore,
		MatchedKeywords: card.MatchedKeywords.Sorted(),
		MissingKeywords: card.MissingKeywords.Sorted(),
	}

	var (
		feedback Outcome[string]
		notes    Outcome[string]
		insights Outcome[Insights]
		wg       sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		feedback = e.callGenerate(ctx, base, KindOverallFeedback)
	}()
	go func() {
		defer wg.Done()
		notes = e.callGenerate(ctx, base, KindImprovedVersion)
	}()
	go func() {
		defer wg.Done()
		req := base
		req.Kind = KindInsights
		insights = observe(e, KindInsights, func() Outcome[Insights] {
			return invoke(ctx, e.timeout, func(ctx context.Context) (Insights, error) {
				return e.augmenter.Insights(ctx, req)
			})
		})
	}()
	wg.Wait()

	replaced := 0
	if feedback.OK() {
		card.OverallFeedback = feedback.Value()
		replaced++
	}
	if notes.OK() {
		card.ImprovementNotes = notes.Value()
		replaced++
	}
	if insights.OK() {
		m := mergeInsights(insights.Value(), card.Strengths, card.Weaknesses, card.Suggestions)
		card.Strengths, card.Weaknesses, card.Suggestions = m.strengths, m.weaknesses, m.suggestions
		replaced += m.replaced
		if m.replaced < 3 {
			e.logger.Warn("narrative insights partially rejected, using rule-based values for invalid fields",
				"augmenter", e.augmenter.Name(),
				"accepted_fields", m.replaced)
		}
	}

	switch replaced {
	case 0:
		card.NarrativeSource = SourceRules
	case narrativeFields:
		card.NarrativeSource = SourceAugmented
	default:
		card.NarrativeSource = SourceMixed
	}
}

func (e *Engine) callGenerate(ctx context.Context, base NarrativeRequest, kind NarrativeKind) Outcome[string] {
	req := base
	req.Kind = kind
	return observe(e, kind, func() Outcome[string] {
		return invoke(ctx, e.timeout, func(ctx context.Context) (string, error) {
			text, err := e.augmenter.Generate(ctx, req)
			if err != nil {
				return "", err
			}
			return validateNarrative(text)
		})
	})
}

// observe times a call site, logs a failed outcome and notifies the observer.
func observe[T any](e *Engine, kind NarrativeKind, call func() Outcome[T]) Outcome[T] {
	start := time.Now()
	out := call()
	elapsed := time.Since(start)

	if !out.OK() && !stderrors.Is(out.Err(), ErrAugmenterDisabled) {
		e.logger.LogError(out.Err(), "narrative augmenter failed, using rule-based text",
			"augmenter", e.augmenter.Name(),
			"kind", string(kind),
			"reason", string(out.Reason()),
			"elapsed_ms", elapsed.Milliseconds())
	}
	if e.observer != nil {
		e.observer(kind, out.OK(), out.Reason(), elapsed)
	}
	return out
}
