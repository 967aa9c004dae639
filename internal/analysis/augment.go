package analysis

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"resumefit/internal/errors"
)

// NarrativeKind selects which composer output an augmenter may replace.
type NarrativeKind string

const (
	KindOverallFeedback NarrativeKind = "overall_feedback"
	KindImprovedVersion NarrativeKind = "improved_version"
	KindInsights        NarrativeKind = "insights"
)

// NarrativeRequest carries the inputs and the rule-based scores to a remote generator.
type NarrativeRequest struct {
	Kind            NarrativeKind
	ResumeText      string
	JobText         string
	ATSScore        int
	MatchScore      *int
	MatchedKeywords []string
	MissingKeywords []string
}

// Insights is the structured output a remote generator may return.
type Insights struct {
	Strengths   []string     `json:"strengths"`
	Weaknesses  []string     `json:"weaknesses"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Augmenter replaces rule-based prose with remotely generated text.
// Implementations report failures as AppErrors carrying one of
// ErrCodeRemoteUnavailable, ErrCodeRemoteTimeout or ErrCodeInvalidResponse.
type Augmenter interface {
	Generate(ctx context.Context, req NarrativeRequest) (string, error)
	Insights(ctx context.Context, req NarrativeRequest) (Insights, error)
	Name() string
}

// ErrAugmenterDisabled is returned by NoopAugmenter. The engine skips it silently.
var ErrAugmenterDisabled = errors.NewAIError(errors.ErrCodeRemoteUnavailable, "narrative augmenter disabled", nil)

// NoopAugmenter satisfies Augmenter and never produces text.
type NoopAugmenter struct{}

func (NoopAugmenter) Generate(context.Context, NarrativeRequest) (string, error) {
	return "", ErrAugmenterDisabled
}

func (NoopAugmenter) Insights(context.Context, NarrativeRequest) (Insights, error) {
	return Insights{}, ErrAugmenterDisabled
}

func (NoopAugmenter) Name() string { return "none" }

// FailureReason tags why an augmenter call did not produce a usable value.
type FailureReason string

const (
	ReasonRemoteUnavailable FailureReason = "remote_unavailable"
	ReasonTimeout           FailureReason = "timeout"
	ReasonInvalidResponse   FailureReason = "invalid_response"
)

// Outcome is the tagged result of a best-effort call: either a value or a failure reason.
type Outcome[T any] struct {
	value  T
	ok     bool
	reason FailureReason
	err    error
}

// Succeeded wraps a usable value.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

// Failed records why no value is available.
func Failed[T any](reason FailureReason, err error) Outcome[T] {
	return Outcome[T]{reason: reason, err: err}
}

func (o Outcome[T]) OK() bool              { return o.ok }
func (o Outcome[T]) Value() T              { return o.value }
func (o Outcome[T]) Reason() FailureReason { return o.reason }
func (o Outcome[T]) Err() error            { return o.err }

// Or returns the value on success and fallback otherwise.
func (o Outcome[T]) Or(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// ClassifyFailure maps an augmenter error onto a failure reason.
func ClassifyFailure(err error) FailureReason {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded), errors.HasCode(err, errors.ErrCodeRemoteTimeout):
		return ReasonTimeout
	case errors.HasCode(err, errors.ErrCodeInvalidResponse):
		return ReasonInvalidResponse
	default:
		return ReasonRemoteUnavailable
	}
}

// invoke runs fn under timeout and returns as soon as either fn finishes or the
// deadline passes, even if fn ignores its context.
func invoke[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) Outcome[T] {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Failed[T](ClassifyFailure(r.err), r.err)
		}
		return Succeeded(r.v)
	case <-callCtx.Done():
		err := errors.NewAIError(errors.ErrCodeRemoteTimeout, "narrative augmenter did not answer in time", callCtx.Err())
		return Failed[T](ReasonTimeout, err)
	}
}

// validateNarrative rejects empty generated text.
func validateNarrative(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.NewAIError(errors.ErrCodeInvalidResponse, "generated narrative is empty", nil)
	}
	return text, nil
}

// cleanStrings trims entries and drops blanks and duplicates.
func cleanStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// cleanSuggestions keeps suggestions with text and a known priority.
func cleanSuggestions(items []Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(items))
	for _, s := range items {
		s.Text = strings.TrimSpace(s.Text)
		s.Priority = Severity(strings.ToLower(strings.TrimSpace(string(s.Priority))))
		if s.Text == "" || !s.Priority.Valid() {
			continue
		}
		s.Category = strings.TrimSpace(s.Category)
		if s.Category == "" {
			s.Category = "General"
		}
		s.EstimatedImpact = strings.TrimSpace(s.EstimatedImpact)
		out = append(out, s)
	}
	return out
}

// mergedInsights is the field-by-field combination of remote and rule-based insights.
type mergedInsights struct {
	strengths   []string
	weaknesses  []string
	suggestions []Suggestion
	replaced    int
}

// mergeInsights trusts each remote field only if it survives validation.
func mergeInsights(remote Insights, strengths, weaknesses []string, suggestions []Suggestion) mergedInsights {
	m := mergedInsights{strengths: strengths, weaknesses: weaknesses, suggestions: suggestions}
	if s := cleanStrings(remote.Strengths); len(s) > 0 {
		m.strengths = s
		m.replaced++
	}
	if w := cleanStrings(remote.Weaknesses); len(w) > 0 {
		m.weaknesses = w
		m.replaced++
	}
	if sg := cleanSuggestions(remote.Suggestions); len(sg) > 0 {
		m.suggestions = sg
		m.replaced++
	}
	return m
}
