package observability

import (
	"context"
	"fmt"
	"time"

	"resumefit/internal/ai"
	"resumefit/internal/analysis"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Analysis kinds recorded on resumefit_analyses_total
const (
	KindATS   = "ats"
	KindMatch = "match"
)

// metricToggles mirrors the customMetrics configuration switches
type metricToggles struct {
	augmenter       bool
	augmentDuration bool
	tokenUsage      bool
	analysis        bool
	scores          bool
	cache           bool
	infrastructure  bool
	rateLimits      bool
}

func allMetrics() metricToggles {
	return metricToggles{true, true, true, true, true, true, true, true}
}

// Metrics holds the application instruments. Every method is a no-op on a zero Metrics.
type Metrics struct {
	toggles metricToggles

	Analyses          metric.Int64Counter
	ATSScore          metric.Int64Histogram
	MatchScore        metric.Int64Histogram
	AugmenterOutcomes metric.Int64Counter
	AugmenterDuration metric.Float64Histogram
	AugmenterTokens   metric.Int64Histogram
	CacheLookups      metric.Int64Counter
	RateLimitHits     metric.Int64Counter
	CertReloads       metric.Int64Counter
}

var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

func newMetrics(meter metric.Meter, toggles metricToggles) (*Metrics, error) {
	m := &Metrics{toggles: toggles}
	var err error

	if m.Analyses, err = meter.Int64Counter(
		"resumefit_analyses_total",
		metric.WithDescription("Completed analyses by kind and outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analyses metric: %w", err)
	}
	if m.ATSScore, err = meter.Int64Histogram(
		"resumefit_ats_score",
		metric.WithDescription("Distribution of ATS scores"),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create ATS score metric: %w", err)
	}
	if m.MatchScore, err = meter.Int64Histogram(
		"resumefit_match_score",
		metric.WithDescription("Distribution of job match scores"),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create match score metric: %w", err)
	}
	if m.AugmenterOutcomes, err = meter.Int64Counter(
		"resumefit_augmenter_outcomes_total",
		metric.WithDescription("Narrative augmenter calls by kind and outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create augmenter outcome metric: %w", err)
	}
	if m.AugmenterDuration, err = meter.Float64Histogram(
		"resumefit_augmenter_duration_seconds",
		metric.WithDescription("Time spent in narrative augmenter calls"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create augmenter duration metric: %w", err)
	}
	if m.AugmenterTokens, err = meter.Int64Histogram(
		"resumefit_augmenter_token_usage",
		metric.WithDescription("Token usage for augmenter calls (input, output, total)"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}
	if m.CacheLookups, err = meter.Int64Counter(
		"resumefit_cache_lookups_total",
		metric.WithDescription("Score card cache lookups by hit"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache metric: %w", err)
	}
	if m.RateLimitHits, err = meter.Int64Counter(
		"resumefit_rate_limit_hits_total",
		metric.WithDescription("Requests rejected by the rate limiter"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit metric: %w", err)
	}
	if m.CertReloads, err = meter.Int64Counter(
		"resumefit_cert_reloads_total",
		metric.WithDescription("TLS certificate reloads by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload metric: %w", err)
	}
	return m, nil
}

// RecordAnalysis counts an analysis and records its scores. card may be nil on failure.
func (m *Metrics) RecordAnalysis(ctx context.Context, kind string, card *analysis.ScoreCard, err error) {
	if m == nil || m.Analyses == nil || !m.toggles.analysis {
		return
	}
	m.Analyses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", err == nil),
	))
	if card == nil || !m.toggles.scores {
		return
	}
	m.ATSScore.Record(ctx, int64(card.ATSScore))
	if card.MatchScore != nil {
		m.MatchScore.Record(ctx, int64(*card.MatchScore))
	}
}

// RecordCacheLookup counts a cache hit or miss
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil || m.CacheLookups == nil || !m.toggles.analysis || !m.toggles.cache {
		return
	}
	m.CacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, path string) {
	if m == nil || m.RateLimitHits == nil || !m.toggles.infrastructure || !m.toggles.rateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

// RecordCertReload counts a certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	if m == nil || m.CertReloads == nil || !m.toggles.infrastructure {
		return
	}
	m.CertReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// AugmentObserver adapts the metrics to the engine's augmenter callback.
func (m *Metrics) AugmentObserver() analysis.AugmentObserver {
	return func(kind analysis.NarrativeKind, ok bool, reason analysis.FailureReason, elapsed time.Duration) {
		if m == nil || m.AugmenterOutcomes == nil || !m.toggles.augmenter {
			return
		}
		ctx := context.Background()
		outcome := "success"
		if !ok {
			outcome = string(reason)
		}
		attrs := metric.WithAttributes(
			attribute.String("kind", string(kind)),
			attribute.String("outcome", outcome),
		)
		m.AugmenterOutcomes.Add(ctx, 1, attrs)
		if m.toggles.augmentDuration {
			m.AugmenterDuration.Record(ctx, elapsed.Seconds(), attrs)
		}
	}
}

// UsageObserver adapts the metrics to the Gemini augmenter's token callback.
func (m *Metrics) UsageObserver() ai.UsageObserver {
	return func(kind analysis.NarrativeKind, usage ai.TokenUsage) {
		if m == nil || m.AugmenterTokens == nil || !m.toggles.augmenter || !m.toggles.tokenUsage {
			return
		}
		ctx := context.Background()
		for _, tt := range []struct {
			tokenType string
			value     int64
		}{
			{"input", usage.InputTokens},
			{"output", usage.OutputTokens},
			{"total", usage.TotalTokens},
		} {
			m.AugmenterTokens.Record(ctx, tt.value, metric.WithAttributes(
				attribute.String("kind", string(kind)),
				attribute.String("token_type", tt.tokenType),
			))
		}
	}
}
