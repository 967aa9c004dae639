package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"resumefit/internal/ai"
	"resumefit/internal/analysis"
	"resumefit/internal/cache"
	"resumefit/internal/config"
	"resumefit/internal/errors"
	"resumefit/internal/observability"
	"resumefit/internal/service"
	"resumefit/internal/store"
)

// buildService wires the engine, store and cache selected by cfg. metrics may be nil.
func buildService(ctx context.Context, cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*service.Service, error) {
	aug, err := ai.NewAugmenter(ctx, cfg, logger, ai.WithUsageObserver(metrics.UsageObserver()))
	if err != nil {
		return nil, fmt.Errorf("failed to create augmenter: %w", err)
	}

	weights := cfg.Analysis.AnalysisWeights()
	engine, err := analysis.NewEngine(
		analysis.WithDictionary(cfg.Analysis.Dictionary()),
		analysis.WithWeights(weights),
		analysis.WithAugmenter(aug),
		analysis.WithAugmenterTimeout(cfg.Analysis.AugmenterTimeout),
		analysis.WithLogger(logger),
		analysis.WithAugmentObserver(metrics.AugmentObserver()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis engine: %w", err)
	}

	repo, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		logger.LogError(err, "Score card cache unavailable, continuing without cache")
		c = cache.Noop{}
	}

	opts := []service.Option{
		service.WithCache(c),
		service.WithMetrics(metrics),
		service.WithLogger(logger),
		service.WithCacheNamespace(settingsDigest(weights, cfg.Analysis.ExtraTerms)),
		service.WithMaxFileSize(cfg.App.MaxFileSize),
	}
	if hr, ok := aug.(ai.HealthReporter); ok {
		opts = append(opts, service.WithHealthReporter(hr))
	}
	return service.New(engine, repo, opts...), nil
}

// settingsDigest identifies the scoring settings that change a score card
func settingsDigest(weights analysis.Weights, extraTerms []string) string {
	return cache.Key("weights", fmt.Sprint(weights), strings.Join(extraTerms, ","))[:12]
}

// defaultResumeID names a resume after its file when no ID was given
func defaultResumeID(resumeID, path string) string {
	if resumeID = strings.TrimSpace(resumeID); resumeID != "" {
		return resumeID
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// warnEphemeralStore notes that saved records disappear when the process exits
func warnEphemeralStore(cfg *config.Config, logger *errors.Logger) {
	if driver := strings.ToLower(cfg.Store.Driver); driver == "" || driver == store.DriverMemory {
		logger.Warn("Using the in-memory store; saved records are lost when the command exits",
			"hint", "set store.driver to sqlite or postgres")
	}
}
