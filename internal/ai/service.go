package ai

import (
	"context"
	"fmt"

	"resumefit/internal/analysis"
	"resumefit/internal/config"
	"resumefit/internal/errors"
)

// NewAugmenter builds the narrative augmenter selected by configuration.
// It returns a NoopAugmenter when narratives are disabled.
func NewAugmenter(ctx context.Context, cfg *config.Config, logger *errors.Logger, opts ...GeminiOption) (analysis.Augmenter, error) {
	if !cfg.NarrativeEnabled() {
		logger.Debug("Narrative augmenter disabled", "provider", cfg.AI.Provider)
		return analysis.NoopAugmenter{}, nil
	}

	logger.Debug("Initializing narrative augmenter",
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"temperature", cfg.AI.Temperature,
		"timeout", cfg.AI.Timeout,
		"max_retries", cfg.AI.EffectiveRetries(),
		"use_system_prompts", cfg.AI.UseSystemPrompts)

	switch cfg.AI.Provider {
	case "gemini":
		opts = append([]GeminiOption{WithPrompts(cfg.Prompts())}, opts...)
		return NewGeminiAugmenter(ctx, cfg.AI, logger, opts...)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.AI.Provider), nil)
	}
}
