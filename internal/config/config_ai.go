package config

import (
	"strings"

	"resumefit/internal/analysis"
)

// MaxAugmenterRetries bounds remote retries so a slow provider cannot stall an analysis
const MaxAugmenterRetries = 1

// NarrativeEnabled reports whether analyses should call the remote augmenter
func (c *Config) NarrativeEnabled() bool {
	return c.Analysis.UseAugmenter && c.AI.Provider != "none"
}

// EffectiveRetries returns the configured retry count clamped to [0, MaxAugmenterRetries]
func (a AIConfig) EffectiveRetries() int {
	switch {
	case a.MaxRetries < 0:
		return 0
	case a.MaxRetries > MaxAugmenterRetries:
		return MaxAugmenterRetries
	default:
		return a.MaxRetries
	}
}

// AnalysisWeights converts the configured table into scorer weights
func (a AnalysisConfig) AnalysisWeights() analysis.Weights {
	w := a.Weights
	return analysis.Weights{
		Base:               w.Base,
		ContactInfo:        w.ContactInfo,
		Email:              w.Email,
		Phone:              w.Phone,
		Experience:         w.Experience,
		Education:          w.Education,
		Skills:             w.Skills,
		PerKeyword:         w.PerKeyword,
		KeywordCap:         w.KeywordCap,
		ShortTextThreshold: w.ShortTextThreshold,
		ShortTextPenalty:   w.ShortTextPenalty,
		HealthyMinWords:    w.HealthyMinWords,
		HealthyBonus:       w.HealthyBonus,
		LongTextThreshold:  w.LongTextThreshold,
		NeutralMatchScore:  w.NeutralMatchScore,
		BreadthBonus:       w.BreadthBonus,
	}
}

// Dictionary builds the keyword dictionary, extending the built-in terms with ExtraTerms
func (a AnalysisConfig) Dictionary() *analysis.Dictionary {
	var opts []analysis.DictionaryOption
	if len(a.ExtraTerms) > 0 {
		terms := make([]string, 0, len(a.ExtraTerms))
		for _, t := range a.ExtraTerms {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
		opts = append(opts, analysis.WithTerms(terms...))
	}
	if a.DictionaryVersion != "" {
		opts = append(opts, analysis.WithVersion(a.DictionaryVersion))
	}
	if len(opts) == 0 {
		return analysis.DefaultDictionary()
	}
	return analysis.NewDictionary(opts...)
}

// Prompts returns the prompt content resolved at load time
func (c *Config) Prompts() LoadedPrompts {
	return c.prompts
}
