package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	config, err := loadConfig(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "gemini", config.AI.Provider)
	assert.Equal(t, "memory", config.Store.Driver)
	assert.False(t, config.NarrativeEnabled())
	assert.Equal(t, 20*time.Second, config.Analysis.AugmenterTimeout)
	assert.Equal(t, 65, config.Analysis.Weights.NeutralMatchScore)
	assert.Equal(t, "json", config.App.DefaultFormat)
	assert.NotEmpty(t, config.Observability.ServiceInstance)
	assert.NoError(t, config.Analysis.AnalysisWeights().Validate())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("RESUMEFIT_ANALYSIS_USEAUGMENTER", "true")
	t.Setenv("RESUMEFIT_AI_APIKEY", "env-key")
	t.Setenv("RESUMEFIT_STORE_DRIVER", "sqlite")
	t.Setenv("RESUMEFIT_STORE_DSN", "file:resumefit.db")
	t.Setenv("RESUMEFIT_SERVER_APIKEYS", "a, b")

	config, err := loadConfig(viper.New())
	require.NoError(t, err)

	assert.True(t, config.NarrativeEnabled())
	assert.Equal(t, "env-key", config.AI.APIKey)
	assert.Equal(t, "sqlite", config.Store.Driver)
	assert.Equal(t, "file:resumefit.db", config.Store.DSN)
	assert.Equal(t, []string{"a", "b"}, config.Server.APIKeys)
}

func TestServerAPIKeysNormalized(t *testing.T) {
	t.Setenv("RESUMEFIT_SERVER_APIKEYS", "")

	tests := []struct {
		name     string
		keys     []string
		expected []string
	}{
		{name: "padded", keys: []string{"a", " b "}, expected: []string{"a", "b"}},
		{name: "blank entries", keys: []string{"a", "  ", ""}, expected: []string{"a"}},
		{name: "embedded commas", keys: []string{"a,b", "c"}, expected: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{Server: ServerConfig{APIKeys: tt.keys}}
			config.applyServerAPIKeyFallbacks()
			assert.Equal(t, tt.expected, config.Server.APIKeys)
		})
	}
}

func TestLoadConfigRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RESUMEFIT_ANALYSIS_USEAUGMENTER", "true")

	_, err := loadConfig(viper.New())
	assert.ErrorContains(t, err, "AI API key is required")
}

func TestGeminiAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "legacy-key")

	config := &Config{AI: AIConfig{Provider: "gemini"}}
	config.applyAIKeyFallbacks()
	assert.Equal(t, "legacy-key", config.AI.APIKey)

	explicit := &Config{AI: AIConfig{Provider: "gemini", APIKey: "explicit"}}
	explicit.applyAIKeyFallbacks()
	assert.Equal(t, "explicit", explicit.AI.APIKey)
}

func validConfig() *Config {
	return &Config{
		AI:       AIConfig{Provider: "gemini", Timeout: time.Second},
		Analysis: AnalysisConfig{AugmenterTimeout: time.Second, Weights: defaultWeightsConfig()},
		Store:    StoreConfig{Driver: "memory"},
		Server:   ServerConfig{Port: "8080", TLS: TLSConfig{Mode: "disabled"}},
		App:      AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json", "text"}},
	}
}

func defaultWeightsConfig() WeightsConfig {
	return WeightsConfig{
		ContactInfo: 10, Email: 5, Phone: 5, Experience: 15, Education: 10, Skills: 10,
		PerKeyword: 4, KeywordCap: 40,
		ShortTextThreshold: 200, ShortTextPenalty: 10, HealthyMinWords: 300, HealthyBonus: 10,
		LongTextThreshold: 1000, NeutralMatchScore: 65, BreadthBonus: 5,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "augmenter without key", mutate: func(c *Config) { c.Analysis.UseAugmenter = true }, errorMsg: "AI API key is required"},
		{name: "augmenter with provider none", mutate: func(c *Config) { c.Analysis.UseAugmenter = true; c.AI.Provider = "none" }},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.Provider = "openai" }, errorMsg: "unsupported AI provider"},
		{name: "zero augmenter timeout", mutate: func(c *Config) { c.Analysis.AugmenterTimeout = 0 }, errorMsg: "augmenterTimeout must be positive"},
		{name: "negative weight", mutate: func(c *Config) { c.Analysis.Weights.Skills = -1 }, errorMsg: "analysis weights"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, errorMsg: "store dsn is required"},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Driver = "mongo" }, errorMsg: "unsupported store driver"},
		{name: "cache without addr", mutate: func(c *Config) { c.Cache.Enabled = true }, errorMsg: "cache addr is required"},
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }, errorMsg: "server port is required"},
		{name: "bad default format", mutate: func(c *Config) { c.App.DefaultFormat = "xml" }, errorMsg: "invalid default format"},
		{name: "bad tls", mutate: func(c *Config) { c.Server.TLS.Mode = "server" }, errorMsg: "TLS configuration error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errorMsg)
			}
		})
	}
}

func TestEffectiveRetries(t *testing.T) {
	tests := []struct {
		configured int
		expected   int
	}{
		{-2, 0},
		{0, 0},
		{1, 1},
		{5, MaxAugmenterRetries},
	}

	for _, tt := range tests {
		got := AIConfig{MaxRetries: tt.configured}.EffectiveRetries()
		if got != tt.expected {
			t.Errorf("Expected %d retries for %d, got %d", tt.expected, tt.configured, got)
		}
	}
}

func TestAnalysisDictionary(t *testing.T) {
	d := AnalysisConfig{ExtraTerms: []string{" Terraform ", ""}, DictionaryVersion: "custom-1"}.Dictionary()

	assert.Equal(t, "custom-1", d.Version())
	assert.Contains(t, d.Terms(), "terraform")

	def := AnalysisConfig{}.Dictionary()
	assert.NotContains(t, def.Terms(), "terraform")
}
