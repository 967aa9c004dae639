package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config file values
// 3. Environment variables (RESUMEFIT_AI_APIKEY, RESUMEFIT_STORE_DSN, etc.)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Server        ServerConfig        `mapstructure:"server"`
	Store         StoreConfig         `mapstructure:"store"`
	Cache         CacheConfig         `mapstructure:"cache"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	// prompts holds prompt content resolved from inline values and files
	prompts LoadedPrompts
}

// AIConfig holds the narrative augmenter configuration
type AIConfig struct {
	Provider         string               `mapstructure:"provider"` // "gemini" or "none"
	Model            string               `mapstructure:"model"`
	Timeout          time.Duration        `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       int                  `mapstructure:"maxRetries"`
	Temperature      float32              `mapstructure:"temperature"`
	UseSystemPrompts bool                 `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts NarrativePrompts `mapstructure:"systemPrompts"`
	UserPrompts   NarrativePrompts `mapstructure:"userPrompts"`
}

// NarrativePrompts holds one prompt per narrative kind, inline or as a file path
type NarrativePrompts struct {
	OverallFeedback     string `mapstructure:"overallFeedback"`
	OverallFeedbackFile string `mapstructure:"overallFeedbackFile"`
	ImprovedVersion     string `mapstructure:"improvedVersion"`
	ImprovedVersionFile string `mapstructure:"improvedVersionFile"`
	Insights            string `mapstructure:"insights"`
	InsightsFile        string `mapstructure:"insightsFile"`
}

// AnalysisConfig holds rule engine configuration
type AnalysisConfig struct {
	UseAugmenter      bool          `mapstructure:"useAugmenter"`
	AugmenterTimeout  time.Duration `mapstructure:"augmenterTimeout"`
	DictionaryVersion string        `mapstructure:"dictionaryVersion"`
	ExtraTerms        []string      `mapstructure:"extraTerms"`
	Weights           WeightsConfig `mapstructure:"weights"`
}

// WeightsConfig mirrors the scorer's weight table
type WeightsConfig struct {
	Base               int `mapstructure:"base"`
	ContactInfo        int `mapstructure:"contactInfo"`
	Email              int `mapstructure:"email"`
	Phone              int `mapstructure:"phone"`
	Experience         int `mapstructure:"experience"`
	Education          int `mapstructure:"education"`
	Skills             int `mapstructure:"skills"`
	PerKeyword         int `mapstructure:"perKeyword"`
	KeywordCap         int `mapstructure:"keywordCap"`
	ShortTextThreshold int `mapstructure:"shortTextThreshold"`
	ShortTextPenalty   int `mapstructure:"shortTextPenalty"`
	HealthyMinWords    int `mapstructure:"healthyMinWords"`
	HealthyBonus       int `mapstructure:"healthyBonus"`
	LongTextThreshold  int `mapstructure:"longTextThreshold"`
	NeutralMatchScore  int `mapstructure:"neutralMatchScore"`
	BreadthBonus       int `mapstructure:"breadthBonus"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	CAFile   string `mapstructure:"caFile"`   // CA for client cert verification (mutual mode)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"`       // "1.2" or "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`     // optional
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"

	AutoReload AutoReloadConfig `mapstructure:"autoReload"`
}

// AutoReloadConfig controls reloading certificate files when they change on disk
type AutoReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// StoreConfig selects and tunes the analysis record store
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"` // "memory", "sqlite", "postgres"
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	PingTimeout     time.Duration `mapstructure:"pingTimeout"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

// CacheConfig holds the score card cache configuration
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	Augmenter      AugmenterMetricsConfig      `mapstructure:"augmenter"`
	Analysis       AnalysisMetricsConfig       `mapstructure:"analysis"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AugmenterMetricsConfig controls narrative augmenter metrics
type AugmenterMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// AnalysisMetricsConfig controls score distribution metrics
type AnalysisMetricsConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	TrackScores bool `mapstructure:"trackScores"`
	TrackCache  bool `mapstructure:"trackCache"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// EnvPrefix is the prefix of every environment variable the configuration reads
const EnvPrefix = "RESUMEFIT"

// LoadConfig loads configuration from environment variables, a config file and
// any command line flags bound to the global viper instance
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", EnvPrefix)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumefit/")
	v.AddConfigPath("$HOME/.resumefit")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := ApplyVaultSecrets(&config, nil); err != nil {
		return nil, fmt.Errorf("failed to load secrets from vault: %w", err)
	}

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := config.loadPrompts(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.NarrativeEnabled() {
		if c.AI.APIKey == "" {
			return fmt.Errorf("AI API key is required when the augmenter is enabled (set %s_AI_APIKEY or analysis.useAugmenter=false)", EnvPrefix)
		}
		if c.AI.Timeout <= 0 {
			return fmt.Errorf("AI timeout must be positive")
		}
	}

	switch c.AI.Provider {
	case "gemini", "none":
	default:
		return fmt.Errorf("unsupported AI provider: %s (must be 'gemini' or 'none')", c.AI.Provider)
	}

	if c.Analysis.AugmenterTimeout <= 0 {
		return fmt.Errorf("analysis augmenterTimeout must be positive")
	}
	if err := c.Analysis.AnalysisWeights().Validate(); err != nil {
		return fmt.Errorf("analysis weights: %w", err)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store dsn is required for driver %s", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver: %s (must be 'memory', 'sqlite' or 'postgres')", c.Store.Driver)
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache addr is required when the cache is enabled")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
