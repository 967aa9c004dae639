package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Narrative augmenter
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 15*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 1)
	v.SetDefault("ai.temperature", 0.2) // Low temperature keeps narratives close to the findings
	v.SetDefault("ai.useSystemPrompts", true)

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Analysis
	v.SetDefault("analysis.useAugmenter", false)
	v.SetDefault("analysis.augmenterTimeout", 20*time.Second)
	v.SetDefault("analysis.dictionaryVersion", "")
	v.SetDefault("analysis.extraTerms", []string{})

	v.SetDefault("analysis.weights.base", 0)
	v.SetDefault("analysis.weights.contactInfo", 10)
	v.SetDefault("analysis.weights.email", 5)
	v.SetDefault("analysis.weights.phone", 5)
	v.SetDefault("analysis.weights.experience", 15)
	v.SetDefault("analysis.weights.education", 10)
	v.SetDefault("analysis.weights.skills", 10)
	v.SetDefault("analysis.weights.perKeyword", 4)
	v.SetDefault("analysis.weights.keywordCap", 40)
	v.SetDefault("analysis.weights.shortTextThreshold", 200)
	v.SetDefault("analysis.weights.shortTextPenalty", 10)
	v.SetDefault("analysis.weights.healthyMinWords", 300)
	v.SetDefault("analysis.weights.healthyBonus", 10)
	v.SetDefault("analysis.weights.longTextThreshold", 1000)
	v.SetDefault("analysis.weights.neutralMatchScore", 65)
	v.SetDefault("analysis.weights.breadthBonus", 5)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second) // Augmented analyses can take a while
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 2*1024*1024) // 2MB

	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{}) // Use Go defaults
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.autoReload.enabled", true)
	v.SetDefault("server.tls.autoReload.debounceDelay", time.Second)

	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Store
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.maxOpenConns", 10)
	v.SetDefault("store.maxIdleConns", 5)
	v.SetDefault("store.connMaxLifetime", 30*time.Minute)
	v.SetDefault("store.pingTimeout", 5*time.Second)
	v.SetDefault("store.autoMigrate", true)

	// Cache
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.prefix", "resumefit:card:")

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB, PDFs are larger than their text

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")
	v.SetDefault("vault.secrets.database", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumefit")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.augmenter.enabled", true)
	v.SetDefault("observability.customMetrics.augmenter.trackDuration", true)
	v.SetDefault("observability.customMetrics.augmenter.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.analysis.enabled", true)
	v.SetDefault("observability.customMetrics.analysis.trackScores", true)
	v.SetDefault("observability.customMetrics.analysis.trackCache", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
