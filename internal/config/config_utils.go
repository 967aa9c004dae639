package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks and derived defaults
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyAIKeyFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks accepts a comma separated key list from the environment
// and normalizes whatever keys were decoded, trimming spaces and dropping blanks
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = splitAndTrim(apiKeysEnv)
		}
		return
	}
	c.Server.APIKeys = splitAndTrim(strings.Join(c.Server.APIKeys, ","))
}

// applyAIKeyFallbacks honours the conventional GEMINI_API_KEY variable
func (c *Config) applyAIKeyFallbacks() {
	if c.AI.APIKey == "" && c.AI.Provider == "gemini" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = "disabled"
	}
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// isSensitiveEnv reports whether an environment variable value must be masked in logs
func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"key", "dsn", "password", "token"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_AI_PROVIDER",
		EnvPrefix + "_AI_MODEL",
		EnvPrefix + "_ANALYSIS_USEAUGMENTER",
		EnvPrefix + "_STORE_DRIVER",
		EnvPrefix + "_STORE_DSN",
		EnvPrefix + "_CACHE_ENABLED",
		EnvPrefix + "_CACHE_PASSWORD",
		EnvPrefix + "_SERVER_PORT",
		EnvPrefix + "_SERVER_HOST",
		EnvPrefix + "_APP_LOGLEVEL",
		EnvPrefix + "_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if isSensitiveEnv(envVar) {
			log.Printf("[CONFIG]   %s=***MASKED***", envVar)
		} else {
			log.Printf("[CONFIG]   %s=%s", envVar, value)
		}
		hasEnvVars = true
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Augmenter Enabled: %t", c.NarrativeEnabled())
	log.Printf("[CONFIG] Store Driver: %s", c.Store.Driver)
	log.Printf("[CONFIG] Cache Enabled: %t", c.Cache.Enabled)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
