package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumefit/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault (KVv2 paths)
type VaultSecrets struct {
	// APIKeys holds a "keys" field with comma-separated values, e.g. "key1,key2,key3"
	APIKeys   string `mapstructure:"apiKeys"`
	GeminiKey string `mapstructure:"geminiKey"` // "api_key" field
	TLSCerts  string `mapstructure:"tlsCerts"`  // "cert", "key" and "ca" fields with PEM content
	Database  string `mapstructure:"database"`  // "dsn" field, optional "cache_password"
}

// secretReader is the subset of the Vault logical API used to read KVv2 secrets
type secretReader interface {
	Read(path string) (*api.Secret, error)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	reader secretReader
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration.
// It returns nil without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		logger.LogError(err, "Failed to create Vault client")
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to create vault client", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		return nil, errors.NewNetworkError(errors.ErrCodeRemoteUnavailable, "failed to connect to vault", err)
	}
	logger.Info("Successfully connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return newVaultClientWithReader(client.Logical(), logger), nil
}

func newVaultClientWithReader(reader secretReader, logger *errors.Logger) *VaultClient {
	return &VaultClient{reader: reader, logger: logger}
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		logger.Debug("Reading Vault token from file", "file", config.TokenFile)
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			logger.LogError(err, "Failed to read Vault token file", "file", config.TokenFile)
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.reader.Read(path)
	if err != nil {
		vc.logger.LogError(err, "Failed to read secret from Vault", "path", path)
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from the types the JSON decoder may produce
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	return stringField(secret, path, key)
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case value != "":
		return "****"
	default:
		return ""
	}
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return client.applySecrets(config)
}

// applySecrets copies every configured secret into config
func (vc *VaultClient) applySecrets(config *Config) error {
	paths := config.Vault.Secrets

	if paths.APIKeys != "" {
		value, err := vc.GetStringSecret(paths.APIKeys, "keys")
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if keys := splitAndTrim(value); len(keys) > 0 {
			config.Server.APIKeys = keys
			vc.logger.Info("API keys loaded from Vault", "count", len(keys))
		} else {
			vc.logger.Warn("No API keys found in Vault", "path", paths.APIKeys)
		}
	}

	if paths.GeminiKey != "" {
		key, err := vc.GetStringSecret(paths.GeminiKey, "api_key")
		if err != nil {
			return fmt.Errorf("failed to load Gemini API key from vault: %w", err)
		}
		if key != "" {
			config.AI.APIKey = key
			vc.logger.Debug("Gemini API key loaded from Vault", "masked_value", maskSecret(key))
		}
	}

	if paths.TLSCerts != "" {
		secret, err := vc.GetSecretV2(paths.TLSCerts)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
		}
		if err := rejectFileFields(secret); err != nil {
			return err
		}
		count := applyTLSContent(&config.Server.TLS, secret)
		vc.logger.Info("TLS certificates loaded from Vault", "certificates_loaded", count, "version", secret.Version)
	}

	if paths.Database != "" {
		secret, err := vc.GetSecretV2(paths.Database)
		if err != nil {
			return fmt.Errorf("failed to load database secret from vault: %w", err)
		}
		if dsn, err := stringField(secret, paths.Database, "dsn"); err == nil && dsn != "" {
			config.Store.DSN = dsn
			vc.logger.Info("Store DSN loaded from Vault", "driver", config.Store.Driver)
		}
		if password, ok := secret.Data["cache_password"].(string); ok && password != "" {
			config.Cache.Password = password
		}
	}

	return nil
}

// applyTLSContent copies PEM content fields into the TLS configuration.
// Content replaces any file path for the same slot.
func applyTLSContent(tls *TLSConfig, secret *VaultSecret) int {
	slots := []struct {
		key     string
		content *string
		file    *string
	}{
		{"cert", &tls.CertContent, &tls.CertFile},
		{"key", &tls.KeyContent, &tls.KeyFile},
		{"ca", &tls.CAContent, &tls.CAFile},
	}

	count := 0
	for _, s := range slots {
		if content, ok := secret.Data[s.key].(string); ok && content != "" {
			*s.content = content
			*s.file = ""
			count++
		}
	}
	return count
}

// rejectFileFields fails on secrets that store paths instead of PEM content
func rejectFileFields(secret *VaultSecret) error {
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		if _, ok := secret.Data[field]; ok {
			return fmt.Errorf("vault TLS configuration error: '%s' field is no longer supported. Store certificate content in '%s' field instead",
				field, strings.TrimSuffix(field, "_file"))
		}
	}
	return nil
}
