package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"resumefit/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeReader serves canned KVv2 secrets keyed by path
type fakeReader map[string]map[string]any

func (f fakeReader) Read(path string) (*api.Secret, error) {
	data, ok := f[path]
	if !ok {
		return nil, nil
	}
	if data == nil {
		return nil, fmt.Errorf("permission denied")
	}
	return &api.Secret{Data: map[string]any{
		"data":     data,
		"metadata": map[string]any{"version": "3"},
	}}, nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestGetSecretV2(t *testing.T) {
	vc := newVaultClientWithReader(fakeReader{
		"secret/data/app": {"api_key": "abc"},
		"secret/data/bad": nil,
	}, newTestLogger())

	secret, err := vc.GetSecretV2("secret/data/app")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)
	assert.Equal(t, "abc", secret.Data["api_key"])

	_, err = vc.GetSecretV2("secret/data/missing")
	assert.ErrorContains(t, err, "secret not found")

	_, err = vc.GetSecretV2("secret/data/bad")
	assert.ErrorContains(t, err, "permission denied")

	var nilClient *VaultClient
	_, err = nilClient.GetSecretV2("secret/data/app")
	assert.Error(t, err)
}

func TestGetSecretV2RejectsKVv1(t *testing.T) {
	reader := kvV1Reader{}
	vc := newVaultClientWithReader(reader, nil)

	_, err := vc.GetSecretV2("secret/app")
	assert.ErrorContains(t, err, "not in KVv2 format")
}

type kvV1Reader struct{}

func (kvV1Reader) Read(string) (*api.Secret, error) {
	return &api.Secret{Data: map[string]any{"api_key": "abc"}}, nil
}

func TestApplySecrets(t *testing.T) {
	vc := newVaultClientWithReader(fakeReader{
		"secret/data/keys":   {"keys": "k1, k2 ,,k3"},
		"secret/data/gemini": {"api_key": "gemini-secret-key"},
		"secret/data/tls":    {"cert": "CERT", "key": "KEY"},
		"secret/data/db":     {"dsn": "postgres://u:p@db/resumefit", "cache_password": "redis-pass"},
	}, newTestLogger())

	config := &Config{
		Store: StoreConfig{Driver: "postgres"},
		Server: ServerConfig{TLS: TLSConfig{
			Mode:     "server",
			CertFile: "/etc/old-cert.pem",
			KeyFile:  "/etc/old-key.pem",
		}},
		Vault: VaultConfig{Secrets: VaultSecrets{
			APIKeys:   "secret/data/keys",
			GeminiKey: "secret/data/gemini",
			TLSCerts:  "secret/data/tls",
			Database:  "secret/data/db",
		}},
	}

	require.NoError(t, vc.applySecrets(config))

	assert.Equal(t, []string{"k1", "k2", "k3"}, config.Server.APIKeys)
	assert.Equal(t, "gemini-secret-key", config.AI.APIKey)
	assert.Equal(t, "CERT", config.Server.TLS.CertContent)
	assert.Equal(t, "KEY", config.Server.TLS.KeyContent)
	assert.Empty(t, config.Server.TLS.CertFile, "content should replace the file path")
	assert.Equal(t, "postgres://u:p@db/resumefit", config.Store.DSN)
	assert.Equal(t, "redis-pass", config.Cache.Password)
}

func TestApplySecretsMissingKey(t *testing.T) {
	vc := newVaultClientWithReader(fakeReader{
		"secret/data/gemini": {"token": "wrong-field"},
	}, nil)

	config := &Config{Vault: VaultConfig{Secrets: VaultSecrets{GeminiKey: "secret/data/gemini"}}}
	err := vc.applySecrets(config)
	assert.ErrorContains(t, err, "key 'api_key' not found")
}

func TestRejectFileFields(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		expectError bool
	}{
		{name: "content only", data: map[string]any{"cert": "c", "key": "k"}},
		{name: "cert_file present", data: map[string]any{"cert_file": "/etc/cert.pem"}, expectError: true},
		{name: "ca_file present", data: map[string]any{"ca_file": "/etc/ca.pem"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rejectFileFields(&VaultSecret{Data: tt.data})
			if tt.expectError {
				assert.ErrorContains(t, err, "no longer supported")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyTLSContentPartial(t *testing.T) {
	tls := TLSConfig{CAFile: "/etc/ca.pem"}
	count := applyTLSContent(&tls, &VaultSecret{Data: map[string]any{"cert": "C", "key": 42}})

	assert.Equal(t, 1, count)
	assert.Equal(t, "C", tls.CertContent)
	assert.Empty(t, tls.KeyContent)
	assert.Equal(t, "/etc/ca.pem", tls.CAFile)
}

func TestResolveVaultToken(t *testing.T) {
	tempDir := t.TempDir()
	tokenFile := filepath.Join(tempDir, "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

	tests := []struct {
		name        string
		config      VaultConfig
		expected    string
		expectError bool
	}{
		{name: "token from config", config: VaultConfig{Token: "direct", TokenFile: tokenFile}, expected: "direct"},
		{name: "token from file", config: VaultConfig{TokenFile: tokenFile}, expected: "file-token"},
		{name: "missing file", config: VaultConfig{TokenFile: filepath.Join(tempDir, "nope")}, expectError: true},
		{name: "no token", config: VaultConfig{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.config, newTestLogger())
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
}
