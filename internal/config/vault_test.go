package config

import (
	"os"
	"path/filepath"
	"testing"

	"jdoptim/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vaultTestLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("debug")
	require.NoError(t, err)
	return logger
}

func TestParseVersionValue(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input any
		want  int64
	}{
		{"int64", int64(42), 42},
		{"float64", float64(42.0), 42},
		{"numeric string", "42", 42},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersionValue(tt.input, "secret/jdoptim")
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, tt := range []struct {
		name  string
		input any
	}{
		{"non-numeric string", "not-a-number"},
		{"unsupported type", []string{"42"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseVersionValue(tt.input, "secret/jdoptim")
			assert.Error(t, err)
		})
	}
}

func TestApplyProviderKeyToConfig(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Provider: "claude",
			Enhance:  OperationAIConfig{},
			Refine:   OperationAIConfig{},
		},
	}

	key := "test-anthropic-key"
	applyProviderKeyToConfig(config, "claude", key)

	assert.Equal(t, key, config.AI.APIKey)
	assert.Equal(t, key, config.AI.Enhance.APIKey)
	assert.Equal(t, key, config.AI.Refine.APIKey)
}

func TestApplyProviderKeyToConfigWithExistingKeys(t *testing.T) {
	existingEnhanceKey := "existing-enhance-key"
	config := &Config{
		AI: AIConfig{
			Provider: "claude",
			Enhance:  OperationAIConfig{APIKey: existingEnhanceKey},
			Refine:   OperationAIConfig{},
		},
	}

	key := "test-anthropic-key"
	applyProviderKeyToConfig(config, "claude", key)

	assert.Equal(t, key, config.AI.APIKey)
	assert.Equal(t, existingEnhanceKey, config.AI.Enhance.APIKey) // Should not overwrite existing
	assert.Equal(t, key, config.AI.Refine.APIKey)
}

func TestApplyProviderKeyToConfigSkipsOtherProviders(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Provider: "claude",
			Enhance:  OperationAIConfig{Provider: "gemini"},
			Refine:   OperationAIConfig{},
		},
	}

	applyProviderKeyToConfig(config, "gemini", "test-gemini-key")

	// Global provider is claude, so the global key stays empty
	assert.Equal(t, "", config.AI.APIKey)
	// Enhance explicitly uses gemini and gets the key
	assert.Equal(t, "test-gemini-key", config.AI.Enhance.APIKey)
	// Refine inherits the claude global provider and is untouched
	assert.Equal(t, "", config.AI.Refine.APIKey)
}

func TestLoadSingleCertificate(t *testing.T) {
	logger := vaultTestLogger(t)
	pem := "-----BEGIN CERTIFICATE-----\ncert-body\n-----END CERTIFICATE-----"

	t.Run("present", func(t *testing.T) {
		var target string
		data := &VaultSecret{Data: map[string]any{"cert": pem}}

		n := loadSingleCertificate(data, "cert", &target, "TLS certificate content", logger)
		assert.Equal(t, 1, n)
		assert.Equal(t, pem, target)
	})

	// Empty, absent and non-string values all leave the target untouched.
	for name, data := range map[string]map[string]any{
		"empty":      {"cert": ""},
		"absent":     {"other": "value"},
		"non-string": {"cert": 123},
	} {
		t.Run(name, func(t *testing.T) {
			var target string
			n := loadSingleCertificate(&VaultSecret{Data: data}, "cert", &target, "TLS certificate content", logger)
			assert.Equal(t, 0, n)
			assert.Equal(t, "", target)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	logger := vaultTestLogger(t)

	writeTokenFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	t.Run("direct token wins", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("file token is trimmed", func(t *testing.T) {
		cfg := VaultConfig{TokenFile: writeTokenFile(t, "  file-token  \n")}
		token, err := resolveVaultToken(cfg, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("unreadable token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"}, logger)
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token configured", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.ErrorContains(t, err, "vault token is required")
	})

	t.Run("whitespace-only token file", func(t *testing.T) {
		cfg := VaultConfig{TokenFile: writeTokenFile(t, "   \n  \n")}
		_, err := resolveVaultToken(cfg, logger)
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestValidateTLSDeprecatedFields(t *testing.T) {
	logger := vaultTestLogger(t)

	ok := &VaultSecret{Data: map[string]any{
		"cert": "cert-content",
		"key":  "key-content",
		"ca":   "ca-content",
	}}
	assert.NoError(t, validateTLSDeprecatedFields(ok, logger))

	// Path-style fields were replaced by inline content; each one is
	// rejected by name.
	for _, field := range []string{"cert_file", "key_file", "ca_file"} {
		t.Run(field, func(t *testing.T) {
			data := &VaultSecret{Data: map[string]any{field: "/path/to/something"}}
			err := validateTLSDeprecatedFields(data, logger)
			assert.ErrorContains(t, err, field)
			assert.ErrorContains(t, err, "no longer supported")
		})
	}
}

func TestLoadTLSCertificateContent(t *testing.T) {
	logger := vaultTestLogger(t)

	t.Run("full material", func(t *testing.T) {
		config := &Config{}
		tlsData := &VaultSecret{Data: map[string]any{
			"cert": "cert-content",
			"key":  "key-content",
			"ca":   "ca-content",
		}}

		assert.Equal(t, 3, loadTLSCertificateContent(config, tlsData, logger))
		assert.Equal(t, "cert-content", config.Server.TLS.CertContent)
		assert.Equal(t, "key-content", config.Server.TLS.KeyContent)
		assert.Equal(t, "ca-content", config.Server.TLS.CAContent)
	})

	t.Run("partial material", func(t *testing.T) {
		config := &Config{}
		tlsData := &VaultSecret{Data: map[string]any{"cert": "cert-content"}}

		assert.Equal(t, 1, loadTLSCertificateContent(config, tlsData, logger))
		assert.Equal(t, "cert-content", config.Server.TLS.CertContent)
		assert.Equal(t, "", config.Server.TLS.KeyContent)
		assert.Equal(t, "", config.Server.TLS.CAContent)
	})
}

// With vault disabled the startup call must be a no-op that leaves the
// config exactly as loaded.
func TestApplyVaultSecretsDisabled(t *testing.T) {
	logger := vaultTestLogger(t)

	config := &Config{
		Vault: VaultConfig{Enabled: false},
		AI:    AIConfig{APIKey: "from-env"},
	}

	assert.NoError(t, ApplyVaultSecrets(config, logger))
	assert.Equal(t, "from-env", config.AI.APIKey)
	assert.Equal(t, "", config.Server.TLS.CertContent)
}

func TestVaultClientExtractSecretData(t *testing.T) {
	vc := &VaultClient{logger: vaultTestLogger(t)}

	t.Run("KVv2 payload", func(t *testing.T) {
		secret := &api.Secret{Data: map[string]any{
			"data": map[string]any{"key1": "value1", "key2": "value2"},
		}}

		got, err := vc.extractSecretData(secret, "secret/jdoptim")
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"key1": "value1", "key2": "value2"}, got)
	})

	for name, data := range map[string]map[string]any{
		"missing data field": {"metadata": map[string]any{}},
		"data field not a map": {"data": "not-a-map"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := vc.extractSecretData(&api.Secret{Data: data}, "secret/jdoptim")
			assert.Error(t, err)
		})
	}
}

func TestVaultClientExtractSecretVersion(t *testing.T) {
	vc := &VaultClient{logger: vaultTestLogger(t)}

	for name, version := range map[string]any{
		"int64":   int64(42),
		"float64": float64(42),
	} {
		t.Run(name, func(t *testing.T) {
			secret := &api.Secret{Data: map[string]any{
				"metadata": map[string]any{"version": version},
			}}

			got, err := vc.extractSecretVersion(secret, "secret/jdoptim")
			assert.NoError(t, err)
			assert.Equal(t, int64(42), got)
		})
	}

	for name, data := range map[string]map[string]any{
		"missing metadata": {"data": map[string]any{}},
		"missing version":  {"metadata": map[string]any{"other": "value"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := vc.extractSecretVersion(&api.Secret{Data: data}, "secret/jdoptim")
			assert.Error(t, err)
		})
	}
}
