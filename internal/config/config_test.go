package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/pkg/storage"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), config.BaseConfigFile))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultApps, cfg.Apps)
	assert.Equal(t, "mmx", cfg.LegacyApp)
	assert.False(t, cfg.LegacyFallback)
	assert.Equal(t, "dev", cfg.DefaultEnvironment)
	assert.Empty(t, cfg.Aliases)
	assert.Equal(t, "5m", cfg.Cache.TTL)
	assert.Equal(t, "5s", cfg.Backend.Timeout)
	assert.Equal(t, "/api", cfg.API.BasePath)
	assert.Equal(t, 25, cfg.API.Pagination.DefaultPageSize)
	assert.Equal(t, "Prompt Repository API", cfg.API.OpenAPI.Title)
	assert.Equal(t, "10s", cfg.Server.ReadHeaderTimeout)
	assert.False(t, cfg.Server.TLS())

	require.Len(t, cfg.Environments, 3)
	prod, ok := cfg.Environment("prod")
	require.True(t, ok)
	assert.Equal(t, "app-metadata-prod", prod.Storage.Container)
	assert.Equal(t, storage.ProviderAzure, prod.Storage.Provider)
	assert.True(t, prod.ConfirmWrites)
}

func TestLoadFileAndOverlay(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "config.toml", `
apps = ["mmx", "FAST"]
legacy_fallback = true

[aliases]
FAST = "fast1"

[[environments]]
name = "dev"
backend_url = "http://dev.internal/"

[environments.storage]
provider = "memory"
container = "local"

[[environments]]
name = "aws"

[environments.storage]
provider = "s3"
container = "prompts"
region = "us-east-1"
`)
	write(t, dir, "config.staging.toml", `
[log]
format = "json"

[[environments]]
name = "aws"
confirm_writes = true
`)
	t.Setenv(config.EnvPromptRepoEnv, "staging")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"mmx", "FAST"}, cfg.Apps)
	assert.True(t, cfg.LegacyFallback)
	assert.Equal(t, map[string]string{"fast": "fast1"}, cfg.Aliases)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.SupportsApp("fast"))
	assert.False(t, cfg.SupportsApp("kythera"))

	dev, ok := cfg.Environment("dev")
	require.True(t, ok)
	assert.Equal(t, "http://dev.internal", dev.BackendURL)
	assert.Equal(t, storage.ProviderMemory, dev.Storage.Provider)

	aws, ok := cfg.Environment("aws")
	require.True(t, ok)
	assert.True(t, aws.ConfirmWrites)
	assert.Equal(t, "us-east-1", aws.Storage.Region)
}

func TestEnvironmentSecretsFromEnv(t *testing.T) {
	t.Setenv("PROMPTREPO_PROD_CONNECTION_STRING", "UseDevelopmentStorage=true")
	t.Setenv("PROMPTREPO_PROD_BACKEND_URL", "https://prod.internal")

	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), config.BaseConfigFile))
	require.NoError(t, err)

	prod, _ := cfg.Environment("prod")
	assert.Equal(t, "UseDevelopmentStorage=true", prod.Storage.ConnectionString)
	assert.Equal(t, "https://prod.internal", prod.BackendURL)

	dev, _ := cfg.Environment("dev")
	err = dev.Storage.Validate(dev.StorageEnv())
	var ce *storage.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "PROMPTREPO_DEV_CONNECTION_STRING", ce.EnvVar)
}

func TestDotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".env", "PROMPTREPO_BACKEND_TOKEN=from-file\nPROMPTREPO_AUTH_PASSWORD=from-file\n")
	t.Setenv(config.EnvAuthPassword, "from-process")
	t.Setenv(config.EnvBackendToken, "")
	os.Unsetenv(config.EnvBackendToken)

	cfg, err := config.LoadFrom(filepath.Join(dir, config.BaseConfigFile))
	require.NoError(t, err)

	assert.Equal(t, "from-process", cfg.Auth.Password)
	assert.Equal(t, "from-file", cfg.Backend.Token)
}

func TestEnvPrefix(t *testing.T) {
	env := config.EnvironmentConfig{Name: "us-prod"}
	assert.Equal(t, "PROMPTREPO_US_PROD_", env.EnvPrefix())
	assert.Equal(t, "PROMPTREPO_US_PROD_BACKEND_URL", env.BackendURLEnv())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad default environment", `default_environment = "staging"`},
		{"bad log level", "[log]\nlevel = \"loud\""},
		{"bad cache ttl", "[cache]\nttl = \"soon\""},
		{"unknown provider", "[[environments]]\nname = \"x\"\n[environments.storage]\nprovider = \"gcs\""},
		{"duplicate environment", "[[environments]]\nname = \"x\"\n[[environments]]\nname = \"x\""},
		{"tls cert without key", "[server]\ntls_cert_file = \"cert.pem\""},
		{"bad read header timeout", "[server]\nread_header_timeout = \"fast\""},
		{"page size above max", "[api.pagination]\ndefault_page_size = 500\nmax_page_size = 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := write(t, dir, "config.toml", tt.body)
			_, err := config.LoadFrom(path)
			assert.Error(t, err)
		})
	}
}
