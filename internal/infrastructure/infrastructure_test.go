package infrastructure_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/dispatch"
	"github.com/JaimeStill/promptrepo/internal/infrastructure"
	"github.com/JaimeStill/promptrepo/pkg/storage"
)

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := infrastructure.NewLogger(&config.LogConfig{Level: "info", Format: "json"}, &buf)
		logger.Info("hello", "k", "v")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "v", line["k"])
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := infrastructure.NewLogger(&config.LogConfig{Level: "warn", Format: "text"}, &buf)
		logger.Info("hidden")
		assert.Empty(t, buf.String())

		logger.Warn("shown")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestProbe(t *testing.T) {
	cfg := &config.Config{
		LegacyApp: "mmx",
		Auth: config.AuthConfig{
			Password:      "pw",
			SessionSecret: "s",
			SessionTTL:    "1h",
			MaxSessions:   8,
			LoginRate:     1,
			LoginBurst:    1,
		},
		Cache:   config.CacheConfig{TTL: "1m", Size: 8},
		Backend: config.BackendConfig{Timeout: "1s"},
		Log:     config.LogConfig{Level: "error", Format: "text"},
		Environments: []config.EnvironmentConfig{
			{Name: "dev", Storage: storage.Config{Provider: storage.ProviderMemory, Container: "dev"}},
			{Name: "prod", Storage: storage.Config{Provider: storage.ProviderS3}},
		},
	}

	infra, err := infrastructure.New(cfg, dispatch.WithBucket("dev", storage.NewMemory("dev")))
	require.NoError(t, err)

	failures := infra.Probe(context.Background())
	assert.NotContains(t, failures, "dev")
	require.Contains(t, failures, "prod")
	assert.True(t, storage.IsConfigError(failures["prod"]))

	components := infra.Lifecycle.Components()
	assert.Equal(t, "ok", components["environment:dev"])
	assert.NotEqual(t, "ok", components["environment:prod"])
}
