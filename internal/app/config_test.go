package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seojin/sceneweaver/pkg/types"
)

func newTestConfigManager(t *testing.T) *ConfigManager {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cm, err := NewConfigManager()
	require.NoError(t, err)
	return cm
}

func TestConfigManager(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cm := newTestConfigManager(t)

		config, err := cm.LoadGlobalConfig()
		require.NoError(t, err)
		assert.Equal(t, "openai", config.Defaults.Provider)
		assert.NotEmpty(t, config.ProjectsDir)
	})

	t.Run("round trip", func(t *testing.T) {
		cm := newTestConfigManager(t)

		config := types.DefaultGlobalConfig()
		config.ProjectsDir = t.TempDir()
		config.Providers["anthropic"] = &types.ProviderConfig{
			APIKey:       "sk-test",
			DefaultModel: "claude-sonnet-4-5",
		}
		require.NoError(t, cm.SaveGlobalConfig(config))

		reloaded, err := NewConfigManager()
		require.NoError(t, err)
		loaded, err := reloaded.LoadGlobalConfig()
		require.NoError(t, err)

		provider, err := reloaded.GetProviderConfig("anthropic")
		require.NoError(t, err)
		assert.Equal(t, "sk-test", provider.APIKey)
		assert.Equal(t, "claude-sonnet-4-5", provider.DefaultModel)
		assert.Equal(t, config.ProjectsDir, loaded.ProjectsDir)
	})

	t.Run("expands env var api keys", func(t *testing.T) {
		cm := newTestConfigManager(t)
		t.Setenv("EXAMPLE_OPENAI_KEY", "sk-from-env")

		config := types.DefaultGlobalConfig()
		config.Providers["openai"] = &types.ProviderConfig{APIKey: "${EXAMPLE_OPENAI_KEY}"}
		require.NoError(t, cm.SaveGlobalConfig(config))

		reloaded, err := NewConfigManager()
		require.NoError(t, err)
		provider, err := reloaded.GetProviderConfig("openai")
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", provider.APIKey)
	})

	t.Run("unknown provider errors", func(t *testing.T) {
		cm := newTestConfigManager(t)

		_, err := cm.GetProviderConfig("nonexistent")
		assert.Error(t, err)
	})

	t.Run("set provider persists and becomes default", func(t *testing.T) {
		cm := newTestConfigManager(t)

		config := types.DefaultGlobalConfig()
		config.Defaults.Provider = ""
		require.NoError(t, cm.SaveGlobalConfig(config))

		err := cm.SetProviderConfig("gemini", &types.ProviderConfig{APIKey: "g-key"})
		require.NoError(t, err)

		reloaded, err := NewConfigManager()
		require.NoError(t, err)
		loaded, err := reloaded.LoadGlobalConfig()
		require.NoError(t, err)
		assert.Equal(t, "gemini", loaded.Defaults.Provider)

		data, err := os.ReadFile(filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "sceneweaver", "config.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "gemini")
	})
}

func TestResolveAPIKey(t *testing.T) {
	t.Run("config key wins", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-env")
		key := resolveAPIKey("openai", &types.ProviderConfig{APIKey: "sk-config"})
		assert.Equal(t, "sk-config", key)
	})

	t.Run("falls back to environment", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-env")
		key := resolveAPIKey("anthropic", nil)
		assert.Equal(t, "sk-env", key)
	})

	t.Run("gemini checks both variables", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		t.Setenv("GOOGLE_API_KEY", "g-key")
		key := resolveAPIKey("gemini", &types.ProviderConfig{})
		assert.Equal(t, "g-key", key)
	})
}
