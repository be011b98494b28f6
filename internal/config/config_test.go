package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "http://127.0.0.1:8790", cfg.Backend.URL)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "http://127.0.0.1:8765", cfg.Agent.URL)
	require.Equal(t, 120*time.Second, cfg.Agent.Timeout)
	require.Equal(t, 3*time.Second, cfg.Agent.HealthTimeout)
	require.Equal(t, "agent", cfg.LLM.Provider)
	require.Equal(t, 4096, cfg.LLM.MaxTokens)
	require.Equal(t, "./bundlescope.db", cfg.Cache.Path)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 2000, cfg.Logging.BufferCapacity)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
agent:
  health_timeout: 5s
llm:
  provider: anthropic
  model: claude-3-haiku
cache:
  path: /var/lib/bundlescope/cache.db
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 5*time.Second, cfg.Agent.HealthTimeout)
	require.Equal(t, "anthropic", cfg.LLM.Provider)
	require.Equal(t, "claude-3-haiku", cfg.LLM.Model)
	require.Equal(t, "/var/lib/bundlescope/cache.db", cfg.Cache.Path)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Keys the file leaves out keep their defaults.
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, "http://127.0.0.1:8790", cfg.Backend.URL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "sk-oai-test")

	cfg, err := Load(writeConfig(t, "llm:\n  provider: anthropic\n"))
	require.NoError(t, err)
	require.Equal(t, "sk-ant-test", cfg.LLM.APIKey)

	cfg, err = Load(writeConfig(t, "llm:\n  provider: openai\n"))
	require.NoError(t, err)
	require.Equal(t, "sk-oai-test", cfg.LLM.APIKey)

	// The agent provider needs no key, so the env vars are ignored.
	cfg, err = Load(writeConfig(t, "llm:\n  provider: agent\n"))
	require.NoError(t, err)
	require.Empty(t, cfg.LLM.APIKey)
}
