package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, "127.0.0.1:8100", cfg.Agents.RouterAddr)
	assert.Equal(t, "http://127.0.0.1:8101", cfg.Agents.DataAgentURL)
	assert.Equal(t, 2, cfg.Peer.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Peer.Timeout)
	assert.Equal(t, "support.db", cfg.ToolHost.DBPath)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
oracle:
  provider: anthropic
  model: claude-3-5-haiku-latest
agents:
  data_agent_url: http://10.0.0.5:9101
peer:
  max_attempts: 4
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Oracle.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Oracle.Model)
	assert.Equal(t, "http://10.0.0.5:9101", cfg.Agents.DataAgentURL)
	assert.Equal(t, 4, cfg.Peer.MaxAttempts)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, "127.0.0.1:8102", cfg.Agents.SupportAddr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SUPPORTMESH_ORACLE_PROVIDER", "none")
	t.Setenv("SUPPORTMESH_ORACLE_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Oracle.Provider)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
