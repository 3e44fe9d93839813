// Package config handles configuration loading for the support mesh. It
// supports a YAML config file, environment variable overrides, and built-in
// defaults good enough for a local mesh.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the mesh binaries.
type Config struct {
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Agents   AgentsConfig   `mapstructure:"agents"`
	Peer     PeerConfig     `mapstructure:"peer"`
	ToolHost ToolHostConfig `mapstructure:"toolhost"`
	Log      LogConfig      `mapstructure:"log"`
}

// OracleConfig selects and configures the language model provider.
type OracleConfig struct {
	// Provider is openai, anthropic, or none (keyword fallback only).
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// AgentsConfig holds the listen addresses and peer endpoints of the three
// agents.
type AgentsConfig struct {
	RouterAddr      string `mapstructure:"router_addr"`
	DataAddr        string `mapstructure:"data_addr"`
	SupportAddr     string `mapstructure:"support_addr"`
	DataAgentURL    string `mapstructure:"data_agent_url"`
	SupportAgentURL string `mapstructure:"support_agent_url"`
	RouterURL       string `mapstructure:"router_url"`
}

// PeerConfig tunes the agent-to-agent HTTP transport.
type PeerConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// ToolHostConfig configures the database tool host subprocess.
type ToolHostConfig struct {
	// Command and Args spawn the tool host; by default the mesh re-executes
	// its own binary with the toolhost subcommand.
	Command     string        `mapstructure:"command"`
	Args        []string      `mapstructure:"args"`
	DBPath      string        `mapstructure:"db_path"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("oracle.provider", "openai")
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.base_url", "")
	v.SetDefault("oracle.retry_delay", 3*time.Second)

	v.SetDefault("agents.router_addr", "127.0.0.1:8100")
	v.SetDefault("agents.data_addr", "127.0.0.1:8101")
	v.SetDefault("agents.support_addr", "127.0.0.1:8102")
	v.SetDefault("agents.router_url", "http://127.0.0.1:8100")
	v.SetDefault("agents.data_agent_url", "http://127.0.0.1:8101")
	v.SetDefault("agents.support_agent_url", "http://127.0.0.1:8102")

	v.SetDefault("peer.timeout", 30*time.Second)
	v.SetDefault("peer.max_attempts", 2)
	v.SetDefault("peer.retry_delay", 500*time.Millisecond)

	v.SetDefault("toolhost.db_path", "support.db")
	v.SetDefault("toolhost.call_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration with the following precedence, highest first:
// SUPPORTMESH_* environment variables, the config file at path (when path is
// not empty), built-in defaults. The oracle API key can also come from the
// provider's usual variable (OPENAI_API_KEY or ANTHROPIC_API_KEY).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SUPPORTMESH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("oracle.api_key", "SUPPORTMESH_ORACLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
