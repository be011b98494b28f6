package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Agent        AgentConfig        `mapstructure:"agent"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Kubernetes   KubernetesConfig   `mapstructure:"kubernetes"`
	AlertManager AlertManagerConfig `mapstructure:"alertmanager"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// BackendConfig points at the bundle backend that indexes support bundles on
// disk and serves them as structured JSON.
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgentConfig points at the local agent server used for AI analysis.
type AgentConfig struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

type CacheConfig struct {
	Path string `mapstructure:"path"`
}

type KubernetesConfig struct {
	Kubeconfig string `mapstructure:"kubeconfig"`
	Context    string `mapstructure:"context"`
}

type AlertManagerConfig struct {
	URL string `mapstructure:"url"`
}

type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	BufferCapacity int    `mapstructure:"buffer_capacity"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("backend.url", "http://127.0.0.1:8790")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("agent.url", "http://127.0.0.1:8765")
	v.SetDefault("agent.timeout", "120s")
	v.SetDefault("agent.health_timeout", "3s")
	v.SetDefault("llm.provider", "agent")
	v.SetDefault("llm.model", "claude-sonnet-4-5")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("cache.path", "./bundlescope.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.buffer_capacity", 2000)

	// Read from environment variables
	v.SetEnvPrefix("BUNDLESCOPE")
	v.AutomaticEnv()

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Override with environment variable if set
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && config.LLM.Provider == "anthropic" {
		config.LLM.APIKey = apiKey
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.Provider == "openai" {
		config.LLM.APIKey = apiKey
	}

	return &config, nil
}
