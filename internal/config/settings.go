package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RelayConfig holds the per-request budgets the relay enforces.
type RelayConfig struct {
	// InvokeTimeout bounds a single-shot LLM call.
	InvokeTimeout time.Duration `mapstructure:"invoke_timeout"`
	// StreamTimeout bounds the wait for the next streamed fragment.
	StreamTimeout time.Duration `mapstructure:"stream_timeout"`
	// MaxMessageLen is the maximum inbound message length in runes.
	MaxMessageLen int `mapstructure:"max_message_len"`
}

type OllamaConfig struct {
	URLs  []string `mapstructure:"urls"`
	Model string   `mapstructure:"model"`
}

type AssistantConfig struct {
	Provider     string       `mapstructure:"provider"` // "openai" | "ollama"
	OpenAiApiKey string       `mapstructure:"open_ai_api_key"`
	OpenAiModel  string       `mapstructure:"open_ai_model"`
	Ollama       OllamaConfig `mapstructure:"ollama"`
}

type Settings struct {
	Server    ServerConfig    `mapstructure:"server"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Env       string          `mapstructure:"env"`
	Debug     bool            `mapstructure:"debug" default:"false"`
}

func Load() (*Settings, error) {
	// Load settings from a configuration file or environment variables
	viper.SetConfigName("config_" + genEnv())
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	settings.applyDefaults()
	return &settings, nil
}

func (s *Settings) applyDefaults() {
	if s.Server.Port == 0 {
		s.Server.Port = 8080
	}
	if s.Relay.InvokeTimeout == 0 {
		s.Relay.InvokeTimeout = 60 * time.Second
	}
	if s.Relay.StreamTimeout == 0 {
		s.Relay.StreamTimeout = 120 * time.Second
	}
	if s.Relay.MaxMessageLen == 0 {
		s.Relay.MaxMessageLen = 8000
	}
}

func genEnv() string {
	env := viper.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
