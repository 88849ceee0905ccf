package config

import (
	"time"

	"github.com/jackzampolin/fireform/internal/providers"
)

// Config holds fireform configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
}

// LLMConfig selects the inference service used for extraction.
type LLMConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "ollama" or "openai"
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	// TimeoutSeconds bounds one request; 0 disables the timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// Temperature is sent only when set.
	Temperature *float64 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	// ReadyTimeoutSeconds is how long serve waits for the service at startup.
	ReadyTimeoutSeconds int `mapstructure:"ready_timeout_seconds" yaml:"ready_timeout_seconds"`
}

// RenderConfig configures LaTeX compilation.
type RenderConfig struct {
	Engine string `mapstructure:"engine" yaml:"engine"` // "local" or "docker"
	Binary string `mapstructure:"binary" yaml:"binary"`
	Image  string `mapstructure:"image" yaml:"image"` // Docker image (engine: docker)
	Passes int    `mapstructure:"passes" yaml:"passes"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:            "ollama",
			BaseURL:             "http://localhost:11434",
			Model:               "mistral",
			APIKey:              "${OPENAI_API_KEY}",
			TimeoutSeconds:      0,
			ReadyTimeoutSeconds: 30,
		},
		Render: RenderConfig{
			Engine: "local",
			Binary: "pdflatex",
			Image:  "texlive/texlive:latest",
			Passes: 2,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}

// ToProviderConfig converts the llm section for providers.New, resolving
// ${ENV_VAR} references in the API key.
func (c *Config) ToProviderConfig() providers.Config {
	return providers.Config{
		Provider:    c.LLM.Provider,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		APIKey:      ResolveEnvVars(c.LLM.APIKey),
		Timeout:     time.Duration(c.LLM.TimeoutSeconds) * time.Second,
		Temperature: c.LLM.Temperature,
	}
}

// ReadyTimeout returns how long to wait for the inference service at startup.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.LLM.ReadyTimeoutSeconds) * time.Second
}
