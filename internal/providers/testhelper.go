package providers

import (
	"os"
)

// TestConfig holds live service settings loaded from environment variables.
// This allows tests to use the same configuration pattern as production.
type TestConfig struct {
	OllamaURL   string
	OllamaModel string
}

// LoadTestConfig loads live service settings from environment variables.
func LoadTestConfig() TestConfig {
	cfg := TestConfig{
		OllamaURL:   os.Getenv("FIREFORM_TEST_OLLAMA_URL"),
		OllamaModel: os.Getenv("FIREFORM_TEST_OLLAMA_MODEL"),
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = OllamaDefaultModel
	}
	return cfg
}

// HasOllama returns true if a live Ollama server is configured.
func (c TestConfig) HasOllama() bool {
	return c.OllamaURL != ""
}

// NewOllamaFromTestConfig creates an Ollama client for the configured server.
func (c TestConfig) NewOllamaFromTestConfig() *OllamaClient {
	return NewOllamaClient(OllamaConfig{
		BaseURL: c.OllamaURL,
		Model:   c.OllamaModel,
	})
}
