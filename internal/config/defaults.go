package config

import (
	"errors"
	"fmt"
	"sort"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry represents a single configuration key.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every known configuration key with its default
// value. The manager registers these as viper defaults.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// ===================
		// Inference service
		// ===================
		{
			Key:         "llm.provider",
			Value:       d.LLM.Provider,
			Description: `Inference client: "ollama" (native /api/generate) or "openai" (chat completions)`,
		},
		{
			Key:         "llm.base_url",
			Value:       d.LLM.BaseURL,
			Description: "Base URL of the inference service",
		},
		{
			Key:         "llm.model",
			Value:       d.LLM.Model,
			Description: "Model used for every field",
		},
		{
			Key:         "llm.api_key",
			Value:       d.LLM.APIKey,
			Description: "API key for openai-compatible services (uses environment variable)",
		},
		{
			Key:         "llm.timeout_seconds",
			Value:       d.LLM.TimeoutSeconds,
			Description: "HTTP timeout in seconds for one generation request (0 = none)",
		},
		{
			Key:         "llm.ready_timeout_seconds",
			Value:       d.LLM.ReadyTimeoutSeconds,
			Description: "Seconds serve waits for the inference service at startup",
		},

		// ===================
		// LaTeX rendering
		// ===================
		{
			Key:         "render.engine",
			Value:       d.Render.Engine,
			Description: `Where LaTeX runs: "local" or "docker"`,
		},
		{
			Key:         "render.binary",
			Value:       d.Render.Binary,
			Description: "LaTeX compiler binary",
		},
		{
			Key:         "render.image",
			Value:       d.Render.Image,
			Description: "TeX Live image for the docker engine",
		},
		{
			Key:         "render.passes",
			Value:       d.Render.Passes,
			Description: "Compiler passes per document (2 resolves cross-references)",
		},

		// ===================
		// HTTP server
		// ===================
		{
			Key:         "server.host",
			Value:       d.Server.Host,
			Description: "Address the server binds to",
		},
		{
			Key:         "server.port",
			Value:       d.Server.Port,
			Description: "Port the server listens on",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}
