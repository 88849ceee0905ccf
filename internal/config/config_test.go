package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "ollama" {
		t.Errorf("LLM.Provider = %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected openai API key placeholder")
	}
	if cfg.Render.Passes != 2 {
		t.Errorf("Render.Passes = %d, want 2", cfg.Render.Passes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})

	t.Run("expands inside a larger string", func(t *testing.T) {
		t.Setenv("TEST_HOST", "gpu-box")
		result := ResolveEnvVars("http://${TEST_HOST}:11434")
		if result != "http://gpu-box:11434" {
			t.Errorf("got %s", result)
		}
	})
}

func TestConfig_ToProviderConfig(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-123")

	temp := 0.2
	cfg := DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "${TEST_OPENAI_KEY}"
	cfg.LLM.TimeoutSeconds = 90
	cfg.LLM.Temperature = &temp

	pc := cfg.ToProviderConfig()
	if pc.APIKey != "sk-123" {
		t.Errorf("APIKey = %q, want resolved key", pc.APIKey)
	}
	if pc.Timeout.Seconds() != 90 {
		t.Errorf("Timeout = %v", pc.Timeout)
	}
	if pc.Temperature == nil || *pc.Temperature != 0.2 {
		t.Errorf("Temperature = %v", pc.Temperature)
	}
	if pc.Provider != "openai" || pc.Model != "mistral" {
		t.Errorf("provider config = %+v", pc)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bogus" }, "llm.provider"},
		{"negative timeout", func(c *Config) { c.LLM.TimeoutSeconds = -1 }, "llm.timeout_seconds"},
		{"unknown engine", func(c *Config) { c.Render.Engine = "lualatex" }, "render.engine"},
		{"zero passes", func(c *Config) { c.Render.Passes = 0 }, "render.passes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.substr)
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewManager(t *testing.T) {
	t.Run("partial file merges with defaults", func(t *testing.T) {
		path := writeConfig(t, "llm:\n  model: llama3\nrender:\n  passes: 1\n")

		cm, err := NewManager(path)
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		cfg := cm.Get()
		if cfg.LLM.Model != "llama3" {
			t.Errorf("LLM.Model = %q, want llama3", cfg.LLM.Model)
		}
		if cfg.LLM.BaseURL != "http://localhost:11434" {
			t.Errorf("LLM.BaseURL = %q, want default", cfg.LLM.BaseURL)
		}
		if cfg.Render.Passes != 1 {
			t.Errorf("Render.Passes = %d, want 1", cfg.Render.Passes)
		}
		if cm.ConfigFile() != path {
			t.Errorf("ConfigFile() = %q", cm.ConfigFile())
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("FIREFORM_LLM_MODEL", "phi3")
		path := writeConfig(t, "llm:\n  model: llama3\n")

		cm, err := NewManager(path)
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if got := cm.Get().LLM.Model; got != "phi3" {
			t.Errorf("LLM.Model = %q, want phi3", got)
		}
	})

	t.Run("no file uses defaults", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		t.Setenv("HOME", dir)

		cm, err := NewManager("", filepath.Join(dir, "nope"))
		if err != nil {
			t.Fatalf("NewManager() error = %v", err)
		}
		if cm.Get().LLM.Model != DefaultConfig().LLM.Model {
			t.Errorf("expected default model, got %q", cm.Get().LLM.Model)
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := writeConfig(t, "render:\n  engine: cloud\n")
		if _, err := NewManager(path); err == nil {
			t.Error("expected error for unknown engine")
		}
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		path := writeConfig(t, "llm: [unclosed\n")
		if _, err := NewManager(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

func TestManager_Entries(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"9090\"\n")
	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	entries := cm.Entries()
	if len(entries) != len(DefaultEntries()) {
		t.Fatalf("Entries() returned %d, want %d", len(entries), len(DefaultEntries()))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key > entries[i].Key {
			t.Fatalf("entries not sorted: %s before %s", entries[i-1].Key, entries[i].Key)
		}
	}

	e, err := cm.Lookup("server.port")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if e.Value != "9090" {
		t.Errorf("server.port = %v, want 9090", e.Value)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# FireForm configuration") {
		t.Error("missing header")
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() on written default error = %v", err)
	}
	if cm.Get().Server.Port != "8080" {
		t.Errorf("Server.Port = %q", cm.Get().Server.Port)
	}
}
