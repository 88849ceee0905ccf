package providers

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
		wantErr  bool
	}{
		{"", OllamaName, false},
		{"ollama", OllamaName, false},
		{"openai", OpenAIName, false},
		{"mock", MockClientName, false},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			client, err := New(Config{Provider: tt.provider})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if client.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", client.Name(), tt.wantName)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Run("reload swaps client on change", func(t *testing.T) {
		r, err := NewRegistry(Config{Provider: "ollama", Model: "mistral"}, nil)
		if err != nil {
			t.Fatalf("NewRegistry() error = %v", err)
		}
		before := r.Current()

		if err := r.Reload(Config{Provider: "ollama", Model: "mistral"}); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
		if r.Current() != before {
			t.Error("client replaced without config change")
		}

		if err := r.Reload(Config{Provider: "ollama", Model: "llama3"}); err != nil {
			t.Fatalf("Reload() error = %v", err)
		}
		if r.Current() == before {
			t.Error("client not replaced after model change")
		}
		if got := r.Current().(*OllamaClient).Model(); got != "llama3" {
			t.Errorf("Model() = %q, want llama3", got)
		}
	})

	t.Run("temperature change", func(t *testing.T) {
		a, b := 0.0, 0.5
		if needsUpdate(Config{Temperature: &a}, Config{Temperature: &a}) {
			t.Error("same temperature reported as change")
		}
		if !needsUpdate(Config{Temperature: &a}, Config{Temperature: &b}) {
			t.Error("different temperature not reported")
		}
		if !needsUpdate(Config{}, Config{Timeout: time.Second}) {
			t.Error("timeout change not reported")
		}
	})

	t.Run("failed reload keeps client", func(t *testing.T) {
		mock := NewMockClient()
		r := NewRegistryWithClient(mock)
		if err := r.Reload(Config{Provider: "bogus"}); err == nil {
			t.Fatal("expected error")
		}
		if r.Current() != mock {
			t.Error("client replaced after failed reload")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistryWithClient(NewMockClient())
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = r.Current()
			}()
			go func(i int) {
				defer wg.Done()
				_ = r.Reload(Config{Provider: "mock", Model: string(rune('a' + i%26))})
			}(i)
		}
		wg.Wait()
	})
}

func TestMockClient(t *testing.T) {
	t.Run("scripted responses", func(t *testing.T) {
		mock := &MockClient{Responses: []string{"one", "two"}, ResponseText: "rest"}
		ctx := context.Background()

		for _, want := range []string{"one", "two", "rest"} {
			result, err := mock.Generate(ctx, "p")
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if result.Text != want {
				t.Errorf("Text = %q, want %q", result.Text, want)
			}
		}
		if mock.RequestCount() != 3 {
			t.Errorf("RequestCount() = %d, want 3", mock.RequestCount())
		}
		if got := mock.Prompts(); len(got) != 3 {
			t.Errorf("Prompts() = %v", got)
		}
	})

	t.Run("fail after", func(t *testing.T) {
		mock := NewMockClient()
		mock.FailAfter = 1
		ctx := context.Background()

		if _, err := mock.Generate(ctx, "p"); err != nil {
			t.Fatalf("first call error = %v", err)
		}
		if _, err := mock.Generate(ctx, "p"); err == nil {
			t.Error("expected failure on second call")
		}
	})

	t.Run("reset", func(t *testing.T) {
		mock := NewMockClient()
		mock.Generate(context.Background(), "p")
		mock.Reset()
		if mock.RequestCount() != 0 || len(mock.Prompts()) != 0 {
			t.Error("Reset() did not clear state")
		}
	})
}
