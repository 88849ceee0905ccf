package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestOllamaClient_Generate(t *testing.T) {
	t.Run("successful generate", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if r.URL.Path != "/api/generate" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type: %s", ct)
			}

			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if req["model"] != "mistral" {
				t.Errorf("model = %v, want mistral", req["model"])
			}
			if req["prompt"] != "hello" {
				t.Errorf("prompt = %v, want hello", req["prompt"])
			}
			if stream, ok := req["stream"].(bool); !ok || stream {
				t.Errorf("stream = %v, want false", req["stream"])
			}
			if _, ok := req["options"]; ok {
				t.Error("options sent without temperature")
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"model":             "mistral",
				"response":          " John Doe ",
				"done":              true,
				"prompt_eval_count": 12,
				"eval_count":        3,
			})
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL + "/"})
		result, err := client.Generate(context.Background(), "hello")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if result.Text != " John Doe " {
			t.Errorf("Text = %q, want raw reply", result.Text)
		}
		if result.Provider != OllamaName {
			t.Errorf("Provider = %q", result.Provider)
		}
		if result.PromptTokens != 12 || result.CompletionTokens != 3 {
			t.Errorf("tokens = %d/%d, want 12/3", result.PromptTokens, result.CompletionTokens)
		}
		if result.RequestID == "" {
			t.Error("expected request id")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})

	t.Run("temperature option", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req ollamaGenerateRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Options["temperature"] != 0.0 {
				t.Errorf("temperature = %v, want 0", req.Options["temperature"])
			}
			json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
		}))
		defer server.Close()

		temp := 0.0
		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL, Temperature: &temp})
		if _, err := client.Generate(context.Background(), "x"); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	})

	t.Run("empty response is not malformed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":""}`))
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		result, err := client.Generate(context.Background(), "x")
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if result.Text != "" {
			t.Errorf("Text = %q, want empty", result.Text)
		}
	})

	t.Run("missing response field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"model":"mistral","done":true}`))
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		_, err := client.Generate(context.Background(), "x")
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		_, err := client.Generate(context.Background(), "x")
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("error = %v, want ErrMalformedResponse", err)
		}
	})

	t.Run("non-2xx is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"model not loaded"}`))
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		_, err := client.Generate(context.Background(), "x")

		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("error = %v, want *StatusError", err)
		}
		if statusErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d", statusErr.StatusCode)
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: url})
		if _, err := client.Generate(context.Background(), "x"); err == nil {
			t.Error("expected error for closed server")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		// The server only notices a client disconnect once the body is read,
		// so the handler also waits on release.
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			select {
			case <-r.Context().Done():
			case <-release:
			}
		}))
		defer server.Close()
		defer close(release)

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if _, err := client.Generate(ctx, "x"); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want deadline exceeded", err)
		}
	})
}

func TestOllamaClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"models":[
			{"name":"mistral:latest","size":4109865159,"details":{"family":"llama","parameter_size":"7.2B"}},
			{"name":"llama3:8b","size":4661224676,"details":{"family":"llama","parameter_size":"8.0B"}}
		]}`))
	}))
	defer server.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}
	if models[0].Name != "mistral:latest" || models[0].Parameters != "7.2B" {
		t.Errorf("models[0] = %+v", models[0])
	}
}

func TestOllamaClient_WaitReady(t *testing.T) {
	t.Run("ready after failures", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"version":"0.5.0"}`))
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		if err := client.WaitReady(context.Background(), 5*time.Second); err != nil {
			t.Fatalf("WaitReady() error = %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("calls = %d, want 2", calls.Load())
		}
	})

	t.Run("gives up", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewOllamaClient(OllamaConfig{BaseURL: server.URL})
		if err := client.WaitReady(context.Background(), time.Second); err == nil {
			t.Error("expected error")
		}
	})
}

func TestOllamaClient_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
	cfg := LoadTestConfig()
	if !cfg.HasOllama() {
		t.Skip("FIREFORM_TEST_OLLAMA_URL not set")
	}

	client := cfg.NewOllamaFromTestConfig()
	result, err := client.Generate(context.Background(), "Reply with the single word: ok")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	t.Logf("reply: %q (%s)", result.Text, result.ExecutionTime)
}
