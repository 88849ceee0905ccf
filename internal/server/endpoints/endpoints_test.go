package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/extract"
	"github.com/jackzampolin/fireform/internal/fill"
	"github.com/jackzampolin/fireform/internal/form"
	"github.com/jackzampolin/fireform/internal/home"
	"github.com/jackzampolin/fireform/internal/providers"
	"github.com/jackzampolin/fireform/internal/render"
	"github.com/jackzampolin/fireform/internal/svcctx"
	"github.com/jackzampolin/fireform/internal/templates"
)

type fakeCompiler struct{}

func (fakeCompiler) Compile(ctx context.Context, texPath, outputDir string) error {
	base := strings.TrimSuffix(filepath.Base(texPath), ".tex")
	return os.WriteFile(filepath.Join(outputDir, base+".pdf"), []byte("%PDF-1.4"), 0o644)
}

func newTestServices(t *testing.T, client providers.LLMClient) *svcctx.Services {
	t.Helper()

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatal(err)
	}
	store, err := templates.NewStore(h.TemplatesPath())
	if err != nil {
		t.Fatal(err)
	}
	registry := providers.NewRegistryWithClient(client)
	svc, err := fill.NewService(fill.Config{Clients: registry, Compiler: fakeCompiler{}})
	if err != nil {
		t.Fatal(err)
	}
	return &svcctx.Services{
		Registry:  registry,
		Fill:      svc,
		Templates: store,
		Home:      h,
	}
}

// serve routes one request through every endpoint with services attached.
func serve(t *testing.T, s *svcctx.Services, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	reg := api.NewRegistry()
	for _, ep := range All() {
		reg.Register(ep)
	}
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc { return h })

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(svcctx.WithServices(req.Context(), s))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServices(t, providers.NewMockClient())
	rec := serve(t, s, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decode[HealthResponse](t, rec); resp.Status != "ok" {
		t.Errorf("Status = %q", resp.Status)
	}
}

func TestReady(t *testing.T) {
	t.Run("client without health check", func(t *testing.T) {
		s := newTestServices(t, providers.NewMockClient())
		rec := serve(t, s, "GET", "/ready", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unreachable service", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer backend.Close()

		s := newTestServices(t, providers.NewOllamaClient(providers.OllamaConfig{BaseURL: backend.URL}))
		rec := serve(t, s, "GET", "/ready", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d", rec.Code)
		}
		if resp := decode[HealthResponse](t, rec); resp.LLM != "unreachable" {
			t.Errorf("LLM = %q", resp.LLM)
		}
	})
}

func TestStatus(t *testing.T) {
	s := newTestServices(t, providers.NewMockClient())
	rec := serve(t, s, "GET", "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[StatusResponse](t, rec)
	if resp.LLM.Provider != providers.MockClientName {
		t.Errorf("LLM.Provider = %q", resp.LLM.Provider)
	}
	if resp.Templates.Dir != s.Templates.Dir() || resp.Templates.Count != 0 {
		t.Errorf("Templates = %+v", resp.Templates)
	}
}

func TestExtract(t *testing.T) {
	mock := &providers.MockClient{Responses: []string{"Jane Roe", "Ann; Bob", "-1"}}
	s := newTestServices(t, mock)

	rec := serve(t, s, "POST", "/api/extract", ExtractRequest{
		Transcript: "Officer Jane Roe. Witnesses Ann and Bob.",
		Fields:     []string{"officer", "witnesses", "badge"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	want := `{"record":{"officer":"Jane Roe","witnesses":["Ann","Bob"],"badge":null}}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("RequestCount() = %d, want 3", mock.RequestCount())
	}
}

func TestExtract_FromTemplate(t *testing.T) {
	mock := &providers.MockClient{ResponseText: "x"}
	s := newTestServices(t, mock)
	if _, err := s.Templates.Save(&templates.Template{ID: "incident", Name: "Incident", Fields: []string{"a", "b"}, PDF: "incident.pdf"}); err != nil {
		t.Fatal(err)
	}

	rec := serve(t, s, "POST", "/api/extract", ExtractRequest{Transcript: "t", TemplateID: "incident"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[ExtractResponse](t, rec)
	if got := resp.Record.Fields(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("fields = %v", got)
	}
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mock   *providers.MockClient
		body   any
		status int
		calls  int64
	}{
		{"empty fields", providers.NewMockClient(), ExtractRequest{Transcript: "t"}, http.StatusBadRequest, 0},
		{"duplicate fields", providers.NewMockClient(), ExtractRequest{Transcript: "t", Fields: []string{"a", "a"}}, http.StatusBadRequest, 0},
		{"unknown template", providers.NewMockClient(), ExtractRequest{Transcript: "t", TemplateID: "nope"}, http.StatusNotFound, 0},
		{"malformed body", providers.NewMockClient(), `{"transcript":`, http.StatusBadRequest, 0},
		{"unknown body field", providers.NewMockClient(), `{"transcript":"t","fields":["a"],"extra":1}`, http.StatusBadRequest, 0},
		{"model failure", &providers.MockClient{ShouldFail: true}, ExtractRequest{Transcript: "t", Fields: []string{"a", "b"}}, http.StatusBadGateway, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServices(t, tt.mock)
			rec := serve(t, s, "POST", "/api/extract", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if resp := decode[ErrorResponse](t, rec); resp.Error == "" {
				t.Error("missing error message")
			}
			if got := tt.mock.RequestCount(); got != tt.calls {
				t.Errorf("RequestCount() = %d, want %d", got, tt.calls)
			}
		})
	}
}

func TestFill_Errors(t *testing.T) {
	mock := providers.NewMockClient()
	s := newTestServices(t, mock)
	if _, err := s.Templates.Save(&templates.Template{ID: "letter", Name: "Letter", Fields: []string{"a"}, LaTeX: "letter.tex"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		req    FillRequest
		status int
	}{
		{"no form", FillRequest{Transcript: "t", Fields: []string{"a"}}, http.StatusBadRequest},
		{"missing form", FillRequest{Transcript: "t", Fields: []string{"a"}, PDFPath: filepath.Join(t.TempDir(), "x.pdf")}, http.StatusNotFound},
		{"template without pdf", FillRequest{Transcript: "t", TemplateID: "letter"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, s, "POST", "/api/fill", tt.req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
	if mock.RequestCount() != 0 {
		t.Errorf("RequestCount() = %d, want 0", mock.RequestCount())
	}
}

func TestRender_FromTemplate(t *testing.T) {
	mock := &providers.MockClient{Responses: []string{"Jane Roe"}}
	s := newTestServices(t, mock)

	tex := filepath.Join(s.Templates.Dir(), "letter.tex")
	if err := os.WriteFile(tex, []byte(`Dear \VAR{escape .name}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Templates.Save(&templates.Template{ID: "letter", Name: "Letter", Fields: []string{"name"}, LaTeX: "letter.tex"}); err != nil {
		t.Fatal(err)
	}

	rec := serve(t, s, "POST", "/api/render", RenderRequest{Transcript: "t", TemplateID: "letter"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[RenderResponse](t, rec)
	if resp.OutputPath != s.Home.OutputPath("letter.pdf") {
		t.Errorf("OutputPath = %q", resp.OutputPath)
	}
	if _, err := os.Stat(resp.OutputPath); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestTemplatesCRUD(t *testing.T) {
	s := newTestServices(t, providers.NewMockClient())

	rec := serve(t, s, "POST", "/api/templates/incident", templates.Template{
		Name:   "Incident report",
		Fields: []string{"officer", "date"},
		PDF:    "incident.pdf",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	saved := decode[templates.Template](t, rec)
	if saved.ID != "incident" || saved.CreatedAt.IsZero() {
		t.Errorf("saved = %+v", saved)
	}

	// Replacing keeps the creation time.
	rec = serve(t, s, "POST", "/api/templates/incident", templates.Template{
		Name:   "Incident report v2",
		Fields: []string{"officer"},
		PDF:    "incident.pdf",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("replace status = %d: %s", rec.Code, rec.Body.String())
	}
	if replaced := decode[templates.Template](t, rec); !replaced.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", saved.CreatedAt, replaced.CreatedAt)
	}

	rec = serve(t, s, "GET", "/api/templates", nil)
	if list := decode[ListTemplatesResponse](t, rec); len(list.Templates) != 1 || list.Templates[0].Name != "Incident report v2" {
		t.Errorf("list = %+v", list)
	}

	rec = serve(t, s, "GET", "/api/templates/incident", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = serve(t, s, "DELETE", "/api/templates/incident", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = serve(t, s, "GET", "/api/templates/incident", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}

	rec = serve(t, s, "POST", "/api/templates/bad", templates.Template{Name: "Bad", PDF: "x.pdf"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid save status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestModels(t *testing.T) {
	t.Run("client cannot list", func(t *testing.T) {
		s := newTestServices(t, providers.NewMockClient())
		rec := serve(t, s, "GET", "/api/models", nil)
		if rec.Code != http.StatusNotImplemented {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("ollama", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/tags" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, `{"models":[{"name":"mistral:latest","size":4100000000,"details":{"family":"llama","parameter_size":"7B"}}]}`)
		}))
		defer backend.Close()

		s := newTestServices(t, providers.NewOllamaClient(providers.OllamaConfig{BaseURL: backend.URL, Model: "mistral"}))
		rec := serve(t, s, "GET", "/api/models", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		resp := decode[ModelsResponse](t, rec)
		if len(resp.Models) != 1 || resp.Models[0].Name != "mistral:latest" || resp.Models[0].Parameters != "7B" {
			t.Errorf("models = %+v", resp.Models)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("x: %w", extract.ErrInvalidInput), http.StatusBadRequest},
		{"duplicate", &extract.DuplicateFieldError{Field: "a", Index: 1}, http.StatusBadRequest},
		{"template missing", fmt.Errorf("%w: x.pdf", fill.ErrTemplateNotFound), http.StatusNotFound},
		{"count mismatch", &form.CountMismatchError{Values: 2, Widgets: 3}, http.StatusUnprocessableEntity},
		{"compile", &render.CompileError{Err: errors.New("exit 1")}, http.StatusUnprocessableEntity},
		{"model", &extract.FieldError{Field: "a", Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"timeout", &extract.FieldError{Field: "a", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSwagger(t *testing.T) {
	s := newTestServices(t, providers.NewMockClient())
	rec := serve(t, s, "GET", "/swagger.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	spec := decode[map[string]any](t, rec)
	paths, _ := spec["paths"].(map[string]any)
	for _, ep := range All() {
		_, path, _ := ep.Route()
		if strings.HasPrefix(path, "/swagger") {
			continue
		}
		if _, ok := paths[path]; !ok {
			t.Errorf("swagger.json missing path %s", path)
		}
	}
}
