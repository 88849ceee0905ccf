package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackzampolin/fireform/internal/providers"
)

func newTestExtractor(t *testing.T, client providers.LLMClient) *Extractor {
	t.Helper()
	e, err := New(Config{Client: client})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestExtractor_Extract(t *testing.T) {
	mock := &providers.MockClient{
		Responses: []string{"John Doe", "  -1  ", `"Ann"; Bob ; "Cy"`},
	}
	e := newTestExtractor(t, mock)

	fields := []string{"Employee's name", "Badge number", "Witnesses"}
	record, err := e.Extract(context.Background(), "John Doe reported...", fields)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	got := record.Fields()
	if len(got) != len(fields) {
		t.Fatalf("Fields() = %q, want %q", got, fields)
	}
	for i := range fields {
		if got[i] != fields[i] {
			t.Errorf("field %d = %q, want %q", i, got[i], fields[i])
		}
	}

	want := []Value{Scalar("John Doe"), Absent(), List("Ann", "Bob", "Cy")}
	for i, v := range record.Values() {
		if !v.Equal(want[i]) {
			t.Errorf("value %d = %v, want %v", i, v, want[i])
		}
	}

	if mock.RequestCount() != 3 {
		t.Errorf("RequestCount() = %d, want 3", mock.RequestCount())
	}
	for i, p := range mock.Prompts() {
		if !strings.Contains(p, "Target field: "+fields[i]) {
			t.Errorf("prompt %d does not target %q", i, fields[i])
		}
	}
}

func TestExtractor_InputValidation(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		fields     []string
		wantErr    error
	}{
		{"no fields", "text", nil, ErrInvalidInput},
		{"blank field", "text", []string{"a", "  "}, ErrInvalidInput},
		{"invalid utf8", "bad \xff bytes", []string{"a"}, ErrInvalidInput},
		{"duplicate", "text", []string{"a", "b", "a"}, ErrDuplicateField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := providers.NewMockClient()
			e := newTestExtractor(t, mock)

			record, err := e.Extract(context.Background(), tt.transcript, tt.fields)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if record != nil {
				t.Error("expected nil record")
			}
			if mock.RequestCount() != 0 {
				t.Errorf("RequestCount() = %d, want 0", mock.RequestCount())
			}
		})
	}
}

func TestExtractor_DuplicateIndex(t *testing.T) {
	e := newTestExtractor(t, providers.NewMockClient())
	_, err := e.Extract(context.Background(), "text", []string{"a", "b", "a"})

	var dup *DuplicateFieldError
	if !errors.As(err, &dup) {
		t.Fatalf("error = %v, want *DuplicateFieldError", err)
	}
	if dup.Field != "a" || dup.Index != 2 {
		t.Errorf("got %+v, want field a at 2", dup)
	}
}

func TestExtractor_EmptyTranscript(t *testing.T) {
	mock := providers.NewMockClient()
	e := newTestExtractor(t, mock)

	record, err := e.Extract(context.Background(), "", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, v := range record.Values() {
		if !v.IsAbsent() {
			t.Errorf("value = %v, want Absent", v)
		}
	}
}

func TestExtractor_ClientFailureAborts(t *testing.T) {
	mock := providers.NewMockClient()
	mock.FailAfter = 1
	e := newTestExtractor(t, mock)

	record, err := e.Extract(context.Background(), "text", []string{"a", "b", "c"})
	if record != nil {
		t.Error("expected no partial record")
	}

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FieldError", err)
	}
	if fe.Field != "b" {
		t.Errorf("Field = %q, want b", fe.Field)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("RequestCount() = %d, want 2 (no retry, no further calls)", mock.RequestCount())
	}
}

func TestExtractor_Cancelled(t *testing.T) {
	mock := providers.NewMockClient()
	e := newTestExtractor(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, "text", []string{"a"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("RequestCount() = %d, want 0", mock.RequestCount())
	}
}

func TestNew_RequiresClient(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without client")
	}
}
