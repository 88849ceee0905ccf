package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackzampolin/fireform/internal/providers"
)

// Config configures an Extractor.
type Config struct {
	Client providers.LLMClient
	Logger *slog.Logger
}

// Extractor builds a Record by asking the model for one field at a time.
type Extractor struct {
	client providers.LLMClient
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client: cfg.Client,
		logger: logger,
	}, nil
}

// Extract queries the model once per field, in order, and returns the
// normalized values as a Record with exactly one entry per field.
//
// Input is validated before any model call. Calls are strictly sequential;
// the first failed call aborts the run and no partial record is returned.
func (e *Extractor) Extract(ctx context.Context, transcript string, fields []string) (*Record, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	if !utf8.ValidString(transcript) {
		return nil, fmt.Errorf("%w: transcript is not valid UTF-8", ErrInvalidInput)
	}

	start := time.Now()
	record := NewRecord()

	for i, field := range fields {
		if err := ctx.Err(); err != nil {
			return nil, &FieldError{Field: field, Err: err}
		}

		prompt := BuildPrompt(transcript, field)
		e.logger.Debug("sending prompt", "prompt", PromptKey, "field", field, "chars", len(prompt))

		result, err := e.client.Generate(ctx, prompt)
		if err != nil {
			e.logger.Error("extraction failed", "field", field, "index", i, "error", err)
			return nil, &FieldError{Field: field, Err: err}
		}

		value := Normalize(result.Text)
		if err := record.Set(field, value); err != nil {
			return nil, err
		}

		e.logger.Info("extracted field",
			"field", field,
			"index", i+1,
			"total", len(fields),
			"kind", value.Kind().String(),
			"duration", result.ExecutionTime)
	}

	if dump, err := record.Indent(); err == nil {
		e.logger.Info("extraction complete",
			"fields", record.Len(),
			"duration", time.Since(start),
			"record", string(dump))
	}

	return record, nil
}

// ValidateFields checks a field list without calling the model: it must be
// non-empty, with no blank or repeated names.
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields requested", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("%w: blank field name at position %d", ErrInvalidInput, i)
		}
		if _, ok := seen[f]; ok {
			return &DuplicateFieldError{Field: f, Index: i}
		}
		seen[f] = struct{}{}
	}
	return nil
}
