package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jackzampolin/fireform/internal/extract"
)

// Config configures a Generator.
type Config struct {
	Template *Template
	Compiler Compiler
	// Passes is how many times the compiler runs; cross-references need two.
	Passes int
	Logger *slog.Logger
}

// Generator fills a LaTeX template with a record and compiles it to PDF.
type Generator struct {
	template *Template
	compiler Compiler
	passes   int
	logger   *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Template == nil {
		return nil, fmt.Errorf("template is required")
	}
	if cfg.Compiler == nil {
		return nil, fmt.Errorf("compiler is required")
	}
	if cfg.Passes <= 0 {
		cfg.Passes = DefaultPasses
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		template: cfg.Template,
		compiler: cfg.Compiler,
		passes:   cfg.Passes,
		logger:   logger,
	}, nil
}

// Generate renders the record, compiles it in outputDir and returns the path
// of outputName there. Intermediate .tex, .aux and .log files are always
// removed.
func (g *Generator) Generate(ctx context.Context, record *extract.Record, outputName, outputDir string) (string, error) {
	if outputName == "" {
		return "", fmt.Errorf("output name is required")
	}
	if !strings.HasSuffix(strings.ToLower(outputName), ".pdf") {
		outputName += ".pdf"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := "fireform-" + uuid.New().String()
	texPath := filepath.Join(outputDir, base+".tex")
	tmpPDF := filepath.Join(outputDir, base+".pdf")
	finalPDF := filepath.Join(outputDir, outputName)

	defer g.cleanup(outputDir, base)

	f, err := os.Create(texPath)
	if err != nil {
		return "", fmt.Errorf("failed to write tex file: %w", err)
	}
	if err := g.template.Execute(f, record); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write tex file: %w", err)
	}

	g.logger.Info("compiling latex", "template", g.template.Name(), "passes", g.passes)
	for pass := 1; pass <= g.passes; pass++ {
		if err := g.compiler.Compile(ctx, texPath, outputDir); err != nil {
			g.logger.Error("latex compilation failed", "pass", pass, "error", err)
			return "", err
		}
	}

	if err := os.Rename(tmpPDF, finalPDF); err != nil {
		return "", fmt.Errorf("failed to move compiled pdf: %w", err)
	}

	g.logger.Info("rendered pdf", "path", finalPDF)
	return finalPDF, nil
}

func (g *Generator) cleanup(dir, base string) {
	// The .pdf is only present here when the run failed before the rename.
	for _, ext := range []string{".aux", ".log", ".tex", ".out", ".pdf"} {
		path := filepath.Join(dir, base+ext)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			g.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}
}
