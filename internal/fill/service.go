// Package fill runs the end-to-end flows: transcript to filled PDF form,
// and transcript to rendered LaTeX document.
package fill

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/fireform/internal/extract"
	"github.com/jackzampolin/fireform/internal/form"
	"github.com/jackzampolin/fireform/internal/providers"
	"github.com/jackzampolin/fireform/internal/render"
)

// ErrTemplateNotFound is returned when the PDF or LaTeX template is missing.
var ErrTemplateNotFound = errors.New("template not found")

// FilledSuffix is appended to the form name for the default output path.
const FilledSuffix = "_filled.pdf"

// ClientSource provides the inference client for each run.
// *providers.Registry implements it.
type ClientSource interface {
	Current() providers.LLMClient
}

// Config configures a Service.
type Config struct {
	Clients  ClientSource
	Compiler render.Compiler
	Passes   int
	Logger   *slog.Logger
}

// Service wires extraction to the form binder and the LaTeX renderer.
type Service struct {
	clients  ClientSource
	compiler render.Compiler
	passes   int
	logger   *slog.Logger
}

// NewService creates a Service. Compiler may be nil if Render is not used.
func NewService(cfg Config) (*Service, error) {
	if cfg.Clients == nil {
		return nil, fmt.Errorf("client source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		clients:  cfg.Clients,
		compiler: cfg.Compiler,
		passes:   cfg.Passes,
		logger:   logger,
	}, nil
}

// Request describes a PDF fill.
type Request struct {
	Transcript string
	Fields     []string
	PDFPath    string
	// OutputPath defaults to <PDFPath without .pdf>_filled.pdf.
	OutputPath string
}

// Result is the outcome of a fill or render.
type Result struct {
	Record     *extract.Record
	OutputPath string
}

// Extract runs extraction only.
func (s *Service) Extract(ctx context.Context, transcript string, fields []string) (*extract.Record, error) {
	e, err := extract.New(extract.Config{Client: s.clients.Current(), Logger: s.logger})
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, transcript, fields)
}

// FillPDF extracts the fields from the transcript and binds them onto the
// form's widgets in reading order. The widget count is checked against the
// field count before any model call; the output is written only after a
// successful bind.
func (s *Service) FillPDF(ctx context.Context, req Request) (*Result, error) {
	if err := extract.ValidateFields(req.Fields); err != nil {
		return nil, err
	}

	doc, err := s.openForm(req.PDFPath)
	if err != nil {
		return nil, err
	}
	widgets := doc.Widgets()
	if len(widgets) != len(req.Fields) {
		return nil, &form.CountMismatchError{Values: len(req.Fields), Widgets: len(widgets)}
	}

	record, err := s.Extract(ctx, req.Transcript, req.Fields)
	if err != nil {
		return nil, err
	}

	out, err := s.bindAndSave(doc, widgets, record, req.OutputPath)
	if err != nil {
		return nil, err
	}
	return &Result{Record: record, OutputPath: out}, nil
}

// FillRecord binds an existing record onto a form without extraction.
func (s *Service) FillRecord(record *extract.Record, pdfPath, outputPath string) (string, error) {
	doc, err := s.openForm(pdfPath)
	if err != nil {
		return "", err
	}
	return s.bindAndSave(doc, doc.Widgets(), record, outputPath)
}

// RenderRequest describes a LaTeX render.
type RenderRequest struct {
	Transcript   string
	Fields       []string
	TemplatePath string
	OutputName   string
	OutputDir    string
}

// Render extracts the fields and renders them through a LaTeX template.
func (s *Service) Render(ctx context.Context, req RenderRequest) (*Result, error) {
	if err := extract.ValidateFields(req.Fields); err != nil {
		return nil, err
	}
	gen, err := s.generator(req.TemplatePath)
	if err != nil {
		return nil, err
	}

	record, err := s.Extract(ctx, req.Transcript, req.Fields)
	if err != nil {
		return nil, err
	}

	out, err := gen.Generate(ctx, record, outputName(req.OutputName, req.TemplatePath), req.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Result{Record: record, OutputPath: out}, nil
}

// RenderRecord renders an existing record without extraction.
func (s *Service) RenderRecord(ctx context.Context, record *extract.Record, templatePath, name, outputDir string) (string, error) {
	gen, err := s.generator(templatePath)
	if err != nil {
		return "", err
	}
	return gen.Generate(ctx, record, outputName(name, templatePath), outputDir)
}

// DefaultOutputPath returns where FillPDF writes when no output is given.
func DefaultOutputPath(pdfPath string) string {
	ext := filepath.Ext(pdfPath)
	if strings.EqualFold(ext, ".pdf") {
		return strings.TrimSuffix(pdfPath, ext) + FilledSuffix
	}
	return pdfPath + FilledSuffix
}

func (s *Service) openForm(pdfPath string) (*form.Document, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, pdfPath)
		}
		return nil, fmt.Errorf("failed to stat form: %w", err)
	}
	return form.Open(pdfPath)
}

func (s *Service) bindAndSave(doc *form.Document, widgets []form.Widget, record *extract.Record, outputPath string) (string, error) {
	if err := form.BindRecord(record, widgets); err != nil {
		return "", err
	}
	if outputPath == "" {
		outputPath = DefaultOutputPath(doc.Path())
	}
	if err := doc.Save(outputPath); err != nil {
		return "", err
	}
	s.logger.Info("filled form", "form", doc.Path(), "output", outputPath, "widgets", len(widgets))
	return outputPath, nil
}

func (s *Service) generator(templatePath string) (*render.Generator, error) {
	if s.compiler == nil {
		return nil, fmt.Errorf("no latex compiler configured")
	}
	tmpl, err := render.LoadTemplate(templatePath)
	if err != nil {
		if errors.Is(err, render.ErrTemplateNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrTemplateNotFound, err)
		}
		return nil, err
	}
	return render.NewGenerator(render.Config{
		Template: tmpl,
		Compiler: s.compiler,
		Passes:   s.passes,
		Logger:   s.logger,
	})
}

func outputName(name, templatePath string) string {
	if name != "" {
		return name
	}
	base := filepath.Base(templatePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}
