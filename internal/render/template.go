package render

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/jackzampolin/fireform/internal/extract"
)

const (
	// LeftDelim and RightDelim mark template actions inside LaTeX source,
	// e.g. \VAR{field "Employee's name" | escape}.
	LeftDelim  = `\VAR{`
	RightDelim = `}`
)

// ErrTemplateNotFound is returned when a template file does not exist.
var ErrTemplateNotFound = errors.New("latex template not found")

// Template is a parsed LaTeX template.
type Template struct {
	name string
	tmpl *template.Template
}

// LoadTemplate reads and parses a .tex template file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return ParseTemplate(filepath.Base(path), string(data))
}

// ParseTemplate parses LaTeX source with \VAR{ } action delimiters.
func ParseTemplate(name, source string) (*Template, error) {
	tmpl, err := template.New(name).
		Delims(LeftDelim, RightDelim).
		Funcs(templateFuncs()).
		Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// Name returns the template's file name.
func (t *Template) Name() string {
	return t.name
}

// Execute renders the template with the record's values. Fields are
// available by name through index or the field function: absent values
// are empty strings and lists are []string.
func (t *Template) Execute(w io.Writer, record *extract.Record) error {
	data := Data(record)
	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone template: %w", err)
	}
	tmpl.Funcs(template.FuncMap{
		"field": func(name string) string {
			v, _ := record.Get(name)
			return v.Text()
		},
	})
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", t.name, err)
	}
	return nil
}

// Data converts a record into template data.
func Data(record *extract.Record) map[string]any {
	data := make(map[string]any, record.Len())
	for _, f := range record.Fields() {
		v, _ := record.Get(f)
		switch v.Kind() {
		case extract.KindList:
			items, _ := v.Items()
			data[f] = items
		case extract.KindScalar:
			s, _ := v.Scalar()
			data[f] = s
		default:
			data[f] = ""
		}
	}
	return data
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"join":   join,
		"escape": Escape,
		// Replaced per execution with a lookup into the record.
		"field": func(string) string { return "" },
	}
}

// join accepts either a list or a scalar.
func join(sep string, v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, sep)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape quotes LaTeX special characters. Lists are joined with "; " first.
func Escape(v any) string {
	switch x := v.(type) {
	case []string:
		return latexReplacer.Replace(strings.Join(x, extract.ListSeparator))
	case string:
		return latexReplacer.Replace(x)
	case nil:
		return ""
	default:
		return latexReplacer.Replace(fmt.Sprint(x))
	}
}
