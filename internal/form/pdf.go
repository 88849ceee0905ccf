package form

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoPages is returned for documents without pages.
var ErrNoPages = errors.New("pdf has no pages")

// Document is an open PDF form. Widgets returned by Widgets mutate the
// document in place; nothing reaches disk until Save.
type Document struct {
	path    string
	ctx     *model.Context
	widgets []*pdfWidget
}

// Open reads a PDF and collects every widget annotation with a /T name, on
// all pages, in page order.
//
// The document is parsed but not validated: pdfcpu rejects form fields
// without /DA even in relaxed mode, and binding only needs /Annots, /T and
// /Rect.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf %s: %w", path, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to read pdf %s: %w", path, err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}

	doc := &Document{path: path, ctx: ctx}
	for page := 1; page <= ctx.PageCount; page++ {
		pageDict, _, _, err := ctx.PageDict(page, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", page, err)
		}
		widgets, err := pageWidgets(ctx.XRefTable, pageDict, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		doc.widgets = append(doc.widgets, widgets...)
	}
	return doc, nil
}

// Path returns the file the document was read from.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Widgets returns the fillable widgets in document order.
func (d *Document) Widgets() []Widget {
	out := make([]Widget, len(d.widgets))
	for i, w := range d.widgets {
		out[i] = w
	}
	return out
}

// Save writes the document to path. Viewers are asked to regenerate field
// appearances, since Bind drops the cached ones.
func (d *Document) Save(path string) error {
	if err := d.setNeedAppearances(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return fmt.Errorf("failed to write pdf %s: %w", path, err)
	}
	return nil
}

func (d *Document) setNeedAppearances() error {
	root, err := d.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	obj, found := root.Find("AcroForm")
	if !found || obj == nil {
		return nil
	}
	acroForm, err := d.ctx.DereferenceDict(obj)
	if err != nil {
		return fmt.Errorf("failed to read AcroForm: %w", err)
	}
	if acroForm != nil {
		acroForm["NeedAppearances"] = types.Boolean(true)
	}
	return nil
}

func pageWidgets(xref *model.XRefTable, pageDict types.Dict, page int) ([]*pdfWidget, error) {
	obj, found := pageDict.Find("Annots")
	if !found || obj == nil {
		return nil, nil
	}
	annots, err := xref.DereferenceArray(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	var widgets []*pdfWidget
	for i, o := range annots {
		annot, err := xref.DereferenceDict(o)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		w, ok, err := newPDFWidget(xref, annot, page)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		if ok {
			widgets = append(widgets, w)
		}
	}
	return widgets, nil
}

// pdfWidget adapts a widget annotation dictionary.
type pdfWidget struct {
	dict types.Dict
	name string
	page int
	rect Rect
}

// newPDFWidget returns ok=false for annotations that are not named widgets.
func newPDFWidget(xref *model.XRefTable, annot types.Dict, page int) (*pdfWidget, bool, error) {
	if annot == nil {
		return nil, false, nil
	}
	if subtype := annot.NameEntry("Subtype"); subtype == nil || *subtype != "Widget" {
		return nil, false, nil
	}

	tObj, found := annot.Find("T")
	if !found || tObj == nil {
		return nil, false, nil
	}
	name, err := decodeText(xref, tObj)
	if err != nil {
		return nil, false, fmt.Errorf("field name: %w", err)
	}

	rect, err := decodeRect(xref, annot)
	if err != nil {
		return nil, false, fmt.Errorf("field %q: %w", name, err)
	}

	return &pdfWidget{dict: annot, name: name, page: page, rect: rect}, true, nil
}

func (w *pdfWidget) Name() string { return w.name }
func (w *pdfWidget) Page() int    { return w.page }
func (w *pdfWidget) Rect() Rect   { return w.rect }

// SetValue writes /V as a PDF text string.
func (w *pdfWidget) SetValue(value string) {
	w.dict["V"] = encodeText(value)
}

// ClearAppearance deletes /AP.
func (w *pdfWidget) ClearAppearance() {
	w.dict.Delete("AP")
}

func decodeText(xref *model.XRefTable, obj types.Object) (string, error) {
	obj, err := xref.Dereference(obj)
	if err != nil {
		return "", err
	}
	switch v := obj.(type) {
	case types.StringLiteral:
		return types.StringLiteralToString(v)
	case types.HexLiteral:
		return types.HexLiteralToString(v)
	case types.Name:
		return string(v), nil
	default:
		return "", fmt.Errorf("unexpected text object %T", obj)
	}
}

func encodeText(s string) types.StringLiteral {
	if !isASCII(s) && utf8.ValidString(s) {
		s = types.EncodeUTF16String(s)
	}
	escaped, err := types.Escape(s)
	if err != nil || escaped == nil {
		return types.StringLiteral(s)
	}
	return types.StringLiteral(*escaped)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func decodeRect(xref *model.XRefTable, annot types.Dict) (Rect, error) {
	obj, found := annot.Find("Rect")
	if !found || obj == nil {
		return Rect{}, errors.New("missing /Rect")
	}
	arr, err := xref.DereferenceArray(obj)
	if err != nil {
		return Rect{}, fmt.Errorf("invalid /Rect: %w", err)
	}
	if len(arr) != 4 {
		return Rect{}, fmt.Errorf("invalid /Rect: %d entries", len(arr))
	}

	var c [4]float64
	for i, o := range arr {
		f, err := xref.DereferenceNumber(o)
		if err != nil {
			return Rect{}, fmt.Errorf("invalid /Rect entry %d: %w", i, err)
		}
		c[i] = f
	}

	// Corners may be given in any order.
	llx, urx := math.Min(c[0], c[2]), math.Max(c[0], c[2])
	lly, ury := math.Min(c[1], c[3]), math.Max(c[1], c[3])
	return Rect{X: llx, Y: lly, Width: urx - llx, Height: ury - lly}, nil
}
