package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FormField is a text widget on a generated form. Page is 1-based; zero
// means the first page.
type FormField struct {
	Name string
	Page int
	X, Y float64
	W, H float64
}

// FormPDF builds a small AcroForm with one text widget per field, on letter
// sized pages. Every widget carries a cached /AP appearance. Like many
// hand-made forms, neither the AcroForm nor the widgets have a /DA entry.
func FormPDF(fields ...FormField) []byte {
	pages := 1
	for _, f := range fields {
		pages = max(pages, f.Page)
	}

	// 1 catalog, 2 page tree, 3 shared appearance stream, then pages, then widgets.
	firstPage := 4
	firstWidget := firstPage + pages
	objs := make([]string, firstWidget+len(fields))

	var fieldRefs []string
	annots := make([][]string, pages)
	for i, f := range fields {
		num := firstWidget + i
		page := max(f.Page, 1)
		ref := fmt.Sprintf("%d 0 R", num)
		fieldRefs = append(fieldRefs, ref)
		annots[page-1] = append(annots[page-1], ref)
		objs[num] = fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect [%g %g %g %g] /P %d 0 R /F 4 /AP << /N 3 0 R >> >>",
			f.Name, f.X, f.Y, f.X+f.W, f.Y+f.H, firstPage+page-1,
		)
	}

	var kids []string
	for p := 0; p < pages; p++ {
		num := firstPage + p
		kids = append(kids, fmt.Sprintf("%d 0 R", num))
		objs[num] = fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Annots [%s] >>",
			strings.Join(annots[p], " "),
		)
	}

	objs[1] = fmt.Sprintf("<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [%s] >> >>", strings.Join(fieldRefs, " "))
	objs[2] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages)
	objs[3] = "<< /Type /XObject /Subtype /Form /BBox [0 0 100 20] /Length 3 >>\nstream\nq Q\nendstream"

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for num := 1; num < len(objs); num++ {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, objs[num])
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs))
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num < len(objs); num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs), xref)
	return buf.Bytes()
}

// WriteFormPDF writes FormPDF(fields...) to name inside a temp directory
// and returns the path.
func WriteFormPDF(t *testing.T, name string, fields ...FormField) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, FormPDF(fields...), 0o644); err != nil {
		t.Fatalf("writing form fixture: %v", err)
	}
	return path
}
