package extract

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var promptTmpl string

var promptTemplate = template.Must(template.New("extract").Parse(promptTmpl))

// PromptKey identifies the extraction prompt in logs.
const PromptKey = "extract.field"

// BuildPrompt returns the extraction prompt for one field. The transcript is
// embedded verbatim. The same inputs always produce the same text.
func BuildPrompt(transcript, field string) string {
	var b strings.Builder
	data := struct {
		Field      string
		Transcript string
	}{Field: field, Transcript: transcript}
	if err := promptTemplate.Execute(&b, data); err != nil {
		// Only string fields are referenced, so execution cannot fail.
		panic(err)
	}
	return b.String()
}
