package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/extract"
	"github.com/jackzampolin/fireform/internal/fill"
)

var (
	fillFields   []string
	fillTemplate string
	fillPDF      string
	fillInput    string
	fillOut      string
	fillRecord   string
)

// FillResult is printed after a successful fill.
type FillResult struct {
	Record     *extract.Record `json:"record" yaml:"record"`
	OutputPath string          `json:"output_path" yaml:"output_path"`
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill a PDF form from a transcript",
	Long: `Fill extracts the fields from a transcript and writes them onto the
fillable widgets of a PDF, in reading order (page, then top to bottom, then
left to right). The number of fields must equal the number of widgets; this
is checked before the model is called.

Use "fireform form inspect" to see the widget order of a form.

Examples:
  fireform fill --pdf incident.pdf -f "Officer" -f "Date" -i transcript.txt
  fireform fill -t incident < transcript.txt
  fireform fill --pdf incident.pdf --record record.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(os.Stderr)
		if err != nil {
			return err
		}

		pdfPath := fillPDF
		fields := fillFields
		if fillTemplate != "" {
			t, store, err := e.template(fillTemplate)
			if err != nil {
				return err
			}
			if t.PDF == "" {
				return fmt.Errorf("template %s has no pdf", t.ID)
			}
			pdfPath, fields = store.Resolve(t.PDF), t.Fields
		}
		if pdfPath == "" {
			return fmt.Errorf("either --pdf or --template is required")
		}

		svc, err := e.fillService()
		if err != nil {
			return err
		}

		if fillRecord != "" {
			record, err := extract.LoadRecord(fillRecord)
			if err != nil {
				return err
			}
			out, err := svc.FillRecord(record, pdfPath, fillOut)
			if err != nil {
				return err
			}
			return api.Output(FillResult{Record: record, OutputPath: out})
		}

		transcript, err := api.ReadInput(cmd.InOrStdin(), fillInput)
		if err != nil {
			return err
		}
		res, err := svc.FillPDF(cmd.Context(), fill.Request{
			Transcript: transcript,
			Fields:     fields,
			PDFPath:    pdfPath,
			OutputPath: fillOut,
		})
		if err != nil {
			return err
		}
		return api.Output(FillResult{Record: res.Record, OutputPath: res.OutputPath})
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillPDF, "pdf", "", "Fillable PDF form")
	fillCmd.Flags().StringArrayVarP(&fillFields, "field", "f", nil, "Field to extract (repeatable, in widget order)")
	fillCmd.Flags().StringVarP(&fillTemplate, "template", "t", "", "Stored template ID")
	fillCmd.Flags().StringVarP(&fillInput, "input", "i", "", "Transcript file (default: stdin)")
	fillCmd.Flags().StringVar(&fillOut, "out", "", "Output path (default: <form>_filled.pdf)")
	fillCmd.Flags().StringVar(&fillRecord, "record", "", "Fill from a saved record instead of extracting")

	rootCmd.AddCommand(fillCmd)
}
