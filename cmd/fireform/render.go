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
	renderFields   []string
	renderTemplate string
	renderTex      string
	renderInput    string
	renderName     string
	renderOutDir   string
	renderRecord   string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a LaTeX template from a transcript",
	Long: `Render extracts the fields and compiles a LaTeX template whose actions use
\VAR{ ... } delimiters, for example \VAR{escape .officer} or
\VAR{join ", " .witnesses}.

Examples:
  fireform render --tex report.tex -f officer -f witnesses -i transcript.txt
  fireform render -t report --out-dir ./out < transcript.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(os.Stderr)
		if err != nil {
			return err
		}

		texPath := renderTex
		fields := renderFields
		if renderTemplate != "" {
			t, store, err := e.template(renderTemplate)
			if err != nil {
				return err
			}
			if t.LaTeX == "" {
				return fmt.Errorf("template %s has no latex", t.ID)
			}
			texPath, fields = store.Resolve(t.LaTeX), t.Fields
		}
		if texPath == "" {
			return fmt.Errorf("either --tex or --template is required")
		}

		outDir := renderOutDir
		if outDir == "" {
			outDir = e.home.OutputsPath()
		}

		svc, err := e.fillService()
		if err != nil {
			return err
		}

		if renderRecord != "" {
			record, err := extract.LoadRecord(renderRecord)
			if err != nil {
				return err
			}
			out, err := svc.RenderRecord(cmd.Context(), record, texPath, renderName, outDir)
			if err != nil {
				return err
			}
			return api.Output(FillResult{Record: record, OutputPath: out})
		}

		transcript, err := api.ReadInput(cmd.InOrStdin(), renderInput)
		if err != nil {
			return err
		}
		res, err := svc.Render(cmd.Context(), fill.RenderRequest{
			Transcript:   transcript,
			Fields:       fields,
			TemplatePath: texPath,
			OutputName:   renderName,
			OutputDir:    outDir,
		})
		if err != nil {
			return err
		}
		return api.Output(FillResult{Record: res.Record, OutputPath: res.OutputPath})
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderTex, "tex", "", "LaTeX template file")
	renderCmd.Flags().StringArrayVarP(&renderFields, "field", "f", nil, "Field to extract (repeatable)")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Stored template ID")
	renderCmd.Flags().StringVarP(&renderInput, "input", "i", "", "Transcript file (default: stdin)")
	renderCmd.Flags().StringVar(&renderName, "name", "", "Output file name (default: template name with .pdf)")
	renderCmd.Flags().StringVar(&renderOutDir, "out-dir", "", "Output directory (default: ~/.fireform/outputs)")
	renderCmd.Flags().StringVar(&renderRecord, "record", "", "Render a saved record instead of extracting")

	rootCmd.AddCommand(renderCmd)
}
