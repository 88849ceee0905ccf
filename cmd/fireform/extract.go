package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/extract"
)

var (
	extractFields   []string
	extractTemplate string
	extractInput    string
	extractSave     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract fields from a transcript and print the record",
	Long: `Extract asks the configured model for each field, in order, and prints the
resulting record. Values are null (not found), a string, or a list.

The transcript is read from --input, or from stdin when --input is omitted.

Examples:
  fireform extract -f "Officer name" -f "Witnesses" -i transcript.txt
  fireform extract -t incident --save record.json < transcript.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(os.Stderr)
		if err != nil {
			return err
		}
		fields, err := fieldsFor(e, extractTemplate, extractFields)
		if err != nil {
			return err
		}
		transcript, err := api.ReadInput(cmd.InOrStdin(), extractInput)
		if err != nil {
			return err
		}

		svc, err := e.fillService()
		if err != nil {
			return err
		}
		record, err := svc.Extract(cmd.Context(), transcript, fields)
		if err != nil {
			return err
		}

		if extractSave != "" {
			if err := extract.SaveRecord(record, extractSave); err != nil {
				return err
			}
			e.logger.Info("record saved", "path", extractSave)
		}
		return api.Output(record)
	},
}

// fieldsFor returns the template's fields when id is set, otherwise the
// fields given on the command line.
func fieldsFor(e *env, templateID string, fields []string) ([]string, error) {
	if templateID == "" {
		if len(fields) == 0 {
			return nil, fmt.Errorf("either --field or --template is required")
		}
		return fields, nil
	}
	t, _, err := e.template(templateID)
	if err != nil {
		return nil, err
	}
	return t.Fields, nil
}

func init() {
	extractCmd.Flags().StringArrayVarP(&extractFields, "field", "f", nil, "Field to extract (repeatable, in order)")
	extractCmd.Flags().StringVarP(&extractTemplate, "template", "t", "", "Stored template ID supplying the fields")
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Transcript file (default: stdin)")
	extractCmd.Flags().StringVar(&extractSave, "save", "", "Also write the record as JSON to this path")

	rootCmd.AddCommand(extractCmd)
}
