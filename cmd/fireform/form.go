package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/form"
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Inspect fillable PDF forms",
}

var formInspectCmd = &cobra.Command{
	Use:   "inspect <pdf>",
	Short: "List a form's widgets in the order values are written",
	Long: `Inspect prints every fillable text widget of a PDF in binding order:
page, then top to bottom, then left to right. The Nth field of a fill is
written to the widget at index N.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := form.Open(args[0])
		if err != nil {
			return err
		}
		return api.Output(form.Describe(doc.Widgets()))
	},
}

func init() {
	formCmd.AddCommand(formInspectCmd)
	rootCmd.AddCommand(formCmd)
}
