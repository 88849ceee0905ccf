package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/fireform/internal/export"
	"github.com/jackzampolin/fireform/internal/extract"
)

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx> <record.json>...",
	Short: "Write saved records to a spreadsheet",
	Long: `Export writes one row per saved record (see "fireform extract --save")
to an XLSX workbook. Columns are the union of field names in first-seen order.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		records := make([]*extract.Record, 0, len(args)-1)
		for _, path := range args[1:] {
			r, err := extract.LoadRecord(path)
			if err != nil {
				return err
			}
			records = append(records, r)
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", args[0], err)
		}
		if err := export.WriteXLSX(f, records...); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", len(records), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
