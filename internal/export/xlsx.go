// Package export writes extracted records to spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jackzampolin/fireform/internal/extract"
)

// SheetName is the worksheet records are written to.
const SheetName = "Records"

// Columns returns the union of field names across records in first-seen
// order.
func Columns(records ...*extract.Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range records {
		if r == nil {
			continue
		}
		for _, f := range r.Fields() {
			if !seen[f] {
				seen[f] = true
				cols = append(cols, f)
			}
		}
	}
	return cols
}

// WriteXLSX writes one header row of field names and one row per record.
// Lists are joined with "; " and absent values are left blank.
func WriteXLSX(w io.Writer, records ...*extract.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leaving an empty "Sheet1".
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	cols := Columns(records...)
	for i, h := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	row := 2
	for _, r := range records {
		if r == nil {
			continue
		}
		for i, col := range cols {
			v, ok := r.Get(col)
			if !ok || v.IsAbsent() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return fmt.Errorf("xlsx row %d: %w", row, err)
			}
			if err := f.SetCellValue(SheetName, cell, v.Text()); err != nil {
				return fmt.Errorf("xlsx row %d: %w", row, err)
			}
		}
		row++
	}

	if len(cols) > 0 {
		last, _ := excelize.ColumnNumberToName(len(cols))
		_ = f.SetColWidth(SheetName, "A", last, 24)
		_ = f.SetPanes(SheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
