package table

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// WriteXLSX writes t as a single sheet workbook. Numbers and timestamps are
// written as native cells so spreadsheets can compute with them.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	head := make([]any, len(t.cols))
	for i, c := range t.cols {
		head[i] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		row := make([]any, len(t.cols))
		for j, c := range t.cols {
			row[j] = c.Value(i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
