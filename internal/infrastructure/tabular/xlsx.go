package tabular

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/dimpat/internal/domain/extract"
)

// XLSX writes the table to a single worksheet named after the extract.
type XLSX struct{}

func (XLSX) Ext() string { return FormatXLSX }
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Encode(w io.Writer, t *extract.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return encodeErr(err, FormatXLSX, t.Name)
	}

	for i, h := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return encodeErr(err, FormatXLSX, t.Name)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return encodeErr(err, FormatXLSX, t.Name)
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return encodeErr(err, FormatXLSX, t.Name)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return encodeErr(err, FormatXLSX, t.Name)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return encodeErr(err, FormatXLSX, t.Name)
	}
	return nil
}

// SheetName truncates name to Excel's 31 character sheet name limit.
func SheetName(name string) string {
	const maxSheetName = 31
	if name == "" {
		return "Sheet1"
	}
	if len(name) > maxSheetName {
		return name[:maxSheetName]
	}
	return name
}

//Personal.AI order the ending
