package tabular

import (
	"encoding/csv"
	"io"

	"github.com/turtacn/dimpat/internal/domain/extract"
)

// CSV writes a header row followed by one line per row, comma separated,
// UTF-8, without an index column.
type CSV struct{}

func (CSV) Ext() string         { return FormatCSV }
func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

func (CSV) Encode(w io.Writer, t *extract.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return encodeErr(err, FormatCSV, t.Name)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = cellString(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return encodeErr(err, FormatCSV, t.Name)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return encodeErr(err, FormatCSV, t.Name)
	}
	return nil
}

//Personal.AI order the ending
