// Package tabular renders extract tables into file formats.  The same
// encoders serve the local filesystem and object storage sinks.
package tabular

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/pkg/errors"
)

// Supported formats.
const (
	FormatCSV     = "csv"
	FormatXLSX    = "xlsx"
	FormatParquet = "parquet"
)

// Encoder writes one table in a single file format.
type Encoder interface {
	// Ext is the file extension without the leading dot.
	Ext() string
	ContentType() string
	Encode(w io.Writer, t *extract.Table) error
}

// FileName builds "<run_date>_<extract_name>.<ext>".
func FileName(runDate, name, ext string) string {
	return runDate + "_" + name + "." + ext
}

// ForFormat returns the encoder for a format name (case-insensitive).
func ForFormat(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		return CSV{}, nil
	case FormatXLSX, "excel":
		return XLSX{}, nil
	case FormatParquet:
		return Parquet{}, nil
	default:
		return nil, errors.InvalidParam(fmt.Sprintf("unsupported output format %q", format)).
			WithDetail("supported: csv, xlsx, parquet")
	}
}

// ForFormats resolves a list of format names, dropping duplicates.
func ForFormats(formats []string) ([]Encoder, error) {
	if len(formats) == 0 {
		return []Encoder{CSV{}}, nil
	}
	seen := map[string]bool{}
	out := make([]Encoder, 0, len(formats))
	for _, f := range formats {
		enc, err := ForFormat(f)
		if err != nil {
			return nil, err
		}
		if seen[enc.Ext()] {
			continue
		}
		seen[enc.Ext()] = true
		out = append(out, enc)
	}
	return out, nil
}

// cellString renders a cell for text formats.  Unset cells are empty.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func encodeErr(err error, format, name string) error {
	return errors.Wrap(err, errors.CodeEncodingFailed, "encode "+format).WithDetail("extract=" + name)
}

//Personal.AI order the ending
