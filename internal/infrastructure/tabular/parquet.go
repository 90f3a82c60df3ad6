package tabular

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/turtacn/dimpat/internal/domain/extract"
)

// Parquet writes the table as a single row group.  Extract columns take their
// types from the extract catalog, so a run with no rows or only nulls keeps
// the same schema.  Integer columns become int64; everything else is a
// nullable string.
type Parquet struct{}

func (Parquet) Ext() string         { return FormatParquet }
func (Parquet) ContentType() string { return "application/vnd.apache.parquet" }

func (Parquet) Encode(w io.Writer, t *extract.Table) error {
	schema := Schema(t)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for _, row := range t.Rows {
		for i := range t.Columns {
			var v any
			if i < len(row) {
				v = row[i]
			}
			switch fb := b.Field(i).(type) {
			case *array.Int64Builder:
				n, ok := asInt64(v)
				if !ok {
					fb.AppendNull()
					continue
				}
				fb.Append(n)
			case *array.StringBuilder:
				if v == nil {
					fb.AppendNull()
					continue
				}
				fb.Append(cellString(v))
			default:
				return encodeErr(fmt.Errorf("unexpected builder %T", fb), FormatParquet, t.Name)
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return encodeErr(err, FormatParquet, t.Name)
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return encodeErr(err, FormatParquet, t.Name)
	}
	if err := fw.Close(); err != nil {
		return encodeErr(err, FormatParquet, t.Name)
	}
	return nil
}

// Schema derives the arrow schema for t.  Tables outside the extract catalog
// get int64 columns where every non-null value is an integer.
func Schema(t *extract.Table) *arrow.Schema {
	spec, err := extract.Lookup(t.Name)
	known := err == nil
	fields := make([]arrow.Field, len(t.Columns))
	for i, col := range t.Columns {
		integer := integerColumn(t, i)
		if known {
			integer = spec.Integer(col)
		}
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if integer {
			typ = arrow.PrimitiveTypes.Int64
		}
		fields[i] = arrow.Field{Name: col, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func integerColumn(t *extract.Table, col int) bool {
	seen := false
	for _, row := range t.Rows {
		if col >= len(row) || row[col] == nil {
			continue
		}
		if _, ok := asInt64(row[col]); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case *int:
		if x == nil {
			return 0, false
		}
		return int64(*x), true
	default:
		return 0, false
	}
}

//Personal.AI order the ending
