package tabular

import (
	"bytes"
	"context"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/testutil"
	"github.com/turtacn/dimpat/pkg/errors"
)

func citationsTable() *extract.Table {
	return &extract.Table{
		Name:    extract.NameCitations,
		Columns: extract.CitationColumns,
		Rows: [][]any{
			{"P1", 5},
			{"P2", nil},
		},
	}
}

func normalized(t *testing.T) *extract.Result {
	t.Helper()
	res, err := extract.NewNormalizer(nil).Normalize(context.Background(), testutil.SampleRecords())
	require.NoError(t, err)
	return res
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2024_01_31_details.csv", FileName("2024_01_31", "details", "csv"))
	assert.Equal(t, "2024_01_31_for_2020.parquet", FileName("2024_01_31", extract.NameFieldsOfResearch, "parquet"))
}

func TestForFormat(t *testing.T) {
	for in, ext := range map[string]string{"csv": "csv", "": "csv", "XLSX": "xlsx", "excel": "xlsx", " parquet ": "parquet"} {
		enc, err := ForFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, ext, enc.Ext(), in)
		assert.NotEmpty(t, enc.ContentType())
	}

	_, err := ForFormat("json")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestForFormats_DeduplicatesAndDefaults(t *testing.T) {
	encs, err := ForFormats(nil)
	require.NoError(t, err)
	require.Len(t, encs, 1)
	assert.Equal(t, "csv", encs[0].Ext())

	encs, err = ForFormats([]string{"csv", "xlsx", "CSV"})
	require.NoError(t, err)
	assert.Len(t, encs, 2)
}

// ─────────────────────────────────────────────────────────────────────────────
// CSV
// ─────────────────────────────────────────────────────────────────────────────

func TestCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Encode(&buf, citationsTable()))
	assert.Equal(t, "patent_id,times_cited\nP1,5\nP2,\n", buf.String())
}

func TestCSV_QuotesEmbeddedCommas(t *testing.T) {
	tbl := &extract.Table{
		Name:    extract.NameDetails,
		Columns: extract.DetailColumns,
		Rows:    [][]any{{"P1", "Sensor, array", "Jane Doe, J. Smith"}},
	}
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Encode(&buf, tbl))
	assert.Equal(t, "patent_id,title,inventor_names\nP1,\"Sensor, array\",\"Jane Doe, J. Smith\"\n", buf.String())
}

func TestCSV_EmptyTableWritesHeaderOnly(t *testing.T) {
	tbl := &extract.Table{Name: extract.NameAssignees, Columns: extract.AssigneeColumns}
	var buf bytes.Buffer
	require.NoError(t, CSV{}.Encode(&buf, tbl))
	assert.Equal(t, "patent_id,id,name,city_name,country_name,country_code,type\n", buf.String())
}

func TestCSV_Idempotent(t *testing.T) {
	a, b := normalized(t), normalized(t)
	for i := range a.Tables {
		var x, y bytes.Buffer
		require.NoError(t, CSV{}.Encode(&x, a.Tables[i]))
		require.NoError(t, CSV{}.Encode(&y, b.Tables[i]))
		assert.Equal(t, x.Bytes(), y.Bytes(), a.Tables[i].Name)
	}
}

func TestCellString(t *testing.T) {
	s := "x"
	n := 3
	var nilStr *string
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "x", cellString(&s))
	assert.Equal(t, "", cellString(nilStr))
	assert.Equal(t, "3", cellString(&n))
	assert.Equal(t, "7", cellString(int64(7)))
	assert.Equal(t, "1.5", cellString(1.5))
	assert.Equal(t, "true", cellString(true))
}

// ─────────────────────────────────────────────────────────────────────────────
// XLSX
// ─────────────────────────────────────────────────────────────────────────────

func TestXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSX{}.Encode(&buf, citationsTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(extract.NameCitations)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"patent_id", "times_cited"}, rows[0])
	assert.Equal(t, []string{"P1", "5"}, rows[1])
	assert.Equal(t, []string{"P2"}, rows[2])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", SheetName(""))
	assert.Equal(t, "details", SheetName("details"))
	assert.Len(t, SheetName("a_very_long_extract_name_that_overflows"), 31)
}

// ─────────────────────────────────────────────────────────────────────────────
// Parquet
// ─────────────────────────────────────────────────────────────────────────────

func TestParquet_Schema(t *testing.T) {
	s := Schema(citationsTable())
	require.Equal(t, 2, s.NumFields())
	assert.Equal(t, arrow.STRING, s.Field(0).Type.ID())
	assert.Equal(t, arrow.INT64, s.Field(1).Type.ID())

	empty := Schema(&extract.Table{Columns: []string{"a"}})
	assert.Equal(t, arrow.STRING, empty.Field(0).Type.ID())
}

func TestParquet_SchemaStableAcrossRuns(t *testing.T) {
	for _, rows := range [][][]any{nil, {{"P1", nil}, {"P2", nil}}, {{"P1", 7}}} {
		s := Schema(&extract.Table{Name: extract.NameCitations, Columns: extract.CitationColumns, Rows: rows})
		assert.Equal(t, arrow.INT64, s.Field(1).Type.ID())
	}

	status := Schema(&extract.Table{
		Name:    extract.NameStatus,
		Columns: extract.StatusColumns,
		Rows:    [][]any{{"P1", 1, 2, 3, 4, 5, 6, 7, 8}},
	})
	for i := range extract.StatusColumns {
		assert.Equal(t, arrow.STRING, status.Field(i).Type.ID(), extract.StatusColumns[i])
	}
}

func TestParquet_EmptyExtract(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Parquet{}.Encode(&buf, &extract.Table{Name: extract.NameCitations, Columns: extract.CitationColumns}))

	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(0), tbl.NumRows())
	assert.Equal(t, arrow.INT64, tbl.Schema().Field(1).Type.ID())
}

func TestParquet_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Parquet{}.Encode(&buf, citationsTable()))

	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(memory.DefaultAllocator), pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(2), tbl.NumRows())
	assert.Equal(t, "patent_id", tbl.Schema().Field(0).Name)
	assert.Equal(t, arrow.INT64, tbl.Schema().Field(1).Type.ID())
}

func TestParquet_AllExtracts(t *testing.T) {
	for _, tbl := range normalized(t).Tables {
		var buf bytes.Buffer
		require.NoError(t, Parquet{}.Encode(&buf, tbl), tbl.Name)
		assert.Greater(t, buf.Len(), 0)
	}
}

//Personal.AI order the ending
