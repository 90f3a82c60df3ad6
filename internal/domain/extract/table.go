package extract

// Table is the sink-facing form of an extract: a fixed name, ordered columns
// and rows of cell values. A nil cell is unset.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Records returns each row as a column-keyed map, for sinks that store
// documents rather than positional rows.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// ColumnIndex returns the position of col, or -1.
func (t *Table) ColumnIndex(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

type valuer interface {
	Values() []any
}

func newTable[R valuer](name string, columns []string, rows []R) *Table {
	t := &Table{Name: name, Columns: columns, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		t.Rows[i] = r.Values()
	}
	return t
}

//Personal.AI order the ending
