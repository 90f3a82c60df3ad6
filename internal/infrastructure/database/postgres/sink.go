package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

const SinkName = "postgres"

const upsertRunSQL = `INSERT INTO export_runs (run_date, extract, run_id, row_count) VALUES ($1, $2, $3, $4)
ON CONFLICT (run_date, extract) DO UPDATE SET run_id = EXCLUDED.run_id, row_count = EXCLUDED.row_count, written_at = now()`

// Sink replaces the rows of one run date in the extract's table.  Rerunning
// an export for the same date leaves exactly one copy of each row.
type Sink struct {
	conn   *Connection
	logger logging.Logger
}

func NewSink(conn *Connection, log logging.Logger) *Sink {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Sink{conn: conn, logger: log}
}

func (s *Sink) Name() string { return SinkName }

// Check pings the database.
func (s *Sink) Check(ctx context.Context) error {
	if err := s.conn.DB().PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "postgres unreachable")
	}
	return nil
}

// TableName returns the table holding extract name.
func TableName(name string) string {
	return "extract_" + name
}

func deleteSQL(t *extract.Table) string {
	return fmt.Sprintf("DELETE FROM %s WHERE run_date = $1", pgx.Identifier{TableName(t.Name)}.Sanitize())
}

func insertSQL(t *extract.Table) string {
	cols := make([]string, 0, len(t.Columns)+2)
	params := make([]string, 0, len(t.Columns)+2)
	for i, c := range append([]string{"run_date", "run_id"}, t.Columns...) {
		cols = append(cols, pgx.Identifier{c}.Sanitize())
		params = append(params, fmt.Sprintf("$%d", i+1))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{TableName(t.Name)}.Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(params, ", "))
}

func (s *Sink) Write(ctx context.Context, runDate string, t *extract.Table) (*export.WriteResult, error) {
	if _, err := extract.Lookup(t.Name); err != nil {
		return nil, err
	}
	runID := export.RunIDFrom(ctx)

	var deleted int64
	err := s.conn.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, deleteSQL(t), runDate)
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "delete previous rows").WithDetail(t.Name)
		}
		deleted, _ = res.RowsAffected()

		stmt, err := tx.PrepareContext(ctx, insertSQL(t))
		if err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "prepare insert").WithDetail(t.Name)
		}
		defer stmt.Close()

		args := make([]any, len(t.Columns)+2)
		args[0], args[1] = runDate, runID
		for i, row := range t.Rows {
			for j := range t.Columns {
				args[j+2] = nil
				if j < len(row) {
					args[j+2] = row[j]
				}
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return errors.Wrap(err, errors.CodeDatabaseError, "insert row").
					WithDetail(fmt.Sprintf("%s row %d", t.Name, i))
			}
		}

		if _, err := tx.ExecContext(ctx, upsertRunSQL, runDate, t.Name, runID, t.Len()); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "record export run").WithDetail(t.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Replaced extract rows",
		logging.String("table", TableName(t.Name)),
		logging.String("run_date", runDate),
		logging.Int64("deleted", deleted),
		logging.Int("inserted", t.Len()))
	return &export.WriteResult{
		Sink:     SinkName,
		Extract:  t.Name,
		Location: TableName(t.Name) + "?run_date=" + runDate,
		Rows:     t.Len(),
	}, nil
}

//Personal.AI order the ending
