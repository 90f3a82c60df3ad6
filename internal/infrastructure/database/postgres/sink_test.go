package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/testutil"
	pkgerrors "github.com/turtacn/dimpat/pkg/errors"
)

type SinkTestSuite struct {
	suite.Suite
	mock   sqlmock.Sqlmock
	sink   *Sink
	tables *extract.Result
	ctx    context.Context
}

func (s *SinkTestSuite) SetupTest() {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	s.Require().NoError(err)
	s.T().Cleanup(func() { db.Close() })
	s.mock = mock
	s.sink = NewSink(NewConnectionWithDB(db, nil), nil)

	res, err := extract.NewNormalizer(nil).Normalize(context.Background(), testutil.SampleRecords())
	s.Require().NoError(err)
	s.tables = res
	s.ctx = export.WithRunID(context.Background(), "run-1")
}

func (s *SinkTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *SinkTestSuite) TestInsertSQL() {
	t := s.tables.Table(extract.NameCitations)
	s.Equal(`DELETE FROM "extract_times_cited" WHERE run_date = $1`, deleteSQL(t))
	s.Equal(`INSERT INTO "extract_times_cited" ("run_date", "run_id", "patent_id", "times_cited") VALUES ($1, $2, $3, $4)`, insertSQL(t))
}

func (s *SinkTestSuite) TestWrite_ReplacesRunDate() {
	t := s.tables.Table(extract.NameCitations)

	s.mock.ExpectBegin()
	s.mock.ExpectExec(deleteSQL(t)).WithArgs("2024_01_31").WillReturnResult(sqlmock.NewResult(0, 2))
	prep := s.mock.ExpectPrepare(insertSQL(t))
	prep.ExpectExec().WithArgs("2024_01_31", "run-1", "US-2019000001-A1", int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("2024_01_31", "run-1", "EP-3000000-B1", nil).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("2024_01_31", "run-1", "WO-2020123456-A1", int64(0)).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(upsertRunSQL).WithArgs("2024_01_31", "times_cited", "run-1", int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	res, err := s.sink.Write(s.ctx, "2024_01_31", t)

	s.Require().NoError(err)
	s.Equal("postgres", res.Sink)
	s.Equal(3, res.Rows)
	s.Equal("extract_times_cited?run_date=2024_01_31", res.Location)
}

func (s *SinkTestSuite) TestWrite_AssigneeNilTypeIsNull() {
	t := s.tables.Table(extract.NameAssignees)

	s.mock.ExpectBegin()
	s.mock.ExpectExec(deleteSQL(t)).WithArgs("2024_01_31").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := s.mock.ExpectPrepare(insertSQL(t))
	for _, row := range t.Rows {
		args := []any{"2024_01_31", "run-1"}
		for _, v := range row {
			args = append(args, v)
		}
		prep.ExpectExec().WithArgs(toDriverArgs(args)...).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	s.mock.ExpectExec(upsertRunSQL).WithArgs("2024_01_31", "original_assignees", "run-1", int64(t.Len())).WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	_, err := s.sink.Write(s.ctx, "2024_01_31", t)
	s.NoError(err)
}

func (s *SinkTestSuite) TestWrite_InsertFailureRollsBack() {
	t := s.tables.Table(extract.NameDetails)

	s.mock.ExpectBegin()
	s.mock.ExpectExec(deleteSQL(t)).WithArgs("2024_01_31").WillReturnResult(sqlmock.NewResult(0, 0))
	prep := s.mock.ExpectPrepare(insertSQL(t))
	prep.ExpectExec().WillReturnError(errors.New("value too long"))
	s.mock.ExpectRollback()

	_, err := s.sink.Write(s.ctx, "2024_01_31", t)

	s.Require().Error(err)
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeDatabaseError))
	s.Contains(err.Error(), "details row 0")
}

func (s *SinkTestSuite) TestWrite_DeleteFailure() {
	t := s.tables.Table(extract.NameStatus)

	s.mock.ExpectBegin()
	s.mock.ExpectExec(deleteSQL(t)).WillReturnError(errors.New(`relation "extract_status" does not exist`))
	s.mock.ExpectRollback()

	_, err := s.sink.Write(s.ctx, "2024_01_31", t)
	s.Error(err)
}

func (s *SinkTestSuite) TestWrite_UnknownExtract() {
	_, err := s.sink.Write(s.ctx, "2024_01_31", &extract.Table{Name: "bobby; drop table"})
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeUnknownExtract))
}

func TestSinkSuite(t *testing.T) {
	suite.Run(t, new(SinkTestSuite))
}

// toDriverArgs maps cells to the driver values database/sql produces.
func toDriverArgs(args []any) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		if n, ok := a.(int); ok {
			out[i] = int64(n)
			continue
		}
		out[i] = a
	}
	return out
}

func TestTableName(t *testing.T) {
	require.Equal(t, "extract_for_2020", TableName(extract.NameFieldsOfResearch))
	assert.Equal(t, "extract_original_assignees", TableName(extract.NameAssignees))
}

func TestSink_Check(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	sink := NewSink(NewConnectionWithDB(db, nil), nil)

	mock.ExpectPing()
	assert.NoError(t, sink.Check(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = sink.Check(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDatabaseError))
	assert.NoError(t, mock.ExpectationsWereMet())
}

//Personal.AI order the ending
