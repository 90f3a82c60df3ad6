//go:build integration

package postgres_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/database/postgres"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/internal/testutil"
)

// startPostgres launches a PostgreSQL 16 container and returns a migrated
// connection.
func startPostgres(t *testing.T) *postgres.Connection {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "dimpat_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	conn, err := postgres.NewConnection(postgres.PostgresConfig{
		Host:     host,
		Port:     portNum,
		Database: "dimpat_test",
		Username: "test",
		Password: "test",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.Migrate())
	return conn
}

func TestSink_Integration_RerunReplacesRows(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	version, dirty, err := conn.MigrationStatus()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	res, err := extract.NewNormalizer(nil).Normalize(ctx, testutil.SampleRecords())
	require.NoError(t, err)
	sink := postgres.NewSink(conn, nil)

	for _, runID := range []string{"first", "second"} {
		runCtx := export.WithRunID(ctx, runID)
		for _, tbl := range res.Tables {
			_, err := sink.Write(runCtx, "2024_01_31", tbl)
			require.NoError(t, err)
		}
	}

	for _, tbl := range res.Tables {
		var count int
		err := conn.DB().QueryRowContext(ctx,
			"SELECT count(*) FROM "+postgres.TableName(tbl.Name)+" WHERE run_date = $1", "2024_01_31").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, tbl.Len(), count, tbl.Name)
	}

	var runID string
	var rows int
	err = conn.DB().QueryRowContext(ctx,
		"SELECT run_id, row_count FROM export_runs WHERE run_date = $1 AND extract = $2",
		"2024_01_31", extract.NameCitations).Scan(&runID, &rows)
	require.NoError(t, err)
	assert.Equal(t, "second", runID)
	assert.Equal(t, 3, rows)

	var nullCount int
	err = conn.DB().QueryRowContext(ctx,
		"SELECT count(*) FROM extract_times_cited WHERE times_cited IS NULL").Scan(&nullCount)
	require.NoError(t, err)
	assert.Equal(t, 1, nullCount)
}

//Personal.AI order the ending
