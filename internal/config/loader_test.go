package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
dimensions:
  api_key: "secret-key"
  timeout: 30s
query:
  grid_id: "grid.4991.5"
  min_year: 2018
  max_year: 2020
output:
  dir: "./out"
  formats: ["csv", "parquet"]
export:
  sinks: ["localfs", "postgres"]
  concurrency: 2
database:
  host: "db.internal"
  database: "patents"
  username: "exporter"
kafka:
  brokers: ["k1:9092", "k2:9092"]
  topic_prefix: "uni"
metrics:
  pushgateway_url: "http://pushgateway:9091"
log:
  level: debug
  format: json
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// isolate runs the test in an empty working directory and home so no stray
// dimpat.yaml or .env is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

// unsetEnv removes k for the duration of the test.
func unsetEnv(t *testing.T, k string) {
	t.Helper()
	t.Setenv(k, "")
	require.NoError(t, os.Unsetenv(k))
}

func TestLoadFromFile_ValidConfig(t *testing.T) {
	isolate(t)
	path := createTempConfigFile(t, validConfigYAML)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Dimensions.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Dimensions.Timeout)
	assert.Equal(t, "grid.4991.5", cfg.Query.GridID)
	assert.Equal(t, 2018, cfg.Query.MinYear)
	assert.Equal(t, []string{"csv", "parquet"}, cfg.Output.Formats)
	assert.Equal(t, []string{"localfs", "postgres"}, cfg.EnabledSinks())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "exporter", cfg.Database.Username)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "http://pushgateway:9091", cfg.Metrics.PushgatewayURL)
	assert.Equal(t, "json", cfg.Log.Format)

	// defaults fill what the file leaves out
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 1000, cfg.Query.Limit)
	assert.Equal(t, "2006_01_02", cfg.Export.DateLayout)
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	isolate(t)
	_, err := LoadFromFile("non_existent_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	isolate(t)
	path := createTempConfigFile(t, "export: [")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFile_ValidationFailure(t *testing.T) {
	isolate(t)
	path := createTempConfigFile(t, "export:\n  sinks: [\"ftp\"]\n")
	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("DIMPAT_QUERY_GRID_ID", "grid.1.a")
	t.Setenv("DIMPAT_DATABASE_PORT", "6543")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "grid.1.a", cfg.Query.GridID)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DIMPAT_DIMENSIONS_API_KEY", "env-key")
	t.Setenv("DIMPAT_EXPORT_SINKS", "localfs,kafka")
	t.Setenv("DIMPAT_EXPORT_TIMEOUT", "45s")
	t.Setenv("DIMPAT_EXPORT_STRICT", "true")
	t.Setenv("DIMPAT_KAFKA_BROKERS", "broker:9092")

	cfg, err := LoadFromEnv()

	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Dimensions.APIKey)
	assert.Equal(t, []string{"localfs", "kafka"}, cfg.Export.Sinks)
	assert.Equal(t, 45*time.Second, cfg.Export.Timeout)
	assert.True(t, cfg.Export.Strict)
	assert.Equal(t, []string{"broker:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte("query:\n  min_year: 2001\n"), 0o644))

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 2001, cfg.Query.MinYear)
}

func TestLoad_SearchesHomeDirectory(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".dimpat"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".dimpat", "config.yaml"), []byte("query:\n  max_year: 2030\n"), 0o644))

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 2030, cfg.Query.MaxYear)
}

func TestLoad_NoFileFallsBackToDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGridID, cfg.Query.GridID)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	unsetEnv(t, "DIMPAT_DIMENSIONS_API_KEY")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DIMPAT_DIMENSIONS_API_KEY=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DIMPAT_DIMENSIONS_API_KEY") })

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Dimensions.APIKey)
}

func TestMustLoad_Panics(t *testing.T) {
	isolate(t)
	assert.Panics(t, func() { MustLoad("missing.yaml") })
}

//Personal.AI order the ending
