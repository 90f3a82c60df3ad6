// Package config defines the configuration of the dimpat exporter.  The
// structures here are plain data plus validation; the infrastructure sections
// reuse the config types of the packages that consume them.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/turtacn/dimpat/internal/infrastructure/database/neo4j"
	"github.com/turtacn/dimpat/internal/infrastructure/database/postgres"
	"github.com/turtacn/dimpat/internal/infrastructure/database/redis"
	"github.com/turtacn/dimpat/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/dimpat/internal/infrastructure/search/opensearch"
	"github.com/turtacn/dimpat/internal/infrastructure/storage/minio"
	"github.com/turtacn/dimpat/internal/infrastructure/tabular"
	"github.com/turtacn/dimpat/pkg/client"
)

// Sink names accepted by export.sinks.
const (
	SinkLocalFS    = "localfs"
	SinkMinIO      = "minio"
	SinkPostgres   = "postgres"
	SinkKafka      = "kafka"
	SinkOpenSearch = "opensearch"
	SinkNeo4j      = "neo4j"
)

// KnownSinks lists every sink in the order the CLI builds them.
var KnownSinks = []string{SinkLocalFS, SinkMinIO, SinkPostgres, SinkKafka, SinkOpenSearch, SinkNeo4j}

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// DimensionsConfig holds the API endpoint and credentials.
type DimensionsConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max"`
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// QueryConfig selects the organization and publication years.
type QueryConfig struct {
	GridID  string `mapstructure:"grid_id"`
	MinYear int    `mapstructure:"min_year"`
	MaxYear int    `mapstructure:"max_year"`
	Limit   int    `mapstructure:"limit"`

	// Input replays a saved DSL response instead of calling the API.
	Input string `mapstructure:"input"`
}

// OutputConfig controls the localfs sink.
type OutputConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"` // csv | xlsx | parquet
}

// ExportConfig controls a run.
type ExportConfig struct {
	Sinks       []string      `mapstructure:"sinks"`
	Extracts    []string      `mapstructure:"extracts"`
	Concurrency int           `mapstructure:"concurrency"`
	DateLayout  string        `mapstructure:"date_layout"`
	Strict      bool          `mapstructure:"strict"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration.
type Config struct {
	Dimensions DimensionsConfig         `mapstructure:"dimensions"`
	Query      QueryConfig              `mapstructure:"query"`
	Output     OutputConfig             `mapstructure:"output"`
	Export     ExportConfig             `mapstructure:"export"`
	Redis      redis.RedisConfig        `mapstructure:"redis"`
	MinIO      minio.MinIOConfig        `mapstructure:"minio"`
	Database   postgres.PostgresConfig  `mapstructure:"database"`
	Kafka      kafka.ProducerConfig     `mapstructure:"kafka"`
	OpenSearch opensearch.ClientConfig  `mapstructure:"opensearch"`
	Neo4j      neo4j.Neo4jConfig        `mapstructure:"neo4j"`
	Metrics    prometheus.MetricsConfig `mapstructure:"metrics"`
	Log        logging.LogConfig        `mapstructure:"log"`
}

// EnabledSinks returns export.sinks plus every sink section switched on with
// enabled: true, deduplicated, in KnownSinks order.
func (c *Config) EnabledSinks() []string {
	on := map[string]bool{
		SinkMinIO:      c.MinIO.Enabled,
		SinkPostgres:   c.Database.Enabled,
		SinkKafka:      c.Kafka.Enabled,
		SinkOpenSearch: c.OpenSearch.Enabled,
		SinkNeo4j:      c.Neo4j.Enabled,
	}
	for _, s := range c.Export.Sinks {
		on[strings.ToLower(strings.TrimSpace(s))] = true
	}
	out := make([]string, 0, len(KnownSinks))
	for _, s := range KnownSinks {
		if on[s] {
			out = append(out, s)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a defaulted Config and returns the
// first problem found.  Connection settings are checked only for the sinks
// that will run.
func (c *Config) Validate() error {
	// Query
	if c.Query.MinYear > 0 && c.Query.MaxYear > 0 && c.Query.MinYear > c.Query.MaxYear {
		return fmt.Errorf("config: query.min_year %d is after query.max_year %d", c.Query.MinYear, c.Query.MaxYear)
	}
	if c.Query.Limit < 0 || c.Query.Limit > client.MaxLimit {
		return fmt.Errorf("config: query.limit %d is out of range [1, %d]", c.Query.Limit, client.MaxLimit)
	}

	// Export
	for _, s := range c.Export.Sinks {
		if !slices.Contains(KnownSinks, strings.ToLower(strings.TrimSpace(s))) {
			return fmt.Errorf("config: export.sinks: unknown sink %q; expected one of %s", s, strings.Join(KnownSinks, "|"))
		}
	}
	if len(c.EnabledSinks()) == 0 {
		return fmt.Errorf("config: no sinks enabled")
	}
	if c.Export.Concurrency < 1 {
		return fmt.Errorf("config: export.concurrency must be ≥ 1, got %d", c.Export.Concurrency)
	}
	if c.Export.DateLayout == "" {
		return fmt.Errorf("config: export.date_layout is required")
	}

	// Output
	for _, f := range c.Output.Formats {
		if _, err := tabular.ForFormat(f); err != nil {
			return fmt.Errorf("config: output.formats: unsupported format %q; expected csv|xlsx|parquet", f)
		}
	}

	for _, s := range c.EnabledSinks() {
		if err := c.validateSink(s); err != nil {
			return err
		}
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" && len(c.Redis.ClusterAddrs) == 0 && len(c.Redis.SentinelAddrs) == 0 {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

func (c *Config) validateSink(name string) error {
	switch name {
	case SinkLocalFS:
		if c.Output.Dir == "" {
			return fmt.Errorf("config: output.dir is required for the localfs sink")
		}
	case SinkMinIO:
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required for the minio sink")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required for the minio sink")
		}
	case SinkPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required for the postgres sink")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("config: database.database is required for the postgres sink")
		}
	case SinkKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
	case SinkOpenSearch:
		if len(c.OpenSearch.Addresses) == 0 {
			return fmt.Errorf("config: opensearch.addresses must contain at least one address")
		}
	case SinkNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("config: neo4j.uri is required for the neo4j sink")
		}
	}
	return nil
}

//Personal.AI order the ending
