package config

import (
	"time"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/pkg/client"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultBaseURL      = client.DefaultBaseURL
	DefaultAPITimeout   = 60 * time.Second
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 1 * time.Second
	DefaultRetryWaitMax = 30 * time.Second

	DefaultGridID  = "grid.6268.a"
	DefaultMinYear = 2014
	DefaultMaxYear = 2024
	DefaultLimit   = client.DefaultLimit

	DefaultOutputDir    = "data"
	DefaultOutputFormat = "csv"

	DefaultSink        = SinkLocalFS
	DefaultConcurrency = export.DefaultConcurrency
	DefaultDateLayout  = export.DefaultDateLayout
	DefaultRunTimeout  = 10 * time.Minute

	DefaultRedisAddr     = "localhost:6379"
	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "dimpat-exports"
	DefaultDBHost        = "localhost"
	DefaultDBPort        = 5432
	DefaultDBName        = "dimpat"
	DefaultKafkaBroker   = "localhost:9092"
	DefaultOpenSearchURL = "http://localhost:9200"
	DefaultNeo4jURI      = "bolt://localhost:7687"

	DefaultMetricsNamespace = "dimpat"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// ApplyDefaults fills every zero-value field in cfg with the default.  Values
// that were set explicitly are left unchanged.  Tunables owned by an
// infrastructure package (pool sizes, batch sizes, timeouts) are defaulted by
// that package's constructor.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Dimensions ────────────────────────────────────────────────────────────
	if cfg.Dimensions.BaseURL == "" {
		cfg.Dimensions.BaseURL = DefaultBaseURL
	}
	if cfg.Dimensions.Timeout == 0 {
		cfg.Dimensions.Timeout = DefaultAPITimeout
	}
	if cfg.Dimensions.RetryMax == 0 {
		cfg.Dimensions.RetryMax = DefaultRetryMax
	}
	if cfg.Dimensions.RetryWaitMin == 0 {
		cfg.Dimensions.RetryWaitMin = DefaultRetryWaitMin
	}
	if cfg.Dimensions.RetryWaitMax == 0 {
		cfg.Dimensions.RetryWaitMax = DefaultRetryWaitMax
	}

	// ── Query ─────────────────────────────────────────────────────────────────
	if cfg.Query.GridID == "" {
		cfg.Query.GridID = DefaultGridID
	}
	if cfg.Query.MinYear == 0 {
		cfg.Query.MinYear = DefaultMinYear
	}
	if cfg.Query.MaxYear == 0 {
		cfg.Query.MaxYear = DefaultMaxYear
	}
	if cfg.Query.Limit == 0 {
		cfg.Query.Limit = DefaultLimit
	}

	// ── Output ────────────────────────────────────────────────────────────────
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{DefaultOutputFormat}
	}

	// ── Export ────────────────────────────────────────────────────────────────
	if len(cfg.Export.Sinks) == 0 {
		cfg.Export.Sinks = []string{DefaultSink}
	}
	if cfg.Export.Concurrency == 0 {
		cfg.Export.Concurrency = DefaultConcurrency
	}
	if cfg.Export.DateLayout == "" {
		cfg.Export.DateLayout = DefaultDateLayout
	}
	if cfg.Export.Timeout == 0 {
		cfg.Export.Timeout = DefaultRunTimeout
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" && len(cfg.Redis.ClusterAddrs) == 0 && len(cfg.Redis.SentinelAddrs) == 0 {
		cfg.Redis.Addr = DefaultRedisAddr
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// ── Kafka / OpenSearch / Neo4j ────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchURL}
	}
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
