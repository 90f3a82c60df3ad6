package cli

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/config"
	"github.com/turtacn/dimpat/internal/infrastructure/database/neo4j"
	"github.com/turtacn/dimpat/internal/infrastructure/database/postgres"
	"github.com/turtacn/dimpat/internal/infrastructure/database/redis"
	"github.com/turtacn/dimpat/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/dimpat/internal/infrastructure/search/opensearch"
	"github.com/turtacn/dimpat/internal/infrastructure/source"
	"github.com/turtacn/dimpat/internal/infrastructure/storage/localfs"
	"github.com/turtacn/dimpat/internal/infrastructure/storage/minio"
	"github.com/turtacn/dimpat/pkg/client"
	"github.com/turtacn/dimpat/pkg/errors"
)

// resources holds everything a run opened.  Close releases it in reverse
// order of acquisition.
type resources struct {
	source  export.Source
	sinks   []export.Sink
	locker  export.Locker
	metrics *runMetrics
	closers []func() error
}

func (r *resources) onClose(f func() error) {
	r.closers = append(r.closers, f)
}

func (r *resources) Close() error {
	if r == nil {
		return nil
	}
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i]())
	}
	r.closers = nil
	return err
}

// buildResources connects the source, the enabled sinks, the optional redis
// cache and lock, and the metrics collector.  On error everything opened so
// far is closed.
func buildResources(ctx context.Context, cfg *config.Config, log logging.Logger) (_ *resources, err error) {
	res := &resources{}
	defer func() {
		if err != nil {
			if cerr := res.Close(); cerr != nil {
				log.Warn("Failed to release resources", logging.Err(cerr))
			}
		}
	}()

	var rc *redis.Client
	if cfg.Redis.Enabled {
		rcfg := cfg.Redis
		rc, err = redis.NewClient(&rcfg, log.Named("redis"))
		if err != nil {
			return nil, err
		}
		res.onClose(rc.Close)
		res.locker = redis.NewRunLocker(rc, log.Named("lock"))
	}

	if res.source, err = buildSource(cfg, log, rc); err != nil {
		return nil, err
	}

	for _, name := range cfg.EnabledSinks() {
		sink, serr := buildSink(ctx, name, cfg, log.Named(name), res)
		if serr != nil {
			return nil, errors.Wrap(serr, errors.CodeUnknown, "initialize sink").WithDetail(name)
		}
		res.sinks = append(res.sinks, sink)
	}

	if res.metrics, err = newRunMetrics(cfg.Metrics, log.Named("metrics")); err != nil {
		return nil, err
	}
	return res, nil
}

// buildSource returns the saved-response replay when query.input is set and
// the Dimensions API otherwise.  API results go through the redis cache when
// redis is enabled.
func buildSource(cfg *config.Config, log logging.Logger, rc *redis.Client) (export.Source, error) {
	if cfg.Query.Input != "" {
		return source.NewJSONFile(cfg.Query.Input, log.Named("source")), nil
	}
	if cfg.Dimensions.APIKey == "" {
		return nil, errors.InvalidParam("dimensions.api_key is required").
			WithDetail("set DIMPAT_DIMENSIONS_API_KEY or pass --input to replay a saved response")
	}

	opts := []client.Option{
		client.WithTimeout(cfg.Dimensions.Timeout),
		client.WithRetryMax(cfg.Dimensions.RetryMax),
		client.WithRetryWait(cfg.Dimensions.RetryWaitMin, cfg.Dimensions.RetryWaitMax),
		client.WithLogger(logging.NewPrintfAdapter(log.Named("client"))),
	}
	if cfg.Dimensions.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(cfg.Dimensions.UserAgent))
	}
	c, err := client.NewClient(cfg.Dimensions.BaseURL, cfg.Dimensions.APIKey, opts...)
	if err != nil {
		return nil, err
	}

	var src export.Source = export.NewAPISource(c)
	if rc != nil {
		cache := redis.NewRedisCache(rc, log.Named("cache"))
		src = redis.NewCachedSource(src, cache, rc.Config().CacheTTL, log.Named("cache"))
	}
	return src, nil
}

func buildSink(ctx context.Context, name string, cfg *config.Config, log logging.Logger, res *resources) (export.Sink, error) {
	switch name {
	case config.SinkLocalFS:
		return localfs.NewSink(cfg.Output.Dir, cfg.Output.Formats, log)

	case config.SinkMinIO:
		mcfg := cfg.MinIO
		if len(mcfg.Formats) == 0 {
			mcfg.Formats = cfg.Output.Formats
		}
		mc, err := minio.NewMinIOClient(&mcfg, log)
		if err != nil {
			return nil, err
		}
		return minio.NewSink(mc, log)

	case config.SinkPostgres:
		conn, err := postgres.NewConnection(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		res.onClose(conn.Close)
		if cfg.Database.AutoMigrate {
			if err := conn.Migrate(); err != nil {
				return nil, err
			}
		}
		return postgres.NewSink(conn, log), nil

	case config.SinkKafka:
		p, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			return nil, err
		}
		res.onClose(p.Close)
		if cfg.Kafka.EnsureTopics {
			if err := ensureTopics(ctx, p.Config(), log); err != nil {
				return nil, err
			}
		}
		return kafka.NewSink(p, log), nil

	case config.SinkOpenSearch:
		c, err := opensearch.NewClient(cfg.OpenSearch, log)
		if err != nil {
			return nil, err
		}
		return opensearch.NewSink(c, log), nil

	case config.SinkNeo4j:
		d, err := neo4j.NewDriver(cfg.Neo4j, log)
		if err != nil {
			return nil, err
		}
		res.onClose(d.Close)
		s := neo4j.NewSink(d, log)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.InvalidParam(fmt.Sprintf("unknown sink %q", name))
}

func ensureTopics(ctx context.Context, cfg kafka.ProducerConfig, log logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, log)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.ExtractTopics(cfg))
}

// ─────────────────────────────────────────────────────────────────────────────
// Run metrics
// ─────────────────────────────────────────────────────────────────────────────

// runMetrics owns the collector of one run and publishes it when the run
// ends.  A nil *runMetrics records nothing.
type runMetrics struct {
	cfg       prometheus.MetricsConfig
	collector prometheus.MetricsCollector
	recorder  *prometheus.PipelineMetrics
	logger    logging.Logger
}

func newRunMetrics(cfg prometheus.MetricsConfig, log logging.Logger) (*runMetrics, error) {
	if !cfg.Enabled && cfg.PushgatewayURL == "" && cfg.TextfilePath == "" {
		return nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: cfg.Namespace}, log)
	if err != nil {
		return nil, err
	}
	return &runMetrics{
		cfg:       cfg,
		collector: collector,
		recorder:  prometheus.NewPipelineMetrics(collector),
		logger:    log,
	}, nil
}

// options returns the pipeline option wiring the recorder, if any.
func (m *runMetrics) options() []export.Option {
	if m == nil {
		return nil
	}
	return []export.Option{export.WithRecorder(m.recorder)}
}

// publish pushes to the Pushgateway and writes the textfile.  Failures are
// logged; they never fail the run.
func (m *runMetrics) publish(ctx context.Context, gridID string) {
	if m == nil {
		return
	}
	if m.cfg.PushgatewayURL != "" {
		err := prometheus.NewPusher(m.cfg, m.logger).Push(ctx, m.collector, map[string]string{"grid_id": gridID})
		if err != nil {
			m.logger.Warn("Failed to push metrics", logging.Err(err))
		}
	}
	if m.cfg.TextfilePath != "" {
		if err := m.collector.WriteTextfile(m.cfg.TextfilePath); err != nil {
			m.logger.Warn("Failed to write metrics textfile", logging.Err(err))
		}
	}
}

//Personal.AI order the ending
