package prometheus

import (
	"time"
)

// MetricsConfig controls pipeline metrics.
type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Namespace      string        `mapstructure:"namespace"`
	PushgatewayURL string        `mapstructure:"pushgateway_url"`
	JobName        string        `mapstructure:"job_name"`
	PushTimeout    time.Duration `mapstructure:"push_timeout"`
	TextfilePath   string        `mapstructure:"textfile_path"`
}

// Default Buckets
var (
	DefaultSinkDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultRunDurationBuckets  = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800}
)

// PipelineMetrics records one export run.  It satisfies export.Recorder.
type PipelineMetrics struct {
	collector MetricsCollector

	RecordsFetchedTotal CounterVec
	ExtractRowsTotal    GaugeVec
	SinkWritesTotal     CounterVec
	SinkWriteDuration   HistogramVec
	WarningsTotal       CounterVec
	RunDuration         HistogramVec
	LastRunTimestamp    GaugeVec
}

// NewPipelineMetrics registers all metrics on collector.
func NewPipelineMetrics(collector MetricsCollector) *PipelineMetrics {
	m := &PipelineMetrics{collector: collector}

	m.RecordsFetchedTotal = collector.RegisterCounter("records_fetched_total", "Patent records returned by the source")
	m.ExtractRowsTotal = collector.RegisterGauge("extract_rows", "Rows produced per extract in the last run", "extract")
	m.SinkWritesTotal = collector.RegisterCounter("sink_writes_total", "Extract writes per sink", "sink", "extract", "status")
	m.SinkWriteDuration = collector.RegisterHistogram("sink_write_duration_seconds", "Extract write duration", DefaultSinkDurationBuckets, "sink")
	m.WarningsTotal = collector.RegisterCounter("warnings_total", "Non-fatal record warnings", "kind")
	m.RunDuration = collector.RegisterHistogram("run_duration_seconds", "Export run duration", DefaultRunDurationBuckets, "status")
	m.LastRunTimestamp = collector.RegisterGauge("last_run_timestamp_seconds", "Unix time the last run finished", "status")

	return m
}

// Collector returns the collector the metrics are registered on.
func (m *PipelineMetrics) Collector() MetricsCollector { return m.collector }

func (m *PipelineMetrics) RecordsFetched(n int) {
	m.RecordsFetchedTotal.WithLabelValues().Add(float64(n))
}

func (m *PipelineMetrics) ExtractRows(extract string, n int) {
	m.ExtractRowsTotal.WithLabelValues(extract).Set(float64(n))
}

func (m *PipelineMetrics) SinkWrite(sink, extract string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SinkWritesTotal.WithLabelValues(sink, extract, status).Inc()
	m.SinkWriteDuration.WithLabelValues(sink).Observe(d.Seconds())
}

func (m *PipelineMetrics) Warning(kind string) {
	m.WarningsTotal.WithLabelValues(kind).Inc()
}

func (m *PipelineMetrics) RunCompleted(status string, d time.Duration) {
	m.RunDuration.WithLabelValues(status).Observe(d.Seconds())
	m.LastRunTimestamp.WithLabelValues(status).SetToCurrentTime()
}

//Personal.AI order the ending
