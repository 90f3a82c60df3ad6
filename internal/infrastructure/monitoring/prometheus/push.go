package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

// Pusher sends a collector's metrics to a Pushgateway at the end of a run.
type Pusher struct {
	url     string
	job     string
	timeout time.Duration
	logger  logging.Logger
}

func NewPusher(cfg MetricsConfig, logger logging.Logger) *Pusher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	job := cfg.JobName
	if job == "" {
		job = "dimpat_export"
	}
	timeout := cfg.PushTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Pusher{url: cfg.PushgatewayURL, job: job, timeout: timeout, logger: logger}
}

// Push replaces the metrics grouped under the job and grouping labels.
func (p *Pusher) Push(ctx context.Context, collector MetricsCollector, grouping map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pusher := push.New(p.url, p.job).
		Gatherer(collector.Gatherer()).
		Client(&http.Client{Timeout: p.timeout})
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to push metrics").WithDetail(p.url)
	}
	p.logger.Debug("Metrics pushed", logging.String("url", p.url), logging.String("job", p.job))
	return nil
}

//Personal.AI order the ending
