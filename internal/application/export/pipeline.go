// Package export orchestrates one extraction run: fetch the organization's
// patents, normalize them into the five extracts and hand every extract to
// every configured sink.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/client"
	"github.com/turtacn/dimpat/pkg/errors"
)

const (
	// DefaultDateLayout renders run dates as 2024_01_31.
	DefaultDateLayout = "2006_01_02"

	DefaultConcurrency = 4
)

// Request describes one run.
type Request struct {
	Query client.PatentQuery

	// RunDate overrides the date prefix of every output name.  When empty the
	// pipeline clock formatted with the date layout is used.
	RunDate string

	// Extracts restricts the run to the named extracts.  Empty means all five.
	Extracts []string

	// Strict turns a truncated result set into a fatal error.
	Strict bool
}

// ExtractSummary counts the rows produced for one extract.
type ExtractSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Report is the outcome of a run.  It is returned even when some writes
// failed.
type Report struct {
	RunID      string            `json:"run_id"`
	RunDate    string            `json:"run_date"`
	Query      string            `json:"query"`
	Records    int               `json:"records"`
	TotalCount int               `json:"total_count"`
	Truncated  bool              `json:"truncated"`
	Extracts   []ExtractSummary  `json:"extracts"`
	Writes     []*WriteResult    `json:"writes"`
	Failures   []*SinkWriteError `json:"-"`
	Warnings   []string          `json:"warnings,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
}

// FailureMessages renders Failures for display.
func (r *Report) FailureMessages() []string {
	out := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Error()
	}
	return out
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithDateLayout sets the Go time layout used for run dates.
func WithDateLayout(layout string) Option {
	return func(p *Pipeline) { p.dateLayout = layout }
}

// WithConcurrency bounds the number of concurrent sink writes.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// WithLocker serializes runs writing the same organization and run date.
func WithLocker(l Locker) Option {
	return func(p *Pipeline) { p.locker = l }
}

// Locker hands out exclusive leases on a key.  The returned release func
// gives the lease back.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// Pipeline wires a Source, the Normalizer and a set of Sinks.
type Pipeline struct {
	source      Source
	normalizer  *extract.Normalizer
	sinks       []Sink
	locker      Locker
	logger      logging.Logger
	metrics     Recorder
	now         func() time.Time
	dateLayout  string
	concurrency int
}

// NewPipeline constructs a Pipeline.
func NewPipeline(source Source, sinks []Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:      source,
		sinks:       sinks,
		logger:      logging.NewNopLogger(),
		metrics:     nopRecorder{},
		now:         time.Now,
		dateLayout:  DefaultDateLayout,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultConcurrency
	}
	p.normalizer = extract.NewNormalizer(p.logger.Named("normalizer"))
	return p
}

// Run executes one extraction.  Fetch, truncation (when strict), key and
// selection errors abort the run and return a nil Report.  Sink failures do
// not: the Report lists them and the returned error combines them.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	start := p.now()
	report := &Report{
		RunID:     uuid.NewString(),
		RunDate:   req.RunDate,
		Query:     client.BuildPatentDSL(req.Query.WithDefaults()),
		StartedAt: start,
	}
	if report.RunDate == "" {
		report.RunDate = start.Format(p.dateLayout)
	} else if _, err := time.Parse(p.dateLayout, report.RunDate); err != nil {
		return nil, errors.InvalidParam("run date does not match the date layout").
			WithDetail(fmt.Sprintf("run_date=%q layout=%q", report.RunDate, p.dateLayout))
	}
	log := p.logger.With(logging.String("run_id", report.RunID), logging.String("run_date", report.RunDate))
	ctx = WithRunID(ctx, report.RunID)

	if len(p.sinks) == 0 {
		return nil, errors.InvalidParam("no sinks configured")
	}

	fail := func(err error) (*Report, error) {
		p.metrics.RunCompleted("failed", p.now().Sub(start))
		log.Error("run failed", logging.Err(err))
		return nil, err
	}

	log.Info("fetching patents",
		logging.String("grid_id", req.Query.GridID),
		logging.Int("min_year", req.Query.MinYear),
		logging.Int("max_year", req.Query.MaxYear))
	res, err := p.source.Fetch(ctx, req.Query)
	if err != nil {
		return fail(errors.Wrap(err, errors.CodeUnknown, "fetch patents"))
	}
	if res == nil {
		return fail(errors.New(errors.CodeDataSourceParseError, "source returned no result"))
	}
	report.Records = len(res.Patents)
	report.TotalCount = res.Stats.TotalCount
	report.Truncated = res.Truncated()
	p.metrics.RecordsFetched(report.Records)

	if report.Truncated {
		msg := "result truncated at query limit"
		if req.Strict {
			return fail(errors.New(errors.CodeDataSourceTruncated, msg).
				WithDetail(fmtCounts(report.Records, report.TotalCount)))
		}
		log.Warn(msg, logging.Int("returned", report.Records), logging.Int("total", report.TotalCount))
		report.Warnings = append(report.Warnings, msg+": "+fmtCounts(report.Records, report.TotalCount))
		p.metrics.Warning("truncated")
	}

	normalized, err := p.normalizer.Normalize(ctx, res.Patents)
	if err != nil {
		return fail(err)
	}
	for _, w := range normalized.Warnings {
		report.Warnings = append(report.Warnings, w.Error())
		p.metrics.Warning("malformed_category")
	}

	tables, err := normalized.Select(req.Extracts)
	if err != nil {
		return fail(err)
	}
	for _, t := range tables {
		report.Extracts = append(report.Extracts, ExtractSummary{Name: t.Name, Rows: t.Len()})
		p.metrics.ExtractRows(t.Name, t.Len())
	}

	if p.locker != nil {
		release, err := p.locker.Acquire(ctx, req.Query.GridID+":"+report.RunDate)
		if err != nil {
			return fail(errors.Wrap(err, errors.CodeUnknown, "acquire run lock"))
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release run lock", logging.Err(err))
			}
		}()
	}

	report.Writes, report.Failures = p.writeAll(ctx, log, report.RunDate, tables)
	report.Duration = p.now().Sub(start)

	if len(report.Failures) > 0 {
		p.metrics.RunCompleted("partial", report.Duration)
		var combined error
		for _, f := range report.Failures {
			combined = multierr.Append(combined, f)
		}
		log.Warn("run finished with failed writes",
			logging.Int("failed", len(report.Failures)),
			logging.Int("written", len(report.Writes)))
		return report, combined
	}

	p.metrics.RunCompleted("success", report.Duration)
	log.Info("run finished",
		logging.Int("records", report.Records),
		logging.Int("writes", len(report.Writes)),
		logging.Duration("elapsed", report.Duration))
	return report, nil
}

// writeAll hands every table to every sink.  Results keep table-major,
// sink-minor order regardless of completion order.
func (p *Pipeline) writeAll(ctx context.Context, log logging.Logger, runDate string, tables []*extract.Table) ([]*WriteResult, []*SinkWriteError) {
	n := len(tables) * len(p.sinks)
	results := make([]*WriteResult, n)
	failures := make([]*SinkWriteError, n)

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	for ti, t := range tables {
		for si, s := range p.sinks {
			slot, t, s := ti*len(p.sinks)+si, t, s
			g.Go(func() error {
				begin := time.Now()
				res, err := s.Write(ctx, runDate, t)
				p.metrics.SinkWrite(s.Name(), t.Name, err, time.Since(begin))
				if err != nil {
					failures[slot] = &SinkWriteError{Sink: s.Name(), Extract: t.Name, Cause: err}
					log.Error("sink write failed",
						logging.String("sink", s.Name()),
						logging.String("extract", t.Name),
						logging.Err(err))
					return nil
				}
				if res == nil {
					res = &WriteResult{Sink: s.Name(), Extract: t.Name, Rows: t.Len()}
				}
				results[slot] = res
				log.Debug("sink write done",
					logging.String("sink", s.Name()),
					logging.String("extract", t.Name),
					logging.Int("rows", t.Len()))
				return nil
			})
		}
	}
	_ = g.Wait()

	var written []*WriteResult
	var failed []*SinkWriteError
	for i := 0; i < n; i++ {
		if results[i] != nil {
			written = append(written, results[i])
		}
		if failures[i] != nil {
			failed = append(failed, failures[i])
		}
	}
	return written, failed
}

func fmtCounts(returned, total int) string {
	return fmt.Sprintf("returned=%d total=%d", returned, total)
}

//Personal.AI order the ending
