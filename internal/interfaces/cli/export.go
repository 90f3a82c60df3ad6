package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/config"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/client"
)

// exportOptions are the flags of the export command.  Zero values leave the
// configuration untouched.
type exportOptions struct {
	gridID   string
	minYear  int
	maxYear  int
	limit    int
	input    string
	outDir   string
	formats  []string
	sinks    []string
	extracts []string
	runDate  string
	strict   bool
}

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch an organization's patents and write the extracts",
		Long: `Fetch every patent assigned to a GRID organization within a range of years,
normalize the records into the five extracts and write each extract to every
enabled sink.  A failed write is reported but never stops the other writes.`,
		Example: `  dimpat export --grid grid.6268.a --from 2014 --to 2024
  dimpat export --input saved.json --out ./data --format csv,parquet
  dimpat export --sinks localfs,postgres --run-date 2024_01_31 --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.gridID, "grid", "", "GRID id of the organization (default: query.grid_id)")
	f.IntVar(&opts.minYear, "from", 0, "first publication year (default: query.min_year)")
	f.IntVar(&opts.maxYear, "to", 0, "last publication year (default: query.max_year)")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of patents (1-1000)")
	f.StringVar(&opts.input, "input", "", "replay a saved DSL response instead of calling the API")
	f.StringVar(&opts.outDir, "out", "", "output directory of the localfs sink (default: output.dir)")
	f.StringSliceVar(&opts.formats, "format", nil, "file formats: csv, xlsx, parquet")
	f.StringSliceVar(&opts.sinks, "sinks", nil, "sinks to write: "+strings.Join(config.KnownSinks, ", "))
	f.StringSliceVar(&opts.extracts, "extracts", nil, "restrict the run to these extracts")
	f.StringVar(&opts.runDate, "run-date", "", "run date prefix of every output (default: today)")
	f.BoolVar(&opts.strict, "strict", false, "fail when the result set was truncated at the limit")

	return cmd
}

// apply overlays the flags on cfg and revalidates it.
func (o *exportOptions) apply(cfg *config.Config) error {
	if o.gridID != "" {
		cfg.Query.GridID = o.gridID
	}
	if o.minYear != 0 {
		cfg.Query.MinYear = o.minYear
	}
	if o.maxYear != 0 {
		cfg.Query.MaxYear = o.maxYear
	}
	if o.limit != 0 {
		cfg.Query.Limit = o.limit
	}
	if o.input != "" {
		cfg.Query.Input = o.input
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if len(o.formats) > 0 {
		cfg.Output.Formats = o.formats
	}
	if len(o.sinks) > 0 {
		cfg.Export.Sinks = o.sinks
	}
	if len(o.extracts) > 0 {
		cfg.Export.Extracts = o.extracts
	}
	if o.strict {
		cfg.Export.Strict = true
	}
	return cfg.Validate()
}

func patentQuery(cfg *config.Config) client.PatentQuery {
	return client.PatentQuery{
		GridID:  cfg.Query.GridID,
		MinYear: cfg.Query.MinYear,
		MaxYear: cfg.Query.MaxYear,
		Limit:   cfg.Query.Limit,
	}
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := *cliCtx.Config
	if err := opts.apply(&cfg); err != nil {
		return err
	}
	q := patentQuery(&cfg)
	if err := q.Validate(); err != nil {
		return err
	}
	log := cliCtx.Logger

	ctx := cmd.Context()
	if cliCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliCtx.Timeout)
		defer cancel()
	}

	res, err := buildResources(ctx, &cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Close(); cerr != nil {
			log.Warn("Failed to release resources", logging.Err(cerr))
		}
	}()

	pipelineOpts := []export.Option{
		export.WithLogger(log.Named("export")),
		export.WithDateLayout(cfg.Export.DateLayout),
		export.WithConcurrency(cfg.Export.Concurrency),
	}
	if res.locker != nil {
		pipelineOpts = append(pipelineOpts, export.WithLocker(res.locker))
	}
	pipelineOpts = append(pipelineOpts, res.metrics.options()...)

	pipeline := export.NewPipeline(res.source, res.sinks, pipelineOpts...)
	report, runErr := pipeline.Run(ctx, export.Request{
		Query:    q,
		RunDate:  opts.runDate,
		Extracts: cfg.Export.Extracts,
		Strict:   cfg.Export.Strict,
	})
	res.metrics.publish(context.WithoutCancel(ctx), q.GridID)

	if report == nil {
		return runErr
	}
	if cliCtx.OutputFormat != "json" {
		for _, w := range report.Warnings {
			PrintWarning(cmd, w)
		}
	}
	if err := PrintResult(cmd, newExportView(report)); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%d of %d writes failed", len(report.Failures), len(report.Failures)+len(report.Writes))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Report rendering
// ─────────────────────────────────────────────────────────────────────────────

// exportView renders an export.Report for every output format.
type exportView struct {
	*export.Report
	FailureText []string `json:"failures,omitempty"`
}

func newExportView(r *export.Report) *exportView {
	return &exportView{Report: r, FailureText: r.FailureMessages()}
}

func (v *exportView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s (%s): %d patents", v.RunID, v.RunDate, v.Records)
	if v.Truncated {
		fmt.Fprintf(&sb, " of %d", v.TotalCount)
	}
	fmt.Fprintf(&sb, " in %s\n", v.Duration.Round(time.Millisecond))
	for _, e := range v.Extracts {
		fmt.Fprintf(&sb, "  %-20s %6d rows\n", e.Name, e.Rows)
	}
	for _, w := range v.Writes {
		fmt.Fprintf(&sb, "%s %s/%s -> %s\n", color.GreenString("OK"), w.Sink, w.Extract, w.Location)
	}
	for _, f := range v.FailureText {
		fmt.Fprintf(&sb, "%s %s\n", color.RedString("FAILED"), f)
	}
	return sb.String()
}

func (v *exportView) TableHeaders() []string {
	return []string{"Sink", "Extract", "Rows", "Status", "Location"}
}

func (v *exportView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Writes)+len(v.Failures))
	for _, w := range v.Writes {
		rows = append(rows, []string{w.Sink, w.Extract, strconv.Itoa(w.Rows), "ok", w.Location})
	}
	for _, f := range v.Failures {
		rows = append(rows, []string{f.Sink, f.Extract, "", "failed", f.Cause.Error()})
	}
	return rows
}

//Personal.AI order the ending
