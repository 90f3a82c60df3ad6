package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/config"
	"github.com/turtacn/dimpat/internal/infrastructure/database/redis"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
)

// checkResult is the outcome of checking one component.
type checkResult struct {
	Component string        `json:"component"`
	OK        bool          `json:"ok"`
	Latency   time.Duration `json:"latency"`
	Error     string        `json:"error,omitempty"`
}

type checkReport []checkResult

func (r checkReport) failed() int {
	n := 0
	for _, c := range r {
		if !c.OK {
			n++
		}
	}
	return n
}

func (r checkReport) String() string {
	var sb strings.Builder
	for _, c := range r {
		if c.OK {
			fmt.Fprintf(&sb, "%s %-10s %s\n", color.GreenString("OK    "), c.Component, c.Latency.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(&sb, "%s %-10s %s\n", color.RedString("FAILED"), c.Component, c.Error)
	}
	return sb.String()
}

func (r checkReport) TableHeaders() []string {
	return []string{"Component", "Status", "Latency", "Error"}
}

func (r checkReport) TableRows() [][]string {
	rows := make([][]string, len(r))
	for i, c := range r {
		status := "ok"
		if !c.OK {
			status = "failed"
		}
		rows[i] = []string{c.Component, status, c.Latency.Round(time.Millisecond).String(), c.Error}
	}
	return rows
}

// NewCheckCmd creates the check command, which connects the source and every
// enabled sink without writing anything.
func NewCheckCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the record source and every enabled sink",
		Example: `  dimpat check
  dimpat check --sinks localfs,postgres --output table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.input, "input", "", "check a saved DSL response instead of the API")
	f.StringVar(&opts.outDir, "out", "", "output directory of the localfs sink (default: output.dir)")
	f.StringSliceVar(&opts.sinks, "sinks", nil, "sinks to check: "+strings.Join(config.KnownSinks, ", "))
	return cmd
}

func runCheck(cmd *cobra.Command, opts *exportOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := *cliCtx.Config
	if err := opts.apply(&cfg); err != nil {
		return err
	}
	log := cliCtx.Logger

	ctx := cmd.Context()
	if cliCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliCtx.Timeout)
		defer cancel()
	}

	report := checkComponents(ctx, &cfg, log)
	if err := PrintResult(cmd, report); err != nil {
		return err
	}
	if n := report.failed(); n > 0 {
		return fmt.Errorf("%d of %d checks failed", n, len(report))
	}
	return nil
}

// checkComponents connects every component independently so one failure
// does not hide the others.
func checkComponents(ctx context.Context, cfg *config.Config, log logging.Logger) checkReport {
	res := &resources{}
	defer func() {
		if err := res.Close(); err != nil {
			log.Warn("Failed to release resources", logging.Err(err))
		}
	}()

	var report checkReport
	check := func(name string, build func() (any, error)) {
		start := time.Now()
		err := func() error {
			v, err := build()
			if err != nil {
				return err
			}
			if c, ok := v.(export.Checker); ok {
				return c.Check(ctx)
			}
			return nil
		}()
		r := checkResult{Component: name, OK: err == nil, Latency: time.Since(start)}
		if err != nil {
			r.Error = err.Error()
			log.Warn("Check failed", logging.String("component", name), logging.Err(err))
		}
		report = append(report, r)
	}

	var rc *redis.Client
	if cfg.Redis.Enabled {
		check("redis", func() (any, error) {
			rcfg := cfg.Redis
			c, err := redis.NewClient(&rcfg, log.Named("redis"))
			if err != nil {
				return nil, err
			}
			res.onClose(c.Close)
			rc = c
			return nil, c.Ping(ctx)
		})
	}

	check("source", func() (any, error) {
		return buildSource(cfg, log, rc)
	})

	for _, name := range cfg.EnabledSinks() {
		check(name, func() (any, error) {
			return buildSink(ctx, name, cfg, log.Named(name), res)
		})
	}
	return report
}

//Personal.AI order the ending
