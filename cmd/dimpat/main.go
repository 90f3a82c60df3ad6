// Command dimpat exports the Dimensions patents of a GRID organization as
// normalized extracts.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/dimpat/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}

//Personal.AI order the ending
