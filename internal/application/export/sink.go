package export

import (
	"context"
	"fmt"

	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/pkg/errors"
)

// Sink persists one extract table.  Implementations must be safe for
// concurrent Write calls with different tables.
type Sink interface {
	// Name identifies the sink in logs, metrics and reports ("localfs", ...).
	Name() string
	Write(ctx context.Context, runDate string, t *extract.Table) (*WriteResult, error)
}

// Checker is implemented by sinks and sources that can verify their backend
// without writing an extract.
type Checker interface {
	Check(ctx context.Context) error
}

// WriteResult describes one successful write.
type WriteResult struct {
	Sink     string `json:"sink"`
	Extract  string `json:"extract"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
	Bytes    int64  `json:"bytes,omitempty"`
}

// SinkWriteError reports that one extract could not be persisted to one sink.
// It never stops writes of other extracts or to other sinks.
type SinkWriteError struct {
	Sink    string
	Extract string
	Cause   error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("sink %s: write %s: %v", e.Sink, e.Extract, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *SinkWriteError) Unwrap() error { return e.Cause }

// As classifies the failure as an EXT_003 *errors.AppError.
func (e *SinkWriteError) As(target any) bool {
	ae, ok := target.(**errors.AppError)
	if !ok {
		return false
	}
	*ae = errors.New(errors.CodeSinkWrite, "failed to persist extract").
		WithDetail("sink=" + e.Sink + " extract=" + e.Extract).
		WithCause(e.Cause)
	return true
}

// ── run metadata carried on the context ───────────────────────────────────────

type runIDKey struct{}

// WithRunID returns a context carrying the run id.  Sinks that tag rows with
// the run (postgres, kafka headers) read it back with RunIDFrom.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run id stored by WithRunID, or "".
func RunIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}

//Personal.AI order the ending
