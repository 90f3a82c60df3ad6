package extract

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/types/patent"
)

// Result holds the five tables in output order plus non-fatal warnings.
type Result struct {
	Tables   []*Table
	Warnings []error
}

// Table returns the table called name, or nil.
func (r *Result) Table(name string) *Table {
	if r == nil {
		return nil
	}
	for _, t := range r.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Select returns the named tables in output order. An empty selection keeps
// every table.
func (r *Result) Select(names []string) ([]*Table, error) {
	if len(names) == 0 {
		return r.Tables, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := Lookup(n); err != nil {
			return nil, err
		}
		want[n] = true
	}
	out := make([]*Table, 0, len(names))
	for _, t := range r.Tables {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}

// Normalizer turns a batch of raw patent records into the five extracts.
type Normalizer struct {
	logger logging.Logger
}

// NewNormalizer constructs a Normalizer. A nil logger discards output.
func NewNormalizer(logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Normalizer{logger: logger}
}

// Normalize validates record keys once and then builds all extracts
// concurrently. The records are treated as read-only.
func (n *Normalizer) Normalize(ctx context.Context, records []patent.Record) (*Result, error) {
	start := time.Now()
	if err := ValidateKeys(records); err != nil {
		n.logger.Error("record without patent_id", logging.Err(err))
		return nil, err
	}

	tables := make([]*Table, len(catalog))
	builders := []func() (*Table, error){
		func() (*Table, error) {
			rows, err := Assignees(records)
			return newTable(NameAssignees, AssigneeColumns, rows), err
		},
		func() (*Table, error) {
			rows, err := Details(records)
			return newTable(NameDetails, DetailColumns, rows), err
		},
		func() (*Table, error) {
			rows, err := Status(records)
			return newTable(NameStatus, StatusColumns, rows), err
		},
		func() (*Table, error) {
			rows, err := FieldsOfResearch(records)
			return newTable(NameFieldsOfResearch, ForColumns, rows), err
		},
		func() (*Table, error) {
			rows, err := Citations(records)
			return newTable(NameCitations, CitationColumns, rows), err
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, build := range builders {
		i, build := i, build
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := build()
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Tables: tables}
	for _, w := range MalformedCategories(records) {
		n.logger.Warn("malformed category name",
			logging.String("patent_id", w.PatentID),
			logging.Int("index", w.Index))
		res.Warnings = append(res.Warnings, w)
	}

	n.logger.Info("records normalized",
		logging.Int("records", len(records)),
		logging.Int("assignee_rows", tables[0].Len()),
		logging.Int("for_2020_rows", tables[3].Len()),
		logging.Duration("elapsed", time.Since(start)))
	return res, nil
}

//Personal.AI order the ending
