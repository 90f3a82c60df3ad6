package neo4j

import (
	"context"
	"strings"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
)

const SinkName = "neo4j"

var schemaStatements = []string{
	"CREATE CONSTRAINT patent_id IF NOT EXISTS FOR (p:Patent) REQUIRE p.id IS UNIQUE",
	"CREATE CONSTRAINT organization_id IF NOT EXISTS FOR (o:Organization) REQUIRE o.id IS UNIQUE",
	"CREATE CONSTRAINT field_of_research_code IF NOT EXISTS FOR (f:FieldOfResearch) REQUIRE f.code IS UNIQUE",
}

// Relationship extracts replace the run date's edges before merging so a
// rerun drops assignments that disappeared upstream.
const (
	clearAssignedTo = `MATCH (:Patent)-[r:ASSIGNED_TO {run_date: $run_date}]->(:Organization) DELETE r`

	mergeAssignedTo = `
		UNWIND $batch AS row
		MERGE (p:Patent {id: row.patent_id})
		MERGE (o:Organization {id: row.org_key})
		SET o.grid_id = row.id, o.name = row.name, o.city_name = row.city_name,
		    o.country_name = row.country_name, o.country_code = row.country_code
		MERGE (p)-[r:ASSIGNED_TO {type: coalesce(row.type, '')}]->(o)
		SET r.run_date = $run_date, r.run_id = $run_id`

	clearClassifiedAs = `MATCH (:Patent)-[r:CLASSIFIED_AS {run_date: $run_date}]->(:FieldOfResearch) DELETE r`

	mergeClassifiedAs = `
		UNWIND $batch AS row
		MERGE (p:Patent {id: row.patent_id})
		MERGE (f:FieldOfResearch {code: row.for_2020_code})
		SET f.name = row.for_2020_name
		MERGE (p)-[r:CLASSIFIED_AS]->(f)
		SET r.run_date = $run_date, r.run_id = $run_id`

	mergePatentProps = `
		UNWIND $batch AS row
		MERGE (p:Patent {id: row.patent_id})
		SET p += row.props, p.run_date = $run_date, p.run_id = $run_id`
)

// Sink projects extracts onto a patent graph.  Assignees become
// ASSIGNED_TO edges, Fields of Research become CLASSIFIED_AS edges, and the
// remaining extracts set properties on the Patent node.
type Sink struct {
	driver    *Driver
	batchSize int
	logger    logging.Logger
}

func NewSink(d *Driver, log logging.Logger) *Sink {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Sink{driver: d, batchSize: d.Config().BatchSize, logger: log}
}

func (s *Sink) Name() string { return SinkName }

// Check runs a trivial read against the database.
func (s *Sink) Check(ctx context.Context) error {
	return s.driver.HealthCheck(ctx)
}

// EnsureSchema creates the uniqueness constraints MERGE relies on.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	_, err := s.driver.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		for _, stmt := range schemaStatements {
			if _, err := tx.Run(ctx, stmt, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// statements returns the clear statement (possibly empty), the merge
// statement and the batch rows for t.  Rows that have no node key are left
// out and counted in skipped.
func statements(t *extract.Table) (clearStmt, merge string, rows []map[string]any, skipped int) {
	recs := t.Records()
	switch t.Name {
	case extract.NameAssignees:
		rows = make([]map[string]any, 0, len(recs))
		for _, rec := range recs {
			key := organizationKey(rec)
			if key == "" {
				skipped++
				continue
			}
			rec["org_key"] = key
			rows = append(rows, rec)
		}
		return clearAssignedTo, mergeAssignedTo, rows, skipped
	case extract.NameFieldsOfResearch:
		rows = make([]map[string]any, 0, len(recs))
		for _, rec := range recs {
			if code, _ := rec["for_2020_code"].(string); code == "" {
				skipped++
				continue
			}
			rows = append(rows, rec)
		}
		return clearClassifiedAs, mergeClassifiedAs, rows, skipped
	}

	rows = make([]map[string]any, len(recs))
	for i, rec := range recs {
		props := make(map[string]any, len(rec)-1)
		for k, v := range rec {
			if k != "patent_id" {
				props[k] = v
			}
		}
		rows[i] = map[string]any{"patent_id": rec["patent_id"], "props": props}
	}
	return "", mergePatentProps, rows, 0
}

// organizationKey is the GRID id, or "name:<name>" for assignees without one.
func organizationKey(rec map[string]any) string {
	if id, _ := rec["id"].(string); strings.TrimSpace(id) != "" {
		return id
	}
	if name, _ := rec["name"].(string); strings.TrimSpace(name) != "" {
		return "name:" + name
	}
	return ""
}

func (s *Sink) Write(ctx context.Context, runDate string, t *extract.Table) (*export.WriteResult, error) {
	if _, err := extract.Lookup(t.Name); err != nil {
		return nil, err
	}
	clearStmt, merge, rows, skipped := statements(t)
	if skipped > 0 {
		s.logger.Warn("Skipped rows without a node key",
			logging.String("extract", t.Name),
			logging.Int("skipped", skipped))
	}
	runID := export.RunIDFrom(ctx)

	_, err := s.driver.ExecuteWrite(ctx, func(tx Transaction) (any, error) {
		if clearStmt != "" {
			if _, err := tx.Run(ctx, clearStmt, map[string]any{"run_date": runDate}); err != nil {
				return nil, err
			}
		}
		for start := 0; start < len(rows); start += s.batchSize {
			end := min(start+s.batchSize, len(rows))
			batch := make([]any, 0, end-start)
			for _, r := range rows[start:end] {
				batch = append(batch, r)
			}
			params := map[string]any{
				"batch":    batch,
				"run_date": runDate,
				"run_id":   runID,
			}
			if _, err := tx.Run(ctx, merge, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Projected extract onto graph",
		logging.String("extract", t.Name),
		logging.Int("rows", len(rows)))
	return &export.WriteResult{
		Sink:     SinkName,
		Extract:  t.Name,
		Location: "neo4j://" + s.driver.Config().Database + "/" + t.Name,
		Rows:     len(rows),
	}, nil
}

//Personal.AI order the ending
