package client

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/turtacn/dimpat/pkg/errors"
	"github.com/turtacn/dimpat/pkg/types/patent"
)

const (
	// DefaultLimit is the number of patents requested when none is given.
	DefaultLimit = 1000
	// MaxLimit is the largest page the DSL accepts in a single query.
	MaxLimit = 1000
)

// PatentFields are the fields returned for every patent, in query order.
var PatentFields = []string{
	"id", "title", "original_assignees", "filing_date", "priority_date",
	"publication_date", "granted_date", "expiration_date", "filing_status",
	"legal_status", "jurisdiction", "times_cited", "inventor_names",
	"category_for_2020",
}

var gridIDPattern = regexp.MustCompile(`^grid\.[0-9]+\.[0-9a-z]+$`)

// PatentQuery selects the patents assigned to one GRID organization within a
// range of years.
type PatentQuery struct {
	GridID  string `json:"grid_id"`
	MinYear int    `json:"min_year"`
	MaxYear int    `json:"max_year"`
	Limit   int    `json:"limit"`
}

// WithDefaults returns q with an unset limit replaced by DefaultLimit.
func (q PatentQuery) WithDefaults() PatentQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	return q
}

// Validate checks the GRID id, the year range and the limit.
func (q PatentQuery) Validate() error {
	if !gridIDPattern.MatchString(q.GridID) {
		return errors.InvalidParam(fmt.Sprintf("invalid GRID id %q", q.GridID)).
			WithDetail("expected the form grid.<digits>.<suffix>, e.g. grid.6268.a")
	}
	if q.MinYear <= 0 || q.MaxYear <= 0 {
		return errors.InvalidParam("both year bounds are required")
	}
	if q.MinYear > q.MaxYear {
		return errors.InvalidParam(fmt.Sprintf("min year %d is after max year %d", q.MinYear, q.MaxYear))
	}
	if q.Limit < 0 || q.Limit > MaxLimit {
		return errors.InvalidParam(fmt.Sprintf("limit %d outside 1..%d", q.Limit, MaxLimit))
	}
	return nil
}

// BuildPatentDSL renders q as a Dimensions DSL query.  The caller is expected
// to have validated q.
func BuildPatentDSL(q PatentQuery) string {
	return fmt.Sprintf(`search patents where (year in [%d:%d] and assignees = "%s") return patents[%s] limit %d`,
		q.MinYear, q.MaxYear, q.GridID, strings.Join(PatentFields, "+"), q.Limit)
}

// PatentsClient issues patent queries.
type PatentsClient struct {
	client *Client
}

// ByOrganization fetches the patents of one organization in a single query.
// Results beyond the limit are not paged; check QueryResult.Truncated.
func (p *PatentsClient) ByOrganization(ctx context.Context, q PatentQuery) (*patent.QueryResult, error) {
	q = q.WithDefaults()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	dsl := BuildPatentDSL(q)
	p.client.logger.Debugf("DSL: %s", dsl)

	var res patent.QueryResult
	if err := p.client.Query(ctx, dsl, &res); err != nil {
		return nil, err
	}
	if res.Patents == nil {
		res.Patents = []patent.Record{}
	}
	if res.Stats.Limit == 0 {
		res.Stats.Limit = q.Limit
	}
	p.client.logger.Infof("Fetched %d of %d patents for %s", len(res.Patents), res.Stats.TotalCount, q.GridID)
	return &res, nil
}

//Personal.AI order the ending
