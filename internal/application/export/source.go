package export

import (
	"context"

	"github.com/turtacn/dimpat/pkg/client"
	"github.com/turtacn/dimpat/pkg/types/patent"
)

// Source yields the raw patent records for one organization query.
type Source interface {
	Fetch(ctx context.Context, q client.PatentQuery) (*patent.QueryResult, error)
}

// APISource fetches records from the Dimensions API.
type APISource struct {
	client *client.Client
}

// NewAPISource wraps an authenticated or unauthenticated client; the client
// logs in on first use.
func NewAPISource(c *client.Client) *APISource {
	return &APISource{client: c}
}

// Check logs in, which proves both reachability and the API key.
func (s *APISource) Check(ctx context.Context) error {
	return s.client.Login(ctx)
}

func (s *APISource) Fetch(ctx context.Context, q client.PatentQuery) (*patent.QueryResult, error) {
	return s.client.Patents().ByOrganization(ctx, q)
}

//Personal.AI order the ending
