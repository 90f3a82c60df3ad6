package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/client"
	"github.com/turtacn/dimpat/pkg/types/patent"
)

// Fetcher is the record source being cached.
type Fetcher interface {
	Fetch(ctx context.Context, q client.PatentQuery) (*patent.QueryResult, error)
}

// CachedSource is a read-through cache in front of a Fetcher, keyed by the
// hash of the DSL query the fetcher would send.
type CachedSource struct {
	next   Fetcher
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

func NewCachedSource(next Fetcher, cache Cache, ttl time.Duration, log logging.Logger) *CachedSource {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachedSource{next: next, cache: cache, ttl: ttl, logger: log}
}

// QueryKey returns the cache key for q.
func QueryKey(q client.PatentQuery) string {
	sum := sha256.Sum256([]byte(client.BuildPatentDSL(q.WithDefaults())))
	return "dsl:" + hex.EncodeToString(sum[:])
}

// Check forwards to the cached source when it can be checked.
func (s *CachedSource) Check(ctx context.Context) error {
	if c, ok := s.next.(interface{ Check(context.Context) error }); ok {
		return c.Check(ctx)
	}
	return nil
}

func (s *CachedSource) Fetch(ctx context.Context, q client.PatentQuery) (*patent.QueryResult, error) {
	key := QueryKey(q)
	hit := true
	var res patent.QueryResult
	err := s.cache.GetOrSet(ctx, key, &res, s.ttl, func(ctx context.Context) (interface{}, error) {
		hit = false
		return s.next.Fetch(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Patent query served",
		logging.String("key", key),
		logging.Bool("cache_hit", hit),
		logging.Int("records", len(res.Patents)))
	return &res, nil
}

//Personal.AI order the ending
