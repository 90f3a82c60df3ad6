package opensearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

const SinkName = "opensearch"

// Sink bulk-indexes extract rows into one index per extract.  The run date's
// previous documents are removed first, and document ids are derived from
// the row so a retried batch overwrites instead of duplicating.
type Sink struct {
	client  *Client
	indexer *Indexer
	prefix  string
	logger  logging.Logger
}

func NewSink(client *Client, log logging.Logger) *Sink {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Sink{
		client:  client,
		indexer: NewIndexer(client, log),
		prefix:  client.Config().IndexPrefix,
		logger:  log,
	}
}

func (s *Sink) Name() string { return SinkName }

// Check pings the cluster.
func (s *Sink) Check(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "opensearch unreachable")
	}
	return nil
}

// IndexName returns the index holding extract name.
func IndexName(prefix, name string) string {
	return prefix + "-" + name
}

// DocumentID derives a stable id from the run date, the row position and
// its values.
func DocumentID(runDate string, pos int, row []any) string {
	h := sha256.New()
	h.Write([]byte(runDate))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(pos)))
	h.Write([]byte{0})
	data, _ := json.Marshal(row)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))[:40]
}

func (s *Sink) Write(ctx context.Context, runDate string, t *extract.Table) (*export.WriteResult, error) {
	spec, err := extract.Lookup(t.Name)
	if err != nil {
		return nil, err
	}
	index := IndexName(s.prefix, t.Name)

	if err := s.indexer.EnsureIndex(ctx, index, ExtractIndexMapping(spec)); err != nil {
		return nil, err
	}
	deleted, err := s.indexer.DeleteRunDate(ctx, index, runDate)
	if err != nil {
		return nil, err
	}

	runID := export.RunIDFrom(ctx)
	docs := make([]Document, 0, t.Len())
	for i, rec := range t.Records() {
		rec["run_date"] = runDate
		rec["run_id"] = runID
		rec["extract"] = t.Name
		docs = append(docs, Document{ID: DocumentID(runDate, i, t.Rows[i]), Source: rec})
	}

	res, err := s.indexer.BulkIndex(ctx, index, docs)
	if err != nil {
		return nil, err
	}
	if res.Failed > 0 {
		first := res.Errors[0]
		return nil, ErrBulkFailed.WithDetail(
			strconv.Itoa(res.Failed) + " documents rejected, first " + first.DocID + ": " + first.ErrorType + ": " + first.Reason)
	}

	s.logger.Debug("Indexed extract",
		logging.String("index", index),
		logging.Int("deleted", deleted),
		logging.Int("indexed", res.Succeeded))
	return &export.WriteResult{
		Sink:     SinkName,
		Extract:  t.Name,
		Location: index + "?run_date=" + runDate,
		Rows:     res.Succeeded,
	}, nil
}

//Personal.AI order the ending
