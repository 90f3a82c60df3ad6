package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

var (
	ErrIndexCreationFailed = errors.New(errors.CodeSearchError, "index creation failed")
	ErrBulkFailed          = errors.New(errors.CodeSearchError, "bulk index failed")
)

// Document is one bulk item.
type Document struct {
	ID     string
	Source map[string]any
}

// BulkItemError describes one rejected document.
type BulkItemError struct {
	DocID     string
	ErrorType string
	Reason    string
}

// BulkResult summarizes a BulkIndex call.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []BulkItemError
}

// Indexer manages index operations and document ingestion.
type Indexer struct {
	client *Client
	logger logging.Logger
}

// NewIndexer creates a new Indexer.  Batch size and refresh policy come from
// the client configuration.
func NewIndexer(client *Client, logger logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Indexer{client: client, logger: logger}
}

// EnsureIndex creates indexName with mapping unless it already exists.
func (i *Indexer) EnsureIndex(ctx context.Context, indexName string, mapping map[string]any) error {
	exists, err := i.IndexExists(ctx, indexName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "failed to create index request")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.handleErrorResponse(resp, ErrIndexCreationFailed)
	}

	i.logger.Info("Index created", logging.String("index", indexName))
	return nil
}

// IndexExists checks if an index exists.
func (i *Indexer) IndexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return false, errors.Wrap(err, errors.CodeSearchError, "failed to check index existence")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	}
	return false, i.handleErrorResponse(resp, errors.New(errors.CodeSearchError, "check index existence failed"))
}

// DeleteRunDate removes every document of runDate from indexName and returns
// how many were deleted.
func (i *Indexer) DeleteRunDate(ctx context.Context, indexName, runDate string) (int, error) {
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"run_date": runDate},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal delete query")
	}

	refresh := true
	req := opensearchapi.DeleteByQueryRequest{
		Index:     []string{indexName},
		Body:      bytes.NewReader(body),
		Conflicts: "proceed",
		Refresh:   &refresh,
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeSearchError, "failed to delete by query")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return 0, nil
	}
	if resp.IsError() {
		return 0, i.handleErrorResponse(resp, errors.New(errors.CodeSearchError, "delete by query failed"))
	}

	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode delete response")
	}
	return out.Deleted, nil
}

// BulkIndex indexes docs in order, in batches of the configured size.
func (i *Indexer) BulkIndex(ctx context.Context, indexName string, docs []Document) (*BulkResult, error) {
	result := &BulkResult{}
	cfg := i.client.Config()

	for start := 0; start < len(docs); start += cfg.BulkBatchSize {
		end := min(start+cfg.BulkBatchSize, len(docs))
		if err := i.bulkBatch(ctx, indexName, docs[start:end], cfg.RefreshPolicy, result); err != nil {
			return result, err
		}
	}

	i.logger.Debug("Bulk index completed",
		logging.String("index", indexName),
		logging.Int("total", len(docs)),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

func (i *Indexer) bulkBatch(ctx context.Context, indexName string, batch []Document, refresh string, result *BulkResult) error {
	var buf bytes.Buffer
	for _, doc := range batch {
		meta, _ := json.Marshal(map[string]any{"index": map[string]string{"_index": indexName, "_id": doc.ID}})
		src, err := json.Marshal(doc.Source)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{
				DocID:     doc.ID,
				ErrorType: "serialization_error",
				Reason:    err.Error(),
			})
			continue
		}
		buf.Write(meta)
		buf.WriteByte('\n')
		buf.Write(src)
		buf.WriteByte('\n')
	}
	if buf.Len() == 0 {
		return nil
	}

	req := opensearchapi.BulkRequest{
		Body:    bytes.NewReader(buf.Bytes()),
		Refresh: refresh,
	}
	resp, err := req.Do(ctx, i.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.CodeSearchError, "bulk request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.handleErrorResponse(resp, ErrBulkFailed)
	}

	var bulkResp bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&bulkResp); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}

	for _, item := range bulkResp.Items {
		// Each item has exactly one key: index, create, update or delete.
		for _, v := range item {
			if v.Status >= 200 && v.Status < 300 {
				result.Succeeded++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{
				DocID:     v.ID,
				ErrorType: v.Error.Type,
				Reason:    v.Error.Reason,
			})
		}
	}
	return nil
}

func (i *Indexer) handleErrorResponse(resp *opensearchapi.Response, defaultErr *errors.AppError) error {
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	bodyBytes, _ := io.ReadAll(resp.Body)

	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return defaultErr.WithDetail(fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason))
	}
	return defaultErr.WithDetail(fmt.Sprintf("status %d", resp.StatusCode))
}

// ─────────────────────────────────────────────────────────────────────────────
// Mappings
// ─────────────────────────────────────────────────────────────────────────────

var fieldTypes = map[string]map[string]any{
	"times_cited": {"type": "integer"},
	"title": {
		"type":   "text",
		"fields": map[string]any{"raw": map[string]any{"type": "keyword", "ignore_above": 1024}},
	},
	"name": {
		"type":   "text",
		"fields": map[string]any{"raw": map[string]any{"type": "keyword", "ignore_above": 512}},
	},
}

// ExtractIndexMapping returns the mapping for spec's index.  Columns are
// keywords unless listed in fieldTypes; run metadata is always present.
func ExtractIndexMapping(spec extract.Spec) map[string]any {
	props := map[string]any{
		"run_date": map[string]any{"type": "keyword"},
		"run_id":   map[string]any{"type": "keyword"},
		"extract":  map[string]any{"type": "keyword"},
	}
	for _, col := range spec.Columns {
		if ft, ok := fieldTypes[col]; ok {
			props[col] = ft
			continue
		}
		props[col] = map[string]any{"type": "keyword"}
	}
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 1,
		},
		"mappings": map[string]any{
			"dynamic":    "strict",
			"properties": props,
		},
	}
}

//Personal.AI order the ending
