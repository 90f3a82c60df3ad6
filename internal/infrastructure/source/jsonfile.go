// Package source provides record sources other than the live Dimensions API.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/client"
	"github.com/turtacn/dimpat/pkg/errors"
	"github.com/turtacn/dimpat/pkg/types/patent"
)

// JSONFile replays a saved DSL response.  The file may hold the full response
// object ({"patents": [...], "_stats": {...}}) or a bare array of patents.
type JSONFile struct {
	path   string
	logger logging.Logger
}

func NewJSONFile(path string, log logging.Logger) *JSONFile {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &JSONFile{path: path, logger: log}
}

// Check verifies the file exists and is a regular file.
func (f *JSONFile) Check(ctx context.Context) error {
	info, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound("input file not found").WithDetail(f.path)
		}
		return errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "failed to stat input file")
	}
	if info.IsDir() {
		return errors.InvalidParam("input is a directory").WithDetail(f.path)
	}
	return nil
}

// Fetch ignores q beyond logging it; the file is the result of whatever query
// produced it.
func (f *JSONFile) Fetch(ctx context.Context, q client.PatentQuery) (*patent.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("input file not found").WithDetail(f.path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "failed to read input file")
	}
	res, decodeErr := Decode(data)
	if decodeErr != nil {
		return nil, decodeErr.WithDetail(f.path)
	}
	f.logger.Info("Replaying saved query result",
		logging.String("path", f.path),
		logging.String("grid_id", q.GridID),
		logging.Int("records", len(res.Patents)),
		logging.Int("total_count", res.Stats.TotalCount))
	return res, nil
}

// Decode parses a saved DSL response.
func Decode(data []byte) (*patent.QueryResult, *errors.AppError) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeDataSourceParseError, "input is empty")
	}

	if data[0] == '[' {
		var records []patent.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to decode patent array")
		}
		return &patent.QueryResult{
			Patents: records,
			Stats:   patent.Stats{TotalCount: len(records)},
		}, nil
	}

	var res patent.QueryResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to decode DSL response")
	}
	if res.Patents == nil {
		res.Patents = []patent.Record{}
	}
	if res.Stats.TotalCount == 0 {
		res.Stats.TotalCount = len(res.Patents)
	}
	return &res, nil
}

//Personal.AI order the ending
