package minio

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/internal/infrastructure/tabular"
)

const SinkName = "minio"

// Sink uploads each extract as <prefix>/<run_date>_<extract>.<ext>.
type Sink struct {
	client   *MinIOClient
	encoders []tabular.Encoder
	logger   logging.Logger
}

func NewSink(client *MinIOClient, log logging.Logger) (*Sink, error) {
	encoders, err := tabular.ForFormats(client.config.Formats)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Sink{client: client, encoders: encoders, logger: log}, nil
}

func (s *Sink) Name() string { return SinkName }

// Check pings the endpoint.
func (s *Sink) Check(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *Sink) Write(ctx context.Context, runDate string, t *extract.Table) (*export.WriteResult, error) {
	if err := s.client.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	res := &export.WriteResult{Sink: SinkName, Extract: t.Name, Rows: t.Len()}
	locations := make([]string, 0, len(s.encoders))
	meta := map[string]string{
		"extract":  t.Name,
		"run-date": runDate,
		"rows":     strconv.Itoa(t.Len()),
	}
	if id := export.RunIDFrom(ctx); id != "" {
		meta["run-id"] = id
	}

	var buf bytes.Buffer
	for _, enc := range s.encoders {
		buf.Reset()
		if err := enc.Encode(&buf, t); err != nil {
			return nil, err
		}
		key := s.client.ObjectKey(tabular.FileName(runDate, t.Name, enc.Ext()))
		info, err := s.client.Upload(ctx, key, enc.ContentType(), buf.Bytes(), meta)
		if err != nil {
			return nil, err
		}
		res.Bytes += int64(buf.Len())
		locations = append(locations, "s3://"+s.client.Bucket()+"/"+key)
		s.logger.Debug("Uploaded extract",
			logging.String("bucket", s.client.Bucket()),
			logging.String("key", key),
			logging.String("etag", info.ETag))
	}
	res.Location = strings.Join(locations, ",")
	return res, nil
}

//Personal.AI order the ending
