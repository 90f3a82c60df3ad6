// Package localfs writes extracts as files under a local directory.
package localfs

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/internal/infrastructure/tabular"
	"github.com/turtacn/dimpat/pkg/errors"
)

const SinkName = "localfs"

// Sink writes <dir>/<run_date>_<extract>.<ext> once per configured encoder.
// Files are written to a temporary name and renamed into place, so a reader
// never sees a half-written extract.
type Sink struct {
	dir      string
	encoders []tabular.Encoder
	perm     os.FileMode
	logger   logging.Logger
}

// NewSink validates dir and formats.  The directory is created on first write.
func NewSink(dir string, formats []string, log logging.Logger) (*Sink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.InvalidParam("output directory is empty")
	}
	encoders, err := tabular.ForFormats(formats)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Sink{dir: dir, encoders: encoders, perm: 0o644, logger: log}, nil
}

func (s *Sink) Name() string { return SinkName }

// Check creates the output directory and a scratch file in it.
func (s *Sink) Check(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeSinkWrite, "create output directory").WithDetail(s.dir)
	}
	f, err := os.CreateTemp(s.dir, ".dimpat-check-*")
	if err != nil {
		return errors.Wrap(err, errors.CodeSinkWrite, "output directory is not writable").WithDetail(s.dir)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func (s *Sink) Write(ctx context.Context, runDate string, t *extract.Table) (*export.WriteResult, error) {
	if runDate == "" || strings.ContainsAny(runDate, `/\`) || strings.Contains(runDate, "..") {
		return nil, errors.New(errors.CodeSinkWrite, "invalid run date").WithDetail(runDate)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeSinkWrite, "create output directory").WithDetail(s.dir)
	}

	res := &export.WriteResult{Sink: SinkName, Extract: t.Name, Rows: t.Len()}
	locations := make([]string, 0, len(s.encoders))
	for _, enc := range s.encoders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, tabular.FileName(runDate, t.Name, enc.Ext()))
		n, err := s.writeFile(path, enc, t)
		if err != nil {
			return nil, err
		}
		res.Bytes += n
		locations = append(locations, path)
		s.logger.Debug("Wrote extract file",
			logging.String("path", path),
			logging.Int("rows", t.Len()),
			logging.Int64("bytes", n))
	}
	res.Location = strings.Join(locations, ",")
	return res, nil
}

func (s *Sink) writeFile(path string, enc tabular.Encoder, t *extract.Table) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeSinkWrite, "create temporary file").WithDetail(path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	bw := bufio.NewWriter(tmp)
	if err := enc.Encode(bw, t); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return 0, errors.Wrap(err, errors.CodeSinkWrite, "flush file").WithDetail(path)
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, errors.Wrap(err, errors.CodeSinkWrite, "stat file").WithDetail(path)
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.Wrap(err, errors.CodeSinkWrite, "close file").WithDetail(path)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		return 0, errors.Wrap(err, errors.CodeSinkWrite, "chmod file").WithDetail(path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, errors.Wrap(err, errors.CodeSinkWrite, "rename file").WithDetail(path)
	}
	return info.Size(), nil
}

//Personal.AI order the ending
