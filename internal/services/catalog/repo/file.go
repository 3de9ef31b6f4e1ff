package repo

import (
	"context"
	"errors"
	"io"
	"os"

	"visitagg/internal/core/linereader"
	perr "visitagg/internal/platform/errors"
	"visitagg/internal/services/catalog/domain"
)

const fileChunk = 256 << 10

type file struct{ path string }

// NewFile reads one uri per line; blank lines are skipped
func NewFile(path string) domain.Opener { return file{path: path} }

func (f file) Open(context.Context) (domain.Source, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, perr.IOf(err, "open catalog %s", f.path)
	}
	return &fileSource{f: fh, lr: linereader.New(fh, linereader.Options{ChunkSize: fileChunk})}, nil
}

type fileSource struct {
	f  *os.File
	lr *linereader.Reader
}

func (s *fileSource) Next() (domain.Record, error) {
	for {
		line, err := s.lr.Next()
		if errors.Is(err, io.EOF) {
			return domain.Record{}, io.EOF
		}
		if err != nil {
			return domain.Record{}, perr.IOf(err, "read catalog %s", s.f.Name())
		}
		if len(line) == 0 {
			continue
		}
		return domain.Record{URI: string(line)}, nil
	}
}

func (s *fileSource) Close() error { return s.f.Close() }
