package visitlog

import (
	"io"
	"os"
	"strings"

	perr "visitagg/internal/platform/errors"
	"visitagg/internal/platform/logger"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/exp/mmap"
)

// Source is an opened visit log
type Source struct {
	path string
	ra   *mmap.ReaderAt // nil for gzip input
	size int64
}

// Open opens path; it returns an IO error when the file cannot be opened or mapped
func Open(path string) (*Source, error) {
	if IsGzip(path) {
		st, err := os.Stat(path)
		if err != nil {
			return nil, perr.IOf(err, "stat %s", path)
		}
		if st.IsDir() {
			return nil, perr.InvalidArgf("%s is a directory", path)
		}
		return &Source{path: path, size: st.Size()}, nil
	}

	ra, err := mmap.Open(path)
	if err != nil {
		return nil, perr.IOf(err, "map %s", path)
	}
	logger.Named("visitlog").Debug().Str("path", path).Int("bytes", ra.Len()).Msg("input mapped")
	return &Source{path: path, ra: ra, size: int64(ra.Len())}, nil
}

// IsGzip reports whether path names a gzip file
func IsGzip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// Path is the file the source was opened from
func (s *Source) Path() string { return s.path }

// Seekable reports whether ReaderAt is available for segmenting
func (s *Source) Seekable() bool { return s.ra != nil }

// ReaderAt returns the mapped file, or nil for gzip input
func (s *Source) ReaderAt() io.ReaderAt {
	if s.ra == nil {
		return nil
	}
	return s.ra
}

// Size is the on-disk size; for gzip input that is the compressed size
func (s *Source) Size() int64 { return s.size }

// Stream returns a reader over the whole decompressed content from the start
func (s *Source) Stream() (io.ReadCloser, error) {
	if s.ra != nil {
		return io.NopCloser(io.NewSectionReader(s.ra, 0, s.size)), nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, perr.IOf(err, "open %s", s.path)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, perr.IOf(err, "gzip header %s", s.path)
	}
	return &gzipStream{gz: gz, f: f}, nil
}

// Close unmaps the file
func (s *Source) Close() error {
	if s == nil || s.ra == nil {
		return nil
	}
	if err := s.ra.Close(); err != nil {
		return perr.IOf(err, "unmap %s", s.path)
	}
	s.ra = nil
	return nil
}

type gzipStream struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipStream) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipStream) Close() error {
	var first error
	if err := g.gz.Close(); err != nil {
		first = err
	}
	if err := g.f.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
