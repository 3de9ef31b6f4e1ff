// Package bucket spills (path, date) records into hash-partitioned scratch files
//
// Records are "path\tdate\n" with a fixed ten byte date, so a path that itself holds a tab
// still splits cleanly from the right. Every record for a path lands in the same bucket.
package bucket

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"visitagg/internal/core/dictionary"
	"visitagg/internal/core/linereader"
	perr "visitagg/internal/platform/errors"

	"github.com/cespare/xxhash/v2"
)

const bufSize = 32 << 10

// Index returns the bucket of path; buckets must be a power of two
func Index(path []byte, buckets int) int {
	return int(xxhash.Sum64(path) & uint64(buckets-1))
}

// Name is the scratch file of one worker for one bucket
func Name(dir string, b, worker int) string {
	return filepath.Join(dir, fmt.Sprintf("b%05d_w%04d.tsv", b, worker))
}

// Writer owns one worker's bucket files; files are created on first use
type Writer struct {
	dir     string
	worker  int
	buckets int
	files   []*os.File
	bufs    []*bufio.Writer
	scratch []byte
	records int64
	bytes   int64
}

// NewWriter prepares a writer for worker
func NewWriter(dir string, worker, buckets int) *Writer {
	return &Writer{
		dir:     dir,
		worker:  worker,
		buckets: buckets,
		files:   make([]*os.File, buckets),
		bufs:    make([]*bufio.Writer, buckets),
		scratch: make([]byte, 0, 256),
	}
}

// Add appends one record to the bucket of path
func (w *Writer) Add(path, date []byte) error {
	b := Index(path, w.buckets)
	bw := w.bufs[b]
	if bw == nil {
		f, err := os.OpenFile(Name(w.dir, b, w.worker), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			return perr.IOf(err, "create bucket %d", b)
		}
		w.files[b] = f
		bw = bufio.NewWriterSize(f, bufSize)
		w.bufs[b] = bw
	}
	w.scratch = append(w.scratch[:0], path...)
	w.scratch = append(w.scratch, '\t')
	w.scratch = append(w.scratch, date...)
	w.scratch = append(w.scratch, '\n')
	n, err := bw.Write(w.scratch)
	w.bytes += int64(n)
	if err != nil {
		return perr.IOf(err, "write bucket %d", b)
	}
	w.records++
	return nil
}

// Close flushes and closes every open bucket file
func (w *Writer) Close() error {
	var errs []error
	for b, f := range w.files {
		if f == nil {
			continue
		}
		if err := w.bufs[b].Flush(); err != nil {
			errs = append(errs, perr.IOf(err, "flush bucket %d", b))
		}
		if err := f.Close(); err != nil {
			errs = append(errs, perr.IOf(err, "close bucket %d", b))
		}
		w.files[b] = nil
	}
	return errors.Join(errs...)
}

// Used reports whether this worker wrote anything to bucket b
func (w *Writer) Used(b int) bool { return w.bufs[b] != nil }

// Records is the number of records written
func (w *Writer) Records() int64 { return w.records }

// Bytes is the number of bytes written
func (w *Writer) Bytes() int64 { return w.bytes }

// Read calls fn for every record of a bucket file
// path and date alias an internal buffer and are only valid during the call
func Read(name string, chunk int, fn func(path, date []byte) error) error {
	f, err := os.Open(name)
	if err != nil {
		return perr.IOf(err, "open bucket %s", filepath.Base(name))
	}
	defer func() { _ = f.Close() }()

	lr := linereader.New(f, linereader.Options{ChunkSize: chunk, Final: linereader.FinalDrop})
	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return perr.IOf(err, "read bucket %s", filepath.Base(name))
		}
		n := len(line)
		if n < dictionary.DateLen+1 || line[n-dictionary.DateLen-1] != '\t' {
			return perr.Newf(perr.ErrorCodeIO, "corrupt record in %s at %d", filepath.Base(name), lr.Offset())
		}
		if err := fn(line[:n-dictionary.DateLen-1], line[n-dictionary.DateLen:]); err != nil {
			return err
		}
	}
	if lr.Stats().Dropped {
		return perr.Newf(perr.ErrorCodeIO, "truncated bucket %s", filepath.Base(name))
	}
	return nil
}
