// Package partition cuts a file into line-aligned byte ranges for parallel parsing
package partition

import (
	"io"

	"visitagg/internal/core/linereader"
	perr "visitagg/internal/platform/errors"
)

// alignChunk is the read size used while looking for the next line start
const alignChunk = 64 << 10

// Segment is the half-open byte range [Start, End) of the input
type Segment struct {
	Index int
	Start int64
	End   int64
}

// Len is the segment length in bytes
func (s Segment) Len() int64 { return s.End - s.Start }

// Section returns a reader over just this segment
func (s Segment) Section(ra io.ReaderAt) *io.SectionReader {
	return io.NewSectionReader(ra, s.Start, s.Len())
}

// Split cuts [0, size) into at most n contiguous, non-overlapping, line-aligned segments
// each cut starts at i*size/n and moves forward to the next line start; empty segments are dropped
func Split(ra io.ReaderAt, size int64, n int) ([]Segment, error) {
	if size < 0 {
		return nil, perr.InvalidArgf("negative input size %d", size)
	}
	if size == 0 {
		return nil, nil
	}
	n = max(n, 1)

	bounds := make([]int64, n+1)
	bounds[n] = size
	for i := 1; i < n; i++ {
		off, err := Align(ra, size, int64(i)*size/int64(n))
		if err != nil {
			return nil, err
		}
		bounds[i] = max(off, bounds[i-1])
	}

	segs := make([]Segment, 0, n)
	for i := range n {
		if bounds[i] < bounds[i+1] {
			segs = append(segs, Segment{Index: len(segs), Start: bounds[i], End: bounds[i+1]})
		}
	}
	return segs, nil
}

// Align returns the first line start at or after off
// an offset already at a line start (the previous byte is a newline) is returned as is
func Align(ra io.ReaderAt, size, off int64) (int64, error) {
	if off <= 0 {
		return 0, nil
	}
	if off >= size {
		return size, nil
	}
	lr := linereader.New(io.NewSectionReader(ra, off-1, size-off+1), linereader.Options{ChunkSize: alignChunk})
	skipped, err := lr.Discard()
	if err != nil {
		return 0, perr.IOf(err, "align segment at %d", off)
	}
	return off - 1 + skipped, nil
}
