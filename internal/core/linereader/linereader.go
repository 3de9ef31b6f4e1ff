// Package linereader yields complete lines from a byte stream read in large fixed-size chunks
//
// Lines are handed out as slices into an internal buffer. A partial tail left at the end of
// one chunk is carried into the next read, so no line is ever split or lost across reads.
package linereader

import (
	"bytes"
	"errors"
	"io"
	"strings"

	perr "visitagg/internal/platform/errors"
)

// DefaultChunkSize is the read size used when Options.ChunkSize is zero
const DefaultChunkSize = 8 << 20

// FinalLine selects what happens to a non-empty tail with no terminating newline
type FinalLine uint8

const (
	// FinalProcess hands the unterminated tail out as the last line
	FinalProcess FinalLine = iota
	// FinalDrop discards it
	FinalDrop
)

// ParseFinalLine maps "process" and "drop" (case-insensitive) to a policy; empty means process
func ParseFinalLine(s string) (FinalLine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "process":
		return FinalProcess, nil
	case "drop":
		return FinalDrop, nil
	default:
		return FinalProcess, perr.InvalidArgf("final line policy %q: want process or drop", s)
	}
}

func (f FinalLine) String() string {
	if f == FinalDrop {
		return "drop"
	}
	return "process"
}

// Options tune a Reader
type Options struct {
	// ChunkSize is the number of bytes requested per read
	ChunkSize int
	// Final is the policy for an unterminated last line
	Final FinalLine
	// Base is the absolute offset of the first byte of the source, used by Offset
	Base int64
}

// Stats counts what a Reader has seen so far
type Stats struct {
	Lines   int64 // lines handed out
	Bytes   int64 // bytes read from the source
	Dropped bool  // an unterminated tail was discarded under FinalDrop
}

// Reader splits a stream into lines
// buf[start:ready] holds whole lines, buf[ready:end] is the carry
type Reader struct {
	src   io.Reader
	chunk int
	final FinalLine

	buf        []byte
	start      int
	ready      int
	end        int
	base       int64 // absolute offset of buf[0]
	lineOffset int64

	eof   bool
	err   error
	stats Stats
}

// New wraps r
func New(r io.Reader, opt Options) *Reader {
	chunk := opt.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &Reader{
		src:        r,
		chunk:      chunk,
		final:      opt.Final,
		buf:        make([]byte, 2*chunk),
		base:       opt.Base,
		lineOffset: -1,
	}
}

// Next returns the next line without its terminator (\n or \r\n)
// the slice is only valid until the following call; io.EOF ends the stream
func (r *Reader) Next() ([]byte, error) {
	for {
		if r.start < r.ready {
			i := bytes.IndexByte(r.buf[r.start:r.ready], '\n')
			line := r.buf[r.start : r.start+i]
			r.lineOffset = r.base + int64(r.start)
			r.start += i + 1
			r.stats.Lines++
			return trimCR(line), nil
		}
		if r.err != nil {
			return nil, r.err
		}
		if r.eof {
			return r.tail()
		}
		r.fill()
	}
}

// tail handles the carry once the source is exhausted
func (r *Reader) tail() ([]byte, error) {
	if r.start >= r.end {
		return nil, io.EOF
	}
	line := r.buf[r.start:r.end]
	off := r.base + int64(r.start)
	r.start = r.end
	if r.final == FinalDrop {
		r.stats.Dropped = true
		return nil, io.EOF
	}
	r.lineOffset = off
	r.stats.Lines++
	return trimCR(line), nil
}

// Discard skips up to and including the first newline, so reading resumes at a line start
// skipped counts the bytes passed over; reaching EOF first is not an error
func (r *Reader) Discard() (skipped int64, err error) {
	for {
		if r.start < r.end {
			if i := bytes.IndexByte(r.buf[r.start:r.end], '\n'); i >= 0 {
				skipped += int64(i + 1)
				r.start += i + 1
				return skipped, nil
			}
			skipped += int64(r.end - r.start)
			r.start = r.end
		}
		if r.err != nil {
			return skipped, r.err
		}
		if r.eof {
			return skipped, nil
		}
		r.fill()
	}
}

// Offset is the absolute offset of the line last returned by Next, -1 before the first
func (r *Reader) Offset() int64 { return r.lineOffset }

// Stats reports counters
func (r *Reader) Stats() Stats { return r.stats }

// fill compacts the carry to the front and reads one more chunk
func (r *Reader) fill() {
	carry := r.end - r.start
	if need := carry + r.chunk; need > len(r.buf) {
		grown := make([]byte, 2*need)
		copy(grown, r.buf[r.start:r.end])
		r.buf = grown
	} else if r.start > 0 {
		copy(r.buf, r.buf[r.start:r.end])
	}
	r.base += int64(r.start)
	r.start, r.ready, r.end = 0, 0, carry

	n, err := io.ReadFull(r.src, r.buf[carry:carry+r.chunk])
	r.stats.Bytes += int64(n)
	r.end += n

	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.eof = true
	default:
		r.err = err
	}

	if i := bytes.LastIndexByte(r.buf[carry:r.end], '\n'); i >= 0 {
		r.ready = carry + i + 1
	}
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
