// Package report serializes a count table as nested JSON
//
//	{
//	    "path": {
//	        "YYYY-MM-DD": n
//	    }
//	}
//
// Paths come in first-seen order and dates ascending; zero counts are left out.
// An empty table is written as {}.
package report

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"visitagg/internal/core/dictionary"
	perr "visitagg/internal/platform/errors"
)

const bufSize = 1 << 20

// Namer resolves a row to its path
type Namer interface {
	Path(id int) string
}

// Table is what the writer needs from a count table
type Table interface {
	// Order lists rows in output order
	Order() []int
	// Each yields the non-zero cells of row by ascending column
	Each(row int, fn func(col int, n uint32))
}

// Summary describes what was written
type Summary struct {
	Paths  int
	Dates  int
	Visits uint64
	Bytes  int64
}

// Write renders t to w
func Write(w io.Writer, t Table, names Namer, h dictionary.Horizon) (Summary, error) {
	var sum Summary
	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, bufSize)

	buf := make([]byte, 0, 256)
	buf = append(buf, '{')
	for _, row := range t.Order() {
		dates := 0
		t.Each(row, func(col int, n uint32) {
			if dates == 0 {
				if sum.Paths > 0 {
					buf = append(buf, ',')
				}
				buf = append(buf, "\n    "...)
				buf = AppendKey(buf, names.Path(row))
				buf = append(buf, ": {"...)
			} else {
				buf = append(buf, ',')
			}
			dates++
			buf = append(buf, "\n        \""...)
			buf = h.Append(buf, col)
			buf = append(buf, "\": "...)
			buf = strconv.AppendUint(buf, uint64(n), 10)
			sum.Visits += uint64(n)
		})
		if dates == 0 {
			continue
		}
		sum.Paths++
		sum.Dates += dates
		buf = append(buf, "\n    }"...)

		if _, err := bw.Write(buf); err != nil {
			return sum, perr.IOf(err, "write report")
		}
		buf = buf[:0]
	}
	if sum.Paths > 0 {
		buf = append(buf, '\n')
	}
	buf = append(buf, '}')
	if _, err := bw.Write(buf); err != nil {
		return sum, perr.IOf(err, "write report")
	}
	if err := bw.Flush(); err != nil {
		return sum, perr.IOf(err, "flush report")
	}
	sum.Bytes = cw.n
	return sum, nil
}

// WriteFile renders t into a temp file beside path and renames it into place
// on any failure the temp file is removed and path is left as it was
func WriteFile(path string, t Table, names Namer, h dictionary.Horizon) (sum Summary, err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return sum, perr.IOf(err, "create report temp file in %s", dir)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if sum, err = Write(tmp, t, names, h); err != nil {
		return sum, err
	}
	if err = tmp.Sync(); err != nil {
		return sum, perr.IOf(err, "sync report")
	}
	if err = tmp.Close(); err != nil {
		return sum, perr.IOf(err, "close report")
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return sum, perr.IOf(err, "chmod report")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return sum, perr.IOf(err, "publish report %s", path)
	}
	return sum, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
