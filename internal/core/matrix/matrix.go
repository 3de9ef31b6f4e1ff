// Package matrix holds visit counts as rows of per-date cells, dense or sparse
package matrix

import (
	"cmp"
	"math"
	"slices"

	perr "visitagg/internal/platform/errors"
)

// Unseen marks a row that was never counted
const Unseen int64 = math.MaxInt64

// Matrix is a flat rows x width table of counts
// each row also remembers the smallest input offset it was counted at
type Matrix struct {
	width int
	cells []uint32
	first []int64
}

// New returns a matrix of width columns with rows zero rows
func New(width, rows int) *Matrix {
	m := &Matrix{width: width}
	m.Grow(rows)
	return m
}

// Width is the number of date columns
func (m *Matrix) Width() int { return m.width }

// Rows is the number of path rows
func (m *Matrix) Rows() int { return len(m.first) }

// AddRow appends a zero row and returns its index
func (m *Matrix) AddRow() int {
	m.Grow(len(m.first) + 1)
	return len(m.first) - 1
}

// Grow makes sure at least rows rows exist
func (m *Matrix) Grow(rows int) {
	have := len(m.first)
	if rows <= have {
		return
	}
	n := len(m.cells)
	m.cells = slices.Grow(m.cells, (rows-have)*m.width)[:rows*m.width]
	clear(m.cells[n:])
	for range rows - have {
		m.first = append(m.first, Unseen)
	}
}

// Inc counts one visit for (row, col) seen at input offset off
func (m *Matrix) Inc(row, col int, off int64) {
	m.cells[row*m.width+col]++
	if off < m.first[row] {
		m.first[row] = off
	}
}

// AddCount adds n visits to (row, col) without touching the row's first offset
func (m *Matrix) AddCount(row, col int, n uint32) {
	m.cells[row*m.width+col] += n
}

// Mark lowers the first offset of row to off
func (m *Matrix) Mark(row int, off int64) {
	if off < m.first[row] {
		m.first[row] = off
	}
}

// Get returns the count at (row, col)
func (m *Matrix) Get(row, col int) uint32 { return m.cells[row*m.width+col] }

// Row returns the counts of row; the slice aliases the matrix
func (m *Matrix) Row(row int) []uint32 { return m.cells[row*m.width : (row+1)*m.width] }

// First returns the smallest offset row was counted at, or Unseen
func (m *Matrix) First(row int) int64 { return m.first[row] }

// Sum totals every cell
func (m *Matrix) Sum() uint64 {
	var s uint64
	for _, c := range m.cells {
		s += uint64(c)
	}
	return s
}

// Add folds o into m
// remap[i] is the row of m that receives o's row i; nil means the same index.
// shift is added to o's first offsets, for merging results of inputs laid end to end.
func (m *Matrix) Add(o *Matrix, remap []int, shift int64) error {
	if o.width != m.width {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "matrix width mismatch: %d vs %d", m.width, o.width)
	}
	if remap != nil && len(remap) < o.Rows() {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "row remap covers %d of %d rows", len(remap), o.Rows())
	}
	for r := range o.Rows() {
		dst := r
		if remap != nil {
			dst = remap[r]
		}
		if dst >= m.Rows() {
			m.Grow(dst + 1)
		}
		if f := o.first[r]; f != Unseen {
			m.Mark(dst, f+shift)
		}
		to := m.Row(dst)
		for c, v := range o.Row(r) {
			to[c] += v
		}
	}
	return nil
}

// Order returns the rows that were counted, by ascending first offset
func (m *Matrix) Order() []int { return orderByFirst(m.first) }

// Each calls fn for every non-zero cell of row in ascending column order
func (m *Matrix) Each(row int, fn func(col int, n uint32)) {
	for c, n := range m.Row(row) {
		if n != 0 {
			fn(c, n)
		}
	}
}

func orderByFirst(first []int64) []int {
	rows := make([]int, 0, len(first))
	for r, f := range first {
		if f != Unseen {
			rows = append(rows, r)
		}
	}
	slices.SortStableFunc(rows, func(a, b int) int { return cmp.Compare(first[a], first[b]) })
	return rows
}
