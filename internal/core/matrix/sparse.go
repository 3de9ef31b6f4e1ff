package matrix

import (
	"slices"
)

// Cell is one non-zero count of a sparse row
type Cell struct {
	Col int
	N   uint32
}

// Sparse keeps only the non-zero cells of each row
// rows are independent, so goroutines may fill distinct rows concurrently
type Sparse struct {
	first []int64
	cells [][]Cell
}

// NewSparse returns rows empty rows
func NewSparse(rows int) *Sparse {
	s := &Sparse{first: make([]int64, rows), cells: make([][]Cell, rows)}
	for i := range s.first {
		s.first[i] = Unseen
	}
	return s
}

// Rows is the number of rows
func (s *Sparse) Rows() int { return len(s.first) }

// Mark lowers the first offset of row to off
func (s *Sparse) Mark(row int, off int64) {
	if off < s.first[row] {
		s.first[row] = off
	}
}

// Set replaces the cells of row, dropping zero counts and ordering by column
func (s *Sparse) Set(row int, cells []Cell) {
	cells = slices.DeleteFunc(cells, func(c Cell) bool { return c.N == 0 })
	slices.SortFunc(cells, func(a, b Cell) int { return a.Col - b.Col })
	s.cells[row] = cells
}

// Order returns the marked rows by ascending first offset
func (s *Sparse) Order() []int { return orderByFirst(s.first) }

// Each calls fn for every cell of row in ascending column order
func (s *Sparse) Each(row int, fn func(col int, n uint32)) {
	for _, c := range s.cells[row] {
		fn(c.Col, c.N)
	}
}

// Sum totals every cell
func (s *Sparse) Sum() uint64 {
	var t uint64
	for _, row := range s.cells {
		for _, c := range row {
			t += uint64(c.N)
		}
	}
	return t
}
