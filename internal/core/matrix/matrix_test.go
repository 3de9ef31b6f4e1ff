package matrix

import (
	"testing"

	perr "visitagg/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowAndInc(t *testing.T) {
	t.Parallel()

	m := New(4, 0)
	assert.Equal(t, 0, m.Rows())

	r0 := m.AddRow()
	r1 := m.AddRow()
	require.Equal(t, []int{0, 1}, []int{r0, r1})

	m.Inc(r1, 3, 50)
	m.Inc(r1, 3, 90)
	m.Inc(r0, 0, 120)
	m.Grow(5)

	assert.Equal(t, 5, m.Rows())
	assert.Equal(t, uint32(2), m.Get(r1, 3))
	assert.Equal(t, int64(50), m.First(r1))
	assert.Equal(t, int64(120), m.First(r0))
	assert.Equal(t, Unseen, m.First(4))
	assert.Equal(t, []uint32{0, 0, 0, 0}, m.Row(4))
	assert.Equal(t, uint64(3), m.Sum())
	assert.Equal(t, []int{1, 0}, m.Order(), "counted rows only, by first offset")
}

func TestAdd_RemapAndShift(t *testing.T) {
	t.Parallel()

	dst := New(3, 2)
	dst.Inc(0, 0, 10)
	dst.Inc(1, 1, 20)

	part := New(3, 3)
	part.Inc(0, 1, 0) // same path as dst row 1
	part.Inc(1, 2, 4) // new path
	part.AddCount(2, 0, 7)

	require.NoError(t, dst.Add(part, []int{1, 2, 3}, 100))
	assert.Equal(t, 4, dst.Rows())
	assert.Equal(t, uint32(2), dst.Get(1, 1))
	assert.Equal(t, int64(20), dst.First(1))
	assert.Equal(t, int64(104), dst.First(2))
	assert.Equal(t, uint32(7), dst.Get(3, 0))
	assert.Equal(t, Unseen, dst.First(3), "AddCount leaves first untouched")
	assert.Equal(t, uint64(2+2+7), dst.Sum())
}

func TestAdd_CommutativeAndAssociative(t *testing.T) {
	t.Parallel()

	mk := func(seed int) *Matrix {
		m := New(5, 3)
		for i := range 20 {
			m.Inc((i*seed)%3, (i+seed)%5, int64(i*seed))
		}
		return m
	}
	a, b, c := mk(1), mk(2), mk(3)

	ab := New(5, 0)
	require.NoError(t, ab.Add(a, nil, 0))
	require.NoError(t, ab.Add(b, nil, 0))
	require.NoError(t, ab.Add(c, nil, 0))

	cb := New(5, 0)
	require.NoError(t, cb.Add(c, nil, 0))
	require.NoError(t, cb.Add(b, nil, 0))
	require.NoError(t, cb.Add(a, nil, 0))

	assert.Equal(t, ab.cells, cb.cells)
	assert.Equal(t, ab.first, cb.first)
	assert.Equal(t, uint64(60), ab.Sum())
}

func TestAdd_Errors(t *testing.T) {
	t.Parallel()

	err := New(3, 1).Add(New(4, 1), nil, 0)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	err = New(3, 1).Add(New(3, 2), []int{0}, 0)
	assert.Error(t, err)
}

func TestSparse(t *testing.T) {
	t.Parallel()

	s := NewSparse(3)
	s.Mark(2, 7)
	s.Mark(0, 30)
	s.Mark(0, 12)
	s.Set(0, []Cell{{Col: 9, N: 1}, {Col: 2, N: 4}, {Col: 5, N: 0}})
	s.Set(2, []Cell{{Col: 1, N: 2}})

	assert.Equal(t, []int{2, 0}, s.Order())
	assert.Equal(t, uint64(7), s.Sum())

	var got []Cell
	s.Each(0, func(col int, n uint32) { got = append(got, Cell{Col: col, N: n}) })
	assert.Equal(t, []Cell{{Col: 2, N: 4}, {Col: 9, N: 1}}, got)
}

func TestEach_SkipsZeros(t *testing.T) {
	t.Parallel()

	m := New(4, 1)
	m.Inc(0, 3, 0)
	m.AddCount(0, 1, 2)
	var cols []int
	m.Each(0, func(col int, _ uint32) { cols = append(cols, col) })
	assert.Equal(t, []int{1, 3}, cols)
}
