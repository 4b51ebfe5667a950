// Package sparse implements a cross-linked sparse matrix: every non-zero entry
// sits on both a row chain and a column chain, each headed by a sentinel slot.
//
// Entries live in an arena slice and link to each other by index, so a Matrix
// can be copied, discarded, or handed across goroutines without any pointer
// bookkeeping. Matrices are values: Transpose and Multiply always build a new
// Matrix and never touch their operands.
package sparse

import (
	"iter"

	"github.com/rotisserie/eris"
	"golang.org/x/exp/constraints"
)

// Number is the element type a Matrix may hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// nilLink terminates a row or column chain.
const nilLink = -1

var (
	// ErrDimensionMismatch is returned by Multiply when a.Cols() != b.Rows().
	ErrDimensionMismatch = eris.New("sparse: dimension mismatch")

	// ErrRaggedInput is returned by FromDense when rows differ in length.
	ErrRaggedInput = eris.New("sparse: ragged dense input")

	// ErrOutOfRange is returned by At for an index outside the matrix.
	ErrOutOfRange = eris.New("sparse: index out of range")

	// ErrBadShape is returned by New for negative dimensions.
	ErrBadShape = eris.New("sparse: invalid shape")
)

type entry[T Number] struct {
	row, col  int
	value     T
	nextInRow int
	nextInCol int
}

// Matrix is a rows×cols matrix storing non-zero entries only.
//
// Invariants: walking rowHead[r] yields entries with row == r in strictly
// increasing col order; walking colHead[c] yields entries with col == c in
// strictly increasing row order; no two entries share a (row, col) cell; no
// stored value is zero.
type Matrix[T Number] struct {
	rows, cols int
	rowHead    []int
	colHead    []int
	entries    []entry[T]
}

// Triplet is one stored entry.
type Triplet[T Number] struct {
	Row   int `json:"row" yaml:"row"`
	Col   int `json:"col" yaml:"col"`
	Value T   `json:"value" yaml:"value"`
}

// New returns an empty rows×cols matrix.
func New[T Number](rows, cols int) (*Matrix[T], error) {
	if rows < 0 || cols < 0 {
		return nil, eris.Wrapf(ErrBadShape, "new %dx%d", rows, cols)
	}
	return newMatrix[T](rows, cols), nil
}

func newMatrix[T Number](rows, cols int) *Matrix[T] {
	m := &Matrix[T]{
		rows:    rows,
		cols:    cols,
		rowHead: make([]int, rows),
		colHead: make([]int, cols),
	}
	for i := range m.rowHead {
		m.rowHead[i] = nilLink
	}
	for j := range m.colHead {
		m.colHead[j] = nilLink
	}
	return m
}

// FromDense builds a Matrix from a dense row-major slice. The column count is
// taken from the first row; an empty input yields a 0×0 matrix.
func FromDense[T Number](dense [][]T) (*Matrix[T], error) {
	rows := len(dense)
	cols := 0
	if rows > 0 {
		cols = len(dense[0])
	}
	for i, row := range dense {
		if len(row) != cols {
			return nil, eris.Wrapf(ErrRaggedInput, "row %d has %d columns, want %d", i, len(row), cols)
		}
	}

	m := newMatrix[T](rows, cols)
	for i, row := range dense {
		for j, v := range row {
			m.insert(i, j, v)
		}
	}
	return m, nil
}

// insert places v at (row, col), splicing it into both chains at the position
// that keeps them ordered. Zero values are dropped. Writing an occupied cell
// overwrites the stored value.
func (m *Matrix[T]) insert(row, col int, v T) {
	if v == 0 {
		return
	}

	// Find the row predecessor: the last entry with col < target.
	prevRow := nilLink
	cur := m.rowHead[row]
	for cur != nilLink && m.entries[cur].col < col {
		prevRow = cur
		cur = m.entries[cur].nextInRow
	}
	if cur != nilLink && m.entries[cur].col == col {
		m.entries[cur].value = v
		return
	}
	nextRow := cur

	prevCol := nilLink
	cur = m.colHead[col]
	for cur != nilLink && m.entries[cur].row < row {
		prevCol = cur
		cur = m.entries[cur].nextInCol
	}
	nextCol := cur

	idx := len(m.entries)
	m.entries = append(m.entries, entry[T]{
		row:       row,
		col:       col,
		value:     v,
		nextInRow: nextRow,
		nextInCol: nextCol,
	})

	if prevRow == nilLink {
		m.rowHead[row] = idx
	} else {
		m.entries[prevRow].nextInRow = idx
	}
	if prevCol == nilLink {
		m.colHead[col] = idx
	} else {
		m.entries[prevCol].nextInCol = idx
	}
}

// Rows returns the row count.
func (m *Matrix[T]) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Matrix[T]) Cols() int { return m.cols }

// NNZ returns the number of stored (non-zero) entries.
func (m *Matrix[T]) NNZ() int { return len(m.entries) }

// At returns the value at (row, col), zero when the cell is not stored.
func (m *Matrix[T]) At(row, col int) (T, error) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return 0, eris.Wrapf(ErrOutOfRange, "at (%d,%d) in %dx%d", row, col, m.rows, m.cols)
	}
	for c, v := range m.Row(row) {
		if c == col {
			return v, nil
		}
		if c > col {
			break
		}
	}
	return 0, nil
}

// Row iterates the non-zero entries of row r as (col, value) in column order.
func (m *Matrix[T]) Row(r int) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if r < 0 || r >= m.rows {
			return
		}
		for cur := m.rowHead[r]; cur != nilLink; cur = m.entries[cur].nextInRow {
			if !yield(m.entries[cur].col, m.entries[cur].value) {
				return
			}
		}
	}
}

// Col iterates the non-zero entries of column c as (row, value) in row order.
func (m *Matrix[T]) Col(c int) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if c < 0 || c >= m.cols {
			return
		}
		for cur := m.colHead[c]; cur != nilLink; cur = m.entries[cur].nextInCol {
			if !yield(m.entries[cur].row, m.entries[cur].value) {
				return
			}
		}
	}
}

// Triplets lists the stored entries in row-major order.
func (m *Matrix[T]) Triplets() []Triplet[T] {
	out := make([]Triplet[T], 0, len(m.entries))
	for r := 0; r < m.rows; r++ {
		for c, v := range m.Row(r) {
			out = append(out, Triplet[T]{Row: r, Col: c, Value: v})
		}
	}
	return out
}

// Transpose returns a new cols×rows matrix with every (r, c, v) stored as
// (c, r, v). The chains are rebuilt rather than swapped in place because the
// sentinel arrays are sized to the source dimensions.
func (m *Matrix[T]) Transpose() *Matrix[T] {
	t := newMatrix[T](m.cols, m.rows)
	t.entries = make([]entry[T], 0, len(m.entries))
	for r := 0; r < m.rows; r++ {
		for c, v := range m.Row(r) {
			t.insert(c, r, v)
		}
	}
	return t
}

// Multiply returns m×o using row accumulation: for each row i of m, every
// (i, k, v) scales row k of o into a dense buffer of width o.Cols(), whose
// non-zero slots become row i of the result.
func (m *Matrix[T]) Multiply(o *Matrix[T]) (*Matrix[T], error) {
	if m.cols != o.rows {
		return nil, eris.Wrapf(ErrDimensionMismatch, "multiply %dx%d by %dx%d", m.rows, m.cols, o.rows, o.cols)
	}

	out := newMatrix[T](m.rows, o.cols)
	acc := make([]T, o.cols)
	for i := 0; i < m.rows; i++ {
		for k, v := range m.Row(i) {
			for j, w := range o.Row(k) {
				acc[j] += v * w
			}
		}
		for j, sum := range acc {
			if sum != 0 {
				out.insert(i, j, sum)
				acc[j] = 0
			}
		}
	}
	return out, nil
}

// Dense flattens the matrix into a freshly allocated row-major slice.
func (m *Matrix[T]) Dense() [][]T {
	out := make([][]T, m.rows)
	for r := range out {
		out[r] = make([]T, m.cols)
		for c, v := range m.Row(r) {
			out[r][c] = v
		}
	}
	return out
}
