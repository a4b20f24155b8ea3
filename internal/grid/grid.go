// Package grid generates shuffled Schulte table layouts.
package grid

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/samber/lo"

	"schulte/internal/apperr"
)

// Cell addresses one position of a layout.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Layout is an immutable placement of 1..Rows*Cols in a Rows x Cols grid,
// stored row-major.
type Layout struct {
	rows   int
	cols   int
	values []int
}

// Generate returns a layout holding every value of [1, rows*cols] exactly
// once, shuffled with rng.
func Generate(rows, cols int, rng *rand.Rand) (Layout, error) {
	if rows < 1 || cols < 1 {
		return Layout{}, apperr.WithMetadata(apperr.CodeInvalidDimensions,
			fmt.Sprintf("dimensions %dx%d must be positive", rows, cols),
			map[string]string{"rows": fmt.Sprint(rows), "cols": fmt.Sprint(cols)})
	}
	if rng == nil {
		return Layout{}, fmt.Errorf("generate %dx%d: nil rand source", rows, cols)
	}

	values := lo.RangeFrom(1, rows*cols)
	// Fisher-Yates
	for i := len(values) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
	return Layout{rows: rows, cols: cols, values: values}, nil
}

// Rows returns the number of rows.
func (l Layout) Rows() int { return l.rows }

// Cols returns the number of columns.
func (l Layout) Cols() int { return l.cols }

// Len returns the number of cells.
func (l Layout) Len() int { return len(l.values) }

// IsZero reports whether the layout was never generated.
func (l Layout) IsZero() bool { return len(l.values) == 0 }

// Contains reports whether (row, col) lies inside the layout.
func (l Layout) Contains(row, col int) bool {
	return row >= 0 && row < l.rows && col >= 0 && col < l.cols
}

// ValueAt returns the number at (row, col).
func (l Layout) ValueAt(row, col int) (int, error) {
	if !l.Contains(row, col) {
		return 0, apperr.InvalidCoordinates(row, col, l.rows, l.cols)
	}
	return l.values[row*l.cols+col], nil
}

// Find returns the cell holding value.
func (l Layout) Find(value int) (Cell, bool) {
	_, idx, ok := lo.FindIndexOf(l.values, func(v int) bool { return v == value })
	if !ok || l.cols == 0 {
		return Cell{}, false
	}
	return Cell{Row: idx / l.cols, Col: idx % l.cols}, true
}

// Values returns a copy of the row-major values.
func (l Layout) Values() []int {
	out := make([]int, len(l.values))
	copy(out, l.values)
	return out
}

// Matrix returns the values split into rows.
func (l Layout) Matrix() [][]int {
	if l.cols == 0 {
		return nil
	}
	return lo.Chunk(l.Values(), l.cols)
}

// Equal reports whether both layouts have the same shape and placement.
func (l Layout) Equal(other Layout) bool {
	if l.rows != other.rows || l.cols != other.cols || len(l.values) != len(other.values) {
		return false
	}
	for i := range l.values {
		if l.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// NewRand returns a deterministic source for seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeededRand returns a source seeded from crypto/rand.
func NewSeededRand() (*rand.Rand, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return NewRand(int64(binary.LittleEndian.Uint64(b[:]))), nil
}
