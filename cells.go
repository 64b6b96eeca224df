package life

import (
	"encoding/binary"
	"fmt"
)

// Cell states as stored in the GPU buffers.
const (
	Dead  uint32 = 0
	Alive uint32 = 1
)

// CellBytes is the size of one cell in a storage buffer.
const CellBytes = 4

// Cells is the host-side mirror of a cell state buffer: one uint32 per cell,
// row-major, 0 for dead and 1 for alive.
type Cells []uint32

// NewCells returns an all-dead population for the grid.
func NewCells(g Grid) Cells {
	return make(Cells, g.Cells())
}

// Fill builds a population by calling seed for every cell, row by row.
// A nil seed yields an all-dead population.
func Fill(g Grid, seed SeedFunc) Cells {
	c := NewCells(g)
	if seed == nil {
		return c
	}
	for y := 0; y < g.Height; y++ {
		row := y * g.Width
		for x := 0; x < g.Width; x++ {
			if seed(x, y) {
				c[row+x] = Alive
			}
		}
	}
	return c
}

// Bytes encodes the cells little-endian, ready for a buffer upload.
func (c Cells) Bytes() []byte {
	out := make([]byte, len(c)*CellBytes)
	for i, v := range c {
		binary.LittleEndian.PutUint32(out[i*CellBytes:], v)
	}
	return out
}

// CellsFromBytes decodes a buffer readback. Any non-zero word is treated as
// alive so that a stray value can never leak into later generations.
func CellsFromBytes(b []byte) (Cells, error) {
	if len(b)%CellBytes != 0 {
		return nil, fmt.Errorf("life: buffer length %d is not a multiple of %d", len(b), CellBytes)
	}
	c := make(Cells, len(b)/CellBytes)
	for i := range c {
		if binary.LittleEndian.Uint32(b[i*CellBytes:]) != 0 {
			c[i] = Alive
		}
	}
	return c, nil
}

// Population returns the number of live cells.
func (c Cells) Population() int {
	n := 0
	for _, v := range c {
		if v != Dead {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (c Cells) Clone() Cells {
	out := make(Cells, len(c))
	copy(out, c)
	return out
}

// Equal reports whether both populations are identical cell by cell.
func (c Cells) Equal(other Cells) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Diff returns the indices at which a and b differ.
// Cells past the end of the shorter slice count as differing.
func Diff(a, b Cells) []int {
	n := max(len(a), len(b))
	var out []int
	for i := 0; i < n; i++ {
		if i >= len(a) || i >= len(b) || a[i] != b[i] {
			out = append(out, i)
		}
	}
	return out
}

// Check returns ErrSizeMismatch if c does not hold exactly one word per cell.
func (c Cells) Check(g Grid) error {
	if len(c) != g.Cells() {
		return fmt.Errorf("%w: have %d cells, grid %s needs %d", ErrSizeMismatch, len(c), g, g.Cells())
	}
	return nil
}
