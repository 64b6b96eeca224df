package life

import (
	"fmt"
	"math"
)

// WorkgroupSize is the edge length of the square tile of cells one compute
// work group covers. The kernel is compiled with @workgroup_size(8, 8).
const WorkgroupSize = 8

// Grid holds the dimensions of a toroidal universe.
// A Grid is immutable once a simulation has been built from it.
type Grid struct {
	Width  int
	Height int
}

// Square returns an n x n grid.
func Square(n int) Grid {
	return Grid{Width: n, Height: n}
}

// Validate reports ErrInvalidDimension if either dimension is not positive,
// or if the cell count does not fit the uint32 index space of the kernel.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimension, g.Width, g.Height)
	}
	if uint64(g.Width)*uint64(g.Height) > math.MaxUint32 {
		return fmt.Errorf("%w: %dx%d cells exceed the 32-bit index space", ErrInvalidDimension, g.Width, g.Height)
	}
	return nil
}

// Cells returns the number of cells in the grid.
func (g Grid) Cells() int {
	return g.Width * g.Height
}

// Index returns the row-major buffer index of (x, y).
// The coordinates must already be inside the grid.
func (g Grid) Index(x, y int) int {
	return y*g.Width + x
}

// Wrap maps any coordinate onto the torus.
func (g Grid) Wrap(x, y int) (int, int) {
	x %= g.Width
	if x < 0 {
		x += g.Width
	}
	y %= g.Height
	if y < 0 {
		y += g.Height
	}
	return x, y
}

// Workgroups returns the number of 8x8 work groups needed along each axis
// to give every cell one invocation.
func (g Grid) Workgroups() (x, y uint32) {
	return uint32((g.Width + WorkgroupSize - 1) / WorkgroupSize), //nolint:gosec // validated grid
		uint32((g.Height + WorkgroupSize - 1) / WorkgroupSize) //nolint:gosec // validated grid
}

// String returns the grid as "WxH".
func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}
