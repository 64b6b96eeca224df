package life

// NextState applies the B3/S23 table to a cell with the given number of
// live neighbors. It matches the switch in the compute kernel.
func NextState(state uint32, neighbors int) uint32 {
	switch neighbors {
	case 2:
		return state
	case 3:
		return Alive
	default:
		return Dead
	}
}

// Neighbors returns the number of live cells in the Moore neighborhood of
// (x, y), excluding the cell itself. Coordinates wrap toroidally.
func Neighbors(c Cells, g Grid, x, y int) int {
	w, h := g.Width, g.Height
	xl := (x + w - 1) % w
	xr := (x + 1) % w
	yu := (y + h - 1) % h
	yd := (y + 1) % h

	n := c[yu*w+xl] + c[yu*w+x] + c[yu*w+xr] +
		c[y*w+xl] + c[y*w+xr] +
		c[yd*w+xl] + c[yd*w+x] + c[yd*w+xr]
	return int(n)
}

// stepRows writes generation n+1 of rows [y0, y1) of src into dst.
func stepRows(dst, src Cells, g Grid, y0, y1 int) {
	for y := y0; y < y1; y++ {
		row := y * g.Width
		for x := 0; x < g.Width; x++ {
			dst[row+x] = NextState(src[row+x], Neighbors(src, g, x, y))
		}
	}
}

// Step computes the next generation of src into dst. Both slices must hold
// g.Cells() cells and must not alias.
func Step(dst, src Cells, g Grid) {
	stepRows(dst, src, g, 0, g.Height)
}
