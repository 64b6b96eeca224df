package parallel

// Band is a half-open range of rows [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int {
	return b.Y1 - b.Y0
}

// Bands splits rows into at most n contiguous, non-empty bands whose sizes
// differ by at most one row. The bands cover [0, rows) exactly once.
func Bands(rows, n int) []Band {
	if rows <= 0 {
		return nil
	}
	n = min(max(n, 1), rows)

	out := make([]Band, 0, n)
	base, extra := rows/n, rows%n
	y := 0
	for i := range n {
		size := base
		if i < extra {
			size++
		}
		out = append(out, Band{Y0: y, Y1: y + size})
		y += size
	}
	return out
}
