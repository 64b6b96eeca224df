package life

import (
	"math/rand/v2"
	"time"
)

// DefaultAliveProbability is the chance that the default seed makes a cell
// alive. A cell is alive when a uniform draw in [0, 1) exceeds 1-p (0.6).
const DefaultAliveProbability = 0.4

// SeedFunc decides whether the cell at (x, y) starts alive.
// It is called exactly once per cell, row by row from (0, 0).
type SeedFunc func(x, y int) bool

// Point is a cell coordinate.
type Point struct {
	X, Y int
}

// RandomSeed returns a seed that makes every cell alive independently with
// probability p. A nil src uses a PCG source seeded from the clock.
// Probabilities outside [0, 1] are clamped.
func RandomSeed(p float64, src rand.Source) SeedFunc {
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), 0) //nolint:gosec // seed value only
	}
	p = min(max(p, 0), 1)
	threshold := 1 - p
	r := rand.New(src)
	return func(_, _ int) bool {
		return r.Float64() > threshold
	}
}

// NewSource returns the deterministic source RandomSeed uses when the
// caller wants reproducible populations.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, 0)
}

// PatternSeed returns a seed with exactly the given cells alive.
// Points outside the grid are wrapped by the caller's grid, not here;
// they simply never match.
func PatternSeed(points ...Point) SeedFunc {
	set := make(map[Point]struct{}, len(points))
	for _, p := range points {
		set[p] = struct{}{}
	}
	return func(x, y int) bool {
		_, ok := set[Point{x, y}]
		return ok
	}
}

// CellsSeed returns a seed that replays an existing population.
func CellsSeed(c Cells, g Grid) SeedFunc {
	return func(x, y int) bool {
		return c[g.Index(x, y)] != Dead
	}
}

// Blinker returns a seed with a horizontal three-cell row centred at (x, y),
// the period-2 oscillator.
func Blinker(x, y int) SeedFunc {
	return PatternSeed(Point{x - 1, y}, Point{x, y}, Point{x + 1, y})
}

// Glider returns a seed with a south-east travelling glider whose bounding
// box has its top-left corner at (x, y).
func Glider(x, y int) SeedFunc {
	return PatternSeed(
		Point{x + 1, y},
		Point{x + 2, y + 1},
		Point{x, y + 2}, Point{x + 1, y + 2}, Point{x + 2, y + 2},
	)
}
