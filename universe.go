package life

import "github.com/gogpu/life/internal/parallel"

// parallelThreshold is the smallest grid (in cells) stepped on the pool.
// Smaller grids are cheaper to step on the calling goroutine.
const parallelThreshold = 64 * 64

// UniverseOption configures a Universe.
type UniverseOption func(*universeOptions)

type universeOptions struct {
	workers int
}

// WithWorkers sets the number of goroutines used to step large grids.
// Zero or a negative value uses GOMAXPROCS; one disables parallel stepping.
func WithWorkers(n int) UniverseOption {
	return func(o *universeOptions) {
		o.workers = n
	}
}

// Universe is the CPU reference model of the simulation. It keeps its own
// ping-pong pair and produces results bit-identical to the compute kernel.
//
// Universe is not safe for concurrent use.
type Universe struct {
	grid       Grid
	cur, next  Cells
	generation uint64
	pool       *parallel.WorkerPool
}

// NewUniverse returns a universe seeded by seed. It panics if the grid is
// invalid; call Grid.Validate first for untrusted input.
func NewUniverse(g Grid, seed SeedFunc, opts ...UniverseOption) *Universe {
	if err := g.Validate(); err != nil {
		panic(err)
	}
	var o universeOptions
	for _, opt := range opts {
		opt(&o)
	}

	u := &Universe{
		grid: g,
		cur:  Fill(g, seed),
		next: NewCells(g),
	}
	if o.workers != 1 && g.Cells() >= parallelThreshold {
		u.pool = parallel.NewWorkerPool(o.workers)
	}
	Logger().Debug("life: universe created", "grid", g.String(), "parallel", u.pool != nil)
	return u
}

// NewUniverseFromCells returns a universe whose first generation is a copy of
// c. Any non-zero cell is alive.
func NewUniverseFromCells(g Grid, c Cells, opts ...UniverseOption) (*Universe, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := c.Check(g); err != nil {
		return nil, err
	}
	u := NewUniverse(g, nil, opts...)
	for i, v := range c {
		if v != Dead {
			u.cur[i] = Alive
		}
	}
	return u, nil
}

// Grid returns the universe dimensions.
func (u *Universe) Grid() Grid { return u.grid }

// Generation returns the number of steps taken so far.
func (u *Universe) Generation() uint64 { return u.generation }

// Cells returns the current generation. The slice is owned by the universe
// and is overwritten two steps later; Clone it to keep it.
func (u *Universe) Cells() Cells { return u.cur }

// Alive reports whether the cell at (x, y) is alive. Coordinates wrap.
func (u *Universe) Alive(x, y int) bool {
	x, y = u.grid.Wrap(x, y)
	return u.cur[u.grid.Index(x, y)] != Dead
}

// Population returns the number of live cells.
func (u *Universe) Population() int { return u.cur.Population() }

// Step advances the universe by one generation.
func (u *Universe) Step() {
	if u.pool != nil {
		u.pool.ForEachBand(u.grid.Height, func(y0, y1 int) {
			stepRows(u.next, u.cur, u.grid, y0, y1)
		})
	} else {
		Step(u.next, u.cur, u.grid)
	}
	u.cur, u.next = u.next, u.cur
	u.generation++
}

// StepN advances the universe by n generations.
func (u *Universe) StepN(n int) {
	for range n {
		u.Step()
	}
}

// Close releases the worker pool. The universe can still be read and
// stepped afterwards, sequentially.
func (u *Universe) Close() {
	if u.pool != nil {
		u.pool.Close()
		u.pool = nil
	}
}
