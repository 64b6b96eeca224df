// Package life provides the host-side model of a Conway's Game of Life
// universe that is advanced on the GPU by the [github.com/gogpu/life/gpu]
// engine.
//
// # Overview
//
// A universe is a square or rectangular [Grid] of cells laid out row-major
// (index = y*width + x). Each cell is a single bit of aliveness stored as a
// uint32 so that the host representation ([Cells]) matches the storage
// buffers the compute kernel reads and writes byte for byte.
//
// The grid is a discrete torus: the left edge neighbors the right edge and
// the top neighbors the bottom, so every cell has exactly eight neighbors.
//
// # Rule
//
// The rule is fixed (B3/S23):
//   - exactly 2 live neighbors: the cell keeps its state
//   - exactly 3 live neighbors: the cell is alive
//   - anything else: the cell is dead
//
// [NextState] encodes the table and [Neighbors] computes the wrapped Moore
// sum. Both mirror the WGSL kernel exactly.
//
// # Reference Model
//
// [Universe] is a CPU implementation with its own ping-pong pair. It is
// used to verify GPU output and by tests that need to observe generations
// without a device:
//
//	u := life.NewUniverse(life.Grid{Width: 8, Height: 8}, life.Blinker(4, 4))
//	defer u.Close()
//	u.Step()
//	fmt.Println(u.Population()) // 3
//
// # Seeding
//
// Initial populations come from a [SeedFunc] called once per cell. The
// default policy, [RandomSeed] with [DefaultAliveProbability], makes each
// cell alive independently with probability 0.4.
//
// # Logging
//
// The package is silent by default. Call [SetLogger] to route diagnostics
// from life and the gpu engine to a [log/slog.Logger].
package life
