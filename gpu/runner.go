//go:build !nogpu

package gpu

import (
	"context"
	"fmt"

	"github.com/gogpu/life"
	"github.com/gogpu/wgpu/hal"
)

// Runner drives an Engine on its state's queue. It owns the step counter:
// Step is the index of the next step to run, which is also the number of
// generations computed so far.
//
// Each step is submitted and waited for before the next is recorded, so a
// step never reads a buffer the previous step is still writing.
//
// Runner is not safe for concurrent use.
type Runner struct {
	Engine *Engine
	Step   uint64
}

// NewRunner returns a runner starting at step 0.
func NewRunner(e *Engine) *Runner {
	return &Runner{Engine: e}
}

// Run advances the simulation by n generations. On error Step counts the
// generations that completed.
func (r *Runner) Run(ctx context.Context, n int) error {
	queue := r.Engine.state.queue
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, err := r.Engine.Advance(r.Step)
		if err != nil {
			return err
		}
		submission, err := queue.Submit([]hal.CommandBuffer{st.Commands})
		if err != nil {
			st.Release()
			return fmt.Errorf("gpu: submit step %d: %w", r.Step, err)
		}
		if err := WaitSubmission(ctx, queue, submission); err != nil {
			// The command buffer may still be in flight; leak it rather
			// than free memory the device is using.
			return err
		}
		st.Release()
		r.Step++
	}
	return nil
}

// Current returns the index of the buffer holding generation Step. Step 0
// is the seeded buffer 0; after that it is the output of step Step-1.
func (r *Runner) Current() int {
	return int(r.Step % 2) //nolint:gosec // 0 or 1
}

// Snapshot reads generation Step back to the host.
func (r *Runner) Snapshot(ctx context.Context) (life.Cells, error) {
	return ReadCells(ctx, r.Engine.state, r.Current())
}
