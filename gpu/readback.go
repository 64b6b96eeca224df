//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/life"
	"github.com/gogpu/wgpu/hal"
)

// pollInterval is how often WaitSubmission checks the queue.
const pollInterval = 100 * time.Microsecond

// WaitSubmission blocks until the queue reports submission index as
// completed or ctx is done. It is the barrier between a step and anything
// that reads its output.
func WaitSubmission(ctx context.Context, queue hal.Queue, index uint64) error {
	if queue.PollCompleted() >= index {
		return nil
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("gpu: wait for submission %d: %w", index, ctx.Err())
		case <-ticker.C:
			if queue.PollCompleted() >= index {
				return nil
			}
		}
	}
}

// ReadCells copies cell buffer index (0 or 1) back to the host.
//
// The copy is submitted on the state's queue after any work already
// submitted, so it observes the last completed step that wrote the buffer.
// Only read the buffer most recently written; the other one holds the
// generation before it.
func ReadCells(ctx context.Context, state *GridState, index int) (life.Cells, error) {
	if state == nil {
		return nil, ErrNilState
	}
	src := state.Buffer(index)
	if src == nil {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBuffer, index)
	}
	device, queue, size := state.device, state.queue, state.size

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cell readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, &AllocationError{Resource: "cell readback", Size: size, Err: err}
	}

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback encoder"})
	if err != nil {
		device.DestroyBuffer(staging)
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("cell readback"); err != nil {
		encoder.Destroy()
		device.DestroyBuffer(staging)
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(src, staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		encoder.Destroy()
		device.DestroyBuffer(staging)
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}

	submission, err := queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		device.FreeCommandBuffer(cmd)
		device.DestroyBuffer(staging)
		return nil, fmt.Errorf("gpu: submit readback: %w", err)
	}
	if err := WaitSubmission(ctx, queue, submission); err != nil {
		// The copy may still be writing the staging buffer; leak it and the
		// command buffer rather than free memory the device is using.
		slogger().Warn("gpu: readback abandoned in flight", "submission", submission, "err", err)
		return nil, err
	}
	defer device.DestroyBuffer(staging)
	device.FreeCommandBuffer(cmd)

	mapping, err := device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMapFailed, err)
	}
	data := unsafe.Slice((*byte)(mapping.Ptr), size)
	cells, decodeErr := life.CellsFromBytes(data)
	if err := device.UnmapBuffer(staging); err != nil {
		slogger().Warn("gpu: unmap readback buffer", "err", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	slogger().Debug("gpu: cells read back", "buffer", index, "bytes", size)
	return cells, nil
}
