//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/life"
	"github.com/gogpu/wgpu/hal"
)

// uniformSize is the size of the vec2<u32> grid uniform.
const uniformSize = 8

// Resource labels.
const (
	labelUniform = "grid uniform"
	labelCellsA  = "cell state A"
	labelCellsB  = "cell state B"
)

// GridState owns the GPU storage of one simulation: the grid-size uniform
// and the two cell state buffers the engine ping-pongs between.
//
// Buffer 0 holds the seeded first generation. Buffer 1 starts zeroed; the
// first step writes every cell of it before anything reads it.
//
// GridState is immutable after construction and safe for concurrent reads.
type GridState struct {
	device hal.Device
	queue  hal.Queue
	grid   life.Grid
	limits gputypes.Limits
	label  string

	uniform hal.Buffer
	cells   [2]hal.Buffer
	size    uint64
}

// NewGridState allocates and seeds the buffers for grid on device.
//
// Grid dimensions are validated before the device is touched. A population
// that does not fit the device limits is rejected with an *AllocationError,
// never truncated. On any failure every buffer already created is released.
func NewGridState(device hal.Device, queue hal.Queue, grid life.Grid, opts ...Option) (*GridState, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	o := defaultStateOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkDispatchLimits(grid, o.limits); err != nil {
		return nil, err
	}
	if math.IsNaN(o.probability) || o.probability < 0 || o.probability > 1 {
		return nil, fmt.Errorf("%w: got %v", life.ErrInvalidProbability, o.probability)
	}
	if o.cells != nil {
		if err := o.cells.Check(grid); err != nil {
			return nil, err
		}
	}
	size, err := cellBufferSize(grid, o.limits)
	if err != nil {
		return nil, err
	}
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}

	s := &GridState{
		device: device,
		queue:  queue,
		grid:   grid,
		limits: o.limits,
		label:  o.label,
		size:   size,
	}
	if err := s.allocate(&o); err != nil {
		s.Destroy()
		return nil, err
	}

	slogger().Debug("gpu: grid state created",
		"grid", grid.String(), "buffer_bytes", size, "label", o.label)
	return s, nil
}

// cellBufferSize returns the byte size of one cell buffer, or an
// *AllocationError if it overflows or exceeds the limits.
func cellBufferSize(grid life.Grid, limits gputypes.Limits) (uint64, error) {
	cells := uint64(grid.Width) * uint64(grid.Height) //nolint:gosec // validated positive
	if cells > math.MaxUint64/life.CellBytes {
		return 0, &AllocationError{Resource: labelCellsA, Err: fmt.Errorf("size of %s grid overflows", grid)}
	}
	size := cells * life.CellBytes
	maxSize := min(limits.MaxBufferSize, limits.MaxStorageBufferBindingSize)
	if size > maxSize {
		return 0, &AllocationError{
			Resource: labelCellsA,
			Size:     size,
			Err:      fmt.Errorf("exceeds device limit of %d bytes", maxSize),
		}
	}
	return size, nil
}

// checkDispatchLimits rejects grids needing more work groups along an axis
// than the device can dispatch.
func checkDispatchLimits(grid life.Grid, limits gputypes.Limits) error {
	wx, wy := grid.Workgroups()
	maxGroups := limits.MaxComputeWorkgroupsPerDimension
	if maxGroups > 0 && (wx > maxGroups || wy > maxGroups) {
		return fmt.Errorf("%w: %s needs %dx%d work groups, device allows %d per dimension",
			life.ErrInvalidDimension, grid, wx, wy, maxGroups)
	}
	return nil
}

func (s *GridState) allocate(o *stateOptions) error {
	var err error

	s.uniform, err = s.createBuffer(o.resourceLabel(labelUniform), uniformSize,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	if err := s.write(s.uniform, o.resourceLabel(labelUniform), s.uniformBytes()); err != nil {
		return err
	}

	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	for i, name := range [2]string{labelCellsA, labelCellsB} {
		s.cells[i], err = s.createBuffer(o.resourceLabel(name), s.size, usage)
		if err != nil {
			return err
		}
	}

	seeded := life.Fill(s.grid, o.seedFunc(s.grid))
	if err := s.write(s.cells[0], o.resourceLabel(labelCellsA), seeded.Bytes()); err != nil {
		return err
	}
	// Some backends hand out recycled memory, so buffer 1 is cleared explicitly.
	return s.write(s.cells[1], o.resourceLabel(labelCellsB), make([]byte, s.size))
}

func (s *GridState) createBuffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, &AllocationError{Resource: label, Size: size, Err: err}
	}
	return buf, nil
}

func (s *GridState) write(buf hal.Buffer, label string, data []byte) error {
	if err := s.queue.WriteBuffer(buf, 0, data); err != nil {
		return &AllocationError{Resource: label, Size: uint64(len(data)), Err: fmt.Errorf("upload: %w", err)}
	}
	return nil
}

// uniformBytes encodes the grid as the kernel's vec2<u32>.
func (s *GridState) uniformBytes() []byte {
	b := make([]byte, uniformSize)
	binary.LittleEndian.PutUint32(b[0:], uint32(s.grid.Width))  //nolint:gosec // validated
	binary.LittleEndian.PutUint32(b[4:], uint32(s.grid.Height)) //nolint:gosec // validated
	return b
}

// Grid returns the simulated grid.
func (s *GridState) Grid() life.Grid { return s.grid }

// Uniform returns the grid-size uniform buffer.
func (s *GridState) Uniform() hal.Buffer { return s.uniform }

// Buffer returns cell state buffer i (0 or 1), or nil for any other index.
func (s *GridState) Buffer(i int) hal.Buffer {
	if i < 0 || i > 1 {
		return nil
	}
	return s.cells[i]
}

// BufferSize returns the size in bytes of each cell state buffer.
func (s *GridState) BufferSize() uint64 { return s.size }

// Limits returns the device limits the buffers were checked against.
func (s *GridState) Limits() gputypes.Limits { return s.limits }

// Device returns the device owning the buffers.
func (s *GridState) Device() hal.Device { return s.device }

// Queue returns the queue used for uploads.
func (s *GridState) Queue() hal.Queue { return s.queue }

// Destroy releases the buffers in reverse order of creation. The device and
// queue are not touched. Destroy is safe to call more than once.
func (s *GridState) Destroy() {
	if s.device == nil {
		return
	}
	for i := len(s.cells) - 1; i >= 0; i-- {
		if s.cells[i] != nil {
			s.device.DestroyBuffer(s.cells[i])
			s.cells[i] = nil
		}
	}
	if s.uniform != nil {
		s.device.DestroyBuffer(s.uniform)
		s.uniform = nil
	}
}
