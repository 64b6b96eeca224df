//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/life"
)

var (
	// ErrResourceAllocation is returned when the device refuses to create a
	// buffer, layout or bind group, or when a buffer would exceed the device
	// limits.
	ErrResourceAllocation = errors.New("gpu: resource allocation failed")

	// ErrPipelineCompilation is returned when the kernel fails validation or
	// the compute pipeline cannot be created.
	ErrPipelineCompilation = errors.New("gpu: compute pipeline compilation failed")

	// ErrInvalidDimension is life.ErrInvalidDimension, re-exported so callers
	// of this package can match every construction error without importing life.
	ErrInvalidDimension = life.ErrInvalidDimension

	// ErrNoGPU is returned when no usable adapter is found.
	ErrNoGPU = errors.New("gpu: no GPU adapter available")

	// ErrNilDevice is returned when a nil device or queue is passed in.
	ErrNilDevice = errors.New("gpu: device and queue must not be nil")

	// ErrNilState is returned by NewEngine when the grid state is nil.
	ErrNilState = errors.New("gpu: grid state is nil")

	// ErrEngineDestroyed is returned when recording on a destroyed engine.
	ErrEngineDestroyed = errors.New("gpu: engine destroyed")

	// ErrInvalidBuffer is returned for a cell buffer index other than 0 or 1.
	ErrInvalidBuffer = errors.New("gpu: cell buffer index must be 0 or 1")

	// ErrMapFailed is returned when a readback buffer cannot be mapped.
	ErrMapFailed = errors.New("gpu: buffer mapping failed")

	errInvalidSPIRV = errors.New("compiler produced a malformed SPIR-V module")
)

// AllocationError describes a GPU resource that could not be created.
// It matches ErrResourceAllocation with errors.Is.
type AllocationError struct {
	Resource string // label of the resource
	Size     uint64 // requested size in bytes, 0 for non-buffer resources
	Err      error
}

func (e *AllocationError) Error() string {
	if e.Size > 0 {
		return fmt.Sprintf("gpu: allocate %s (%d bytes): %v", e.Resource, e.Size, e.Err)
	}
	return fmt.Sprintf("gpu: create %s: %v", e.Resource, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrResourceAllocation.
func (e *AllocationError) Is(target error) bool { return target == ErrResourceAllocation }

// CompilationError describes a kernel that failed to compile.
// It matches ErrPipelineCompilation with errors.Is.
type CompilationError struct {
	Stage string // "wgsl", "spirv", "shader module", "pipeline layout" or "pipeline"
	Err   error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("gpu: compile kernel (%s): %v", e.Stage, e.Err)
}

func (e *CompilationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPipelineCompilation.
func (e *CompilationError) Is(target error) bool { return target == ErrPipelineCompilation }
