//go:build !nogpu

package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/life"
	"github.com/gogpu/wgpu/hal"
)

// Debug labels of the engine's resources.
const (
	labelBindLayout = "cell bind group layout"
	labelPipeLayout = "cell pipeline layout"
	labelKernel     = "game of life kernel"
	labelPipeline   = "simulation pipeline"
	labelEncoder    = "simulation encoder"
	labelPass       = "simulation pass"
)

var bindGroupLabels = [2]string{"cell bind group A", "cell bind group B"}

// Dispatch describes the work recorded for one step.
type Dispatch struct {
	// Step is the step index the dispatch was planned for.
	Step uint64

	// Group is the bind group used: 0 (A) for even steps, 1 (B) for odd.
	Group int

	// Input is the buffer read this step, Output the buffer written.
	Input, Output hal.Buffer

	// X, Y and Z are the work group counts.
	X, Y, Z uint32
}

// Invocations returns the number of kernel invocations the dispatch runs.
// Invocations past the grid edge return without touching any buffer.
func (d Dispatch) Invocations() uint64 {
	return uint64(d.X) * uint64(d.Y) * uint64(d.Z) * life.WorkgroupSize * life.WorkgroupSize
}

// Step is one recorded, unsubmitted simulation step.
type Step struct {
	// Commands holds the compute pass, ready for hal.Queue.Submit.
	Commands hal.CommandBuffer

	// Dispatch is the plan the commands were recorded from.
	Dispatch Dispatch

	device   hal.Device
	released atomic.Bool
}

// Release frees the command buffer. Call it only after the submission that
// carried the step has completed. Release is idempotent.
func (s *Step) Release() {
	if s == nil || !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.Commands != nil {
		s.device.FreeCommandBuffer(s.Commands)
	}
}

// Engine records simulation steps for a GridState.
//
// The engine builds two bind groups once: A reads buffer 0 and writes
// buffer 1, B reads buffer 1 and writes buffer 0. Step k uses group k%2,
// so buffers are swapped by selection and never copied.
//
// Engine never submits or waits. Plan, Encode and Advance may be called
// from several goroutines; ordering submissions and waiting for one step to
// finish before the next starts is up to the caller (see Runner).
// Destroy must not run concurrently with Encode or Advance.
type Engine struct {
	state *GridState

	bindLayout hal.BindGroupLayout
	groups     [2]hal.BindGroup
	shader     hal.ShaderModule
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	wx, wy uint32

	destroyed atomic.Bool
}

// NewEngine builds the bind groups and compute pipeline for state.
//
// The kernel is validated and compiled before the device sees it; any
// compilation failure is a *CompilationError. On failure everything already
// created is released and state is left untouched.
func NewEngine(state *GridState) (*Engine, error) {
	return newEngine(state, kernelSource)
}

func newEngine(state *GridState, source string) (*Engine, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if state.uniform == nil || state.cells[0] == nil || state.cells[1] == nil {
		return nil, fmt.Errorf("%w: grid state has been destroyed", ErrNilState)
	}

	spirv, err := compileKernel(source)
	if err != nil {
		return nil, err
	}

	wx, wy := state.grid.Workgroups()
	e := &Engine{state: state, wx: wx, wy: wy}
	if err := e.createBindings(); err != nil {
		e.destroyResources()
		return nil, err
	}
	if err := e.createPipeline(source, spirv); err != nil {
		e.destroyResources()
		return nil, err
	}

	slogger().Info("gpu: simulation engine ready",
		"grid", state.grid.String(), "workgroups_x", wx, "workgroups_y", wy)
	return e, nil
}

func (e *Engine) label(name string) string {
	if e.state.label == "" {
		return name
	}
	return e.state.label + ": " + name
}

func (e *Engine) createBindings() error {
	device := e.state.device

	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: e.label(labelBindLayout),
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute | gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute | gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		return &AllocationError{Resource: e.label(labelBindLayout), Err: err}
	}
	e.bindLayout = layout

	for g := range e.groups {
		in, out := e.state.cells[g], e.state.cells[1-g]
		bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  e.label(bindGroupLabels[g]),
			Layout: e.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: e.state.uniform.NativeHandle(), Size: uniformSize}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: in.NativeHandle(), Size: e.state.size}},
				{Binding: 2, Resource: gputypes.BufferBinding{Buffer: out.NativeHandle(), Size: e.state.size}},
			},
		})
		if err != nil {
			return &AllocationError{Resource: e.label(bindGroupLabels[g]), Err: err}
		}
		e.groups[g] = bg
	}
	return nil
}

func (e *Engine) createPipeline(source string, spirv []uint32) error {
	device := e.state.device

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  e.label(labelKernel),
		Source: hal.ShaderSource{WGSL: source, SPIRV: spirv},
	})
	if err != nil {
		return &CompilationError{Stage: "shader module", Err: err}
	}
	e.shader = shader

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            e.label(labelPipeLayout),
		BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return &CompilationError{Stage: "pipeline layout", Err: err}
	}
	e.pipeLayout = pipeLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   e.label(labelPipeline),
		Layout:  e.pipeLayout,
		Compute: hal.ComputeState{Module: e.shader, EntryPoint: KernelEntryPoint},
	})
	if err != nil {
		return &CompilationError{Stage: "pipeline", Err: err}
	}
	e.pipeline = pipeline
	return nil
}

// State returns the grid state the engine was built for.
func (e *Engine) State() *GridState { return e.state }

// Workgroups returns the work group counts of every dispatch,
// ceil(width/8) by ceil(height/8).
func (e *Engine) Workgroups() (x, y uint32) { return e.wx, e.wy }

// InputBuffer returns the buffer step reads: buffer step%2.
func (e *Engine) InputBuffer(step uint64) hal.Buffer { return e.state.cells[step%2] }

// OutputBuffer returns the buffer step writes: the other one.
func (e *Engine) OutputBuffer(step uint64) hal.Buffer { return e.state.cells[1-step%2] }

// Plan returns the dispatch for step without recording anything.
func (e *Engine) Plan(step uint64) Dispatch {
	g := int(step % 2) //nolint:gosec // 0 or 1
	return Dispatch{
		Step:   step,
		Group:  g,
		Input:  e.state.cells[g],
		Output: e.state.cells[1-g],
		X:      e.wx,
		Y:      e.wy,
		Z:      1,
	}
}

// Encode records the compute pass for step into a caller-owned encoder,
// which may batch other work around it. The encoder must be recording.
// Nothing is recorded once the engine is destroyed.
func (e *Engine) Encode(encoder hal.CommandEncoder, step uint64) (Dispatch, error) {
	if e.destroyed.Load() {
		return Dispatch{}, ErrEngineDestroyed
	}
	return e.encode(encoder, step), nil
}

func (e *Engine) encode(encoder hal.CommandEncoder, step uint64) Dispatch {
	d := e.Plan(step)
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: labelPass})
	pass.SetPipeline(e.pipeline)
	pass.SetBindGroup(0, e.groups[d.Group], nil)
	pass.Dispatch(d.X, d.Y, d.Z)
	pass.End()
	return d
}

// Advance records step into a fresh command buffer and returns it
// unsubmitted. The engine keeps no per-step state, so calling Advance twice
// for the same step yields the same plan and two independent command
// buffers.
func (e *Engine) Advance(step uint64) (*Step, error) {
	if e.destroyed.Load() {
		return nil, ErrEngineDestroyed
	}
	device := e.state.device

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: labelEncoder})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(labelEncoder); err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}
	d := e.encode(encoder, step)
	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		encoder.Destroy()
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}

	slogger().Debug("gpu: step recorded",
		"step", step, "group", d.Group, "workgroups_x", d.X, "workgroups_y", d.Y)
	return &Step{Commands: cmd, Dispatch: d, device: device}, nil
}

// Destroy releases the pipeline and bind groups. The GridState is not
// destroyed. Destroy is idempotent; Advance fails afterwards.
func (e *Engine) Destroy() {
	if !e.destroyed.CompareAndSwap(false, true) {
		return
	}
	e.destroyResources()
}

func (e *Engine) destroyResources() {
	device := e.state.device
	if e.pipeline != nil {
		device.DestroyComputePipeline(e.pipeline)
		e.pipeline = nil
	}
	if e.pipeLayout != nil {
		device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.shader != nil {
		device.DestroyShaderModule(e.shader)
		e.shader = nil
	}
	for g := len(e.groups) - 1; g >= 0; g-- {
		if e.groups[g] != nil {
			device.DestroyBindGroup(e.groups[g])
			e.groups[g] = nil
		}
	}
	if e.bindLayout != nil {
		device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
}
