//go:build !nogpu

package gpu

import (
	"errors"
	"strings"
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/life"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop HAL device for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// createNoopEngine builds a state and engine for grid on a noop device.
func createNoopEngine(t *testing.T, grid life.Grid, opts ...Option) (*Engine, func()) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	state, err := NewGridState(device, queue, grid, opts...)
	if err != nil {
		cleanup()
		t.Fatalf("NewGridState(%v) failed: %v", grid, err)
	}
	engine, err := NewEngine(state)
	if err != nil {
		state.Destroy()
		cleanup()
		skipIfNagaLimitation(t, err)
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, func() {
		engine.Destroy()
		state.Destroy()
		cleanup()
	}
}

// skipIfNagaLimitation skips the test when the shader compiler reports a
// feature it does not implement yet.
func skipIfNagaLimitation(t *testing.T, err error) {
	t.Helper()
	var ce *CompilationError
	if !errors.As(err, &ce) {
		return
	}
	msg := ce.Err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("Skipping: naga feature not yet implemented: %v", err)
	}
}

// readNoopBuffer returns the bytes of a noop buffer through MapBuffer.
func readNoopBuffer(t *testing.T, device hal.Device, buf hal.Buffer, size uint64) []byte {
	t.Helper()
	m, err := device.MapBuffer(buf, 0, size)
	if err != nil {
		t.Fatalf("MapBuffer failed: %v", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(m.Ptr), size))
	if err := device.UnmapBuffer(buf); err != nil {
		t.Fatalf("UnmapBuffer failed: %v", err)
	}
	return out
}

// failingDevice wraps a device and fails selected calls.
type failingDevice struct {
	hal.Device

	failBufferAt  int // 1-based CreateBuffer call to fail, 0 for none
	failBindGroup bool
	failPipeline  bool
	failEncoding  bool // BeginEncoding fails on every encoder

	bufferCalls       int
	destroyedBuffers  int
	freedCommands     int
	destroyedEncoders int
}

var errInjected = errors.New("injected failure")

func (d *failingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.bufferCalls++
	if d.bufferCalls == d.failBufferAt {
		return nil, errInjected
	}
	return d.Device.CreateBuffer(desc)
}

func (d *failingDevice) DestroyBuffer(b hal.Buffer) {
	d.destroyedBuffers++
	d.Device.DestroyBuffer(b)
}

func (d *failingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if d.failBindGroup {
		return nil, errInjected
	}
	return d.Device.CreateBindGroup(desc)
}

func (d *failingDevice) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	if d.failPipeline {
		return nil, errInjected
	}
	return d.Device.CreateComputePipeline(desc)
}

func (d *failingDevice) FreeCommandBuffer(cmd hal.CommandBuffer) {
	d.freedCommands++
	d.Device.FreeCommandBuffer(cmd)
}

func (d *failingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &countingEncoder{CommandEncoder: enc, dev: d}, nil
}

// countingEncoder reports its destruction to the device that created it.
type countingEncoder struct {
	hal.CommandEncoder
	dev *failingDevice
}

func (e *countingEncoder) BeginEncoding(label string) error {
	if e.dev.failEncoding {
		return errInjected
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *countingEncoder) Destroy() {
	e.dev.destroyedEncoders++
	e.CommandEncoder.Destroy()
}

// recordingEncoder captures compute passes recorded by Engine.Encode.
type recordingEncoder struct {
	noop.CommandEncoder
	passes []*recordingPass
}

func (e *recordingEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) hal.ComputePassEncoder {
	p := &recordingPass{label: desc.Label}
	e.passes = append(e.passes, p)
	return p
}

type recordingPass struct {
	noop.ComputePassEncoder

	label      string
	pipeline   hal.ComputePipeline
	groupIndex uint32
	group      hal.BindGroup
	dispatch   [3]uint32
	dispatched int
	ended      bool
}

func (p *recordingPass) SetPipeline(pl hal.ComputePipeline) { p.pipeline = pl }

func (p *recordingPass) SetBindGroup(index uint32, g hal.BindGroup, _ []uint32) {
	p.groupIndex = index
	p.group = g
}

func (p *recordingPass) Dispatch(x, y, z uint32) {
	p.dispatch = [3]uint32{x, y, z}
	p.dispatched++
}

func (p *recordingPass) End() { p.ended = true }
