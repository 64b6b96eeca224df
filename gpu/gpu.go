//go:build !nogpu

// Package gpu runs the Game of Life on a GPU with a WGSL compute kernel.
//
// A GridState holds the grid-size uniform and two cell state buffers. An
// Engine wires them into two bind groups, A (buffer 0 in, buffer 1 out) and
// B (buffer 1 in, buffer 0 out), and records one compute dispatch per step
// using group step%2. The buffers therefore swap roles every step without
// any copy.
//
// The engine only records work. Submitting, waiting and reading back are
// the caller's; Runner does all three the simple way:
//
//	sim, err := gpu.New(life.Square(1024))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sim.Close()
//
//	if err := sim.Run(ctx, 100); err != nil {
//	    log.Fatal(err)
//	}
//	cells, err := sim.Snapshot(ctx)
//
// Building with the nogpu tag leaves this package empty.
package gpu

import "github.com/gogpu/life"

// Simulation bundles an owned device with the state, engine and runner of
// one grid.
type Simulation struct {
	*Runner

	device *Device
	state  *GridState
}

// New opens a device with OpenDevice and builds a simulation for grid on it.
// Options are passed to NewGridState; WithLimits defaults to the device's
// limits.
func New(grid life.Grid, opts ...Option) (*Simulation, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	dev, err := OpenDevice()
	if err != nil {
		return nil, err
	}
	sim, err := NewOnDevice(dev, grid, opts...)
	if err != nil {
		dev.Close()
		return nil, err
	}
	return sim, nil
}

// NewOnDevice builds a simulation for grid on an already opened device.
// Close on the simulation closes dev.
func NewOnDevice(dev *Device, grid life.Grid, opts ...Option) (*Simulation, error) {
	opts = append([]Option{WithLimits(dev.Limits())}, opts...)
	state, err := NewGridState(dev.HalDevice(), dev.HalQueue(), grid, opts...)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(state)
	if err != nil {
		state.Destroy()
		return nil, err
	}
	return &Simulation{Runner: NewRunner(engine), device: dev, state: state}, nil
}

// Device returns the device the simulation runs on.
func (s *Simulation) Device() *Device { return s.device }

// State returns the simulation's buffers.
func (s *Simulation) State() *GridState { return s.state }

// Close releases the engine, the buffers and the device, in that order.
func (s *Simulation) Close() {
	if s.device == nil {
		return
	}
	if err := s.device.HalDevice().WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle before release", "err", err)
	}
	s.Engine.Destroy()
	s.state.Destroy()
	s.device.Close()
	s.device = nil
}
