//go:build !nogpu

package gpu

import (
	"math/rand/v2"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/life"
)

// Option configures NewGridState.
type Option func(*stateOptions)

type stateOptions struct {
	seed        life.SeedFunc
	cells       life.Cells
	source      rand.Source
	probability float64
	limits      gputypes.Limits
	label       string
}

func defaultStateOptions() stateOptions {
	return stateOptions{
		probability: life.DefaultAliveProbability,
		limits:      gputypes.DefaultLimits(),
	}
}

// WithSeed sets the function deciding the initial state of every cell.
// It takes precedence over WithAliveProbability and WithRandSource.
func WithSeed(seed life.SeedFunc) Option {
	return func(o *stateOptions) {
		o.seed = seed
	}
}

// WithCells uploads an exact initial population. The slice must hold one
// word per cell. It takes precedence over every other seeding option.
func WithCells(c life.Cells) Option {
	return func(o *stateOptions) {
		o.cells = c
	}
}

// WithRandSource sets the random source of the default seed, making the
// initial population reproducible.
func WithRandSource(src rand.Source) Option {
	return func(o *stateOptions) {
		o.source = src
	}
}

// WithAliveProbability sets the chance that the default seed makes a cell
// alive. The default is life.DefaultAliveProbability.
func WithAliveProbability(p float64) Option {
	return func(o *stateOptions) {
		o.probability = p
	}
}

// WithLimits sets the device limits buffer sizes are checked against.
// Pass the limits the device was opened with; the default is
// gputypes.DefaultLimits().
func WithLimits(l gputypes.Limits) Option {
	return func(o *stateOptions) {
		o.limits = l
	}
}

// WithLabel prefixes the debug labels of every resource, which helps when
// several simulations share one device.
func WithLabel(label string) Option {
	return func(o *stateOptions) {
		o.label = label
	}
}

// resourceLabel joins the optional prefix and a resource name.
func (o *stateOptions) resourceLabel(name string) string {
	if o.label == "" {
		return name
	}
	return o.label + ": " + name
}

// seedFunc resolves the seeding options to a single function.
func (o *stateOptions) seedFunc(g life.Grid) life.SeedFunc {
	switch {
	case o.cells != nil:
		return life.CellsSeed(o.cells, g)
	case o.seed != nil:
		return o.seed
	default:
		return life.RandomSeed(o.probability, o.source)
	}
}
