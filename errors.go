package life

import "errors"

var (
	// ErrInvalidDimension is returned when a grid width or height is not positive.
	ErrInvalidDimension = errors.New("life: grid width and height must be positive")

	// ErrSizeMismatch is returned when a cell slice does not match the grid size.
	ErrSizeMismatch = errors.New("life: cell count does not match grid size")

	// ErrInvalidProbability is returned when an alive probability is outside [0, 1].
	ErrInvalidProbability = errors.New("life: alive probability must be within [0, 1]")
)
