package modal

import "errors"

var (
	// ErrUnsupportedDimension is returned when a flow field's vector dimension is not 2 or 3.
	ErrUnsupportedDimension = errors.New("unsupported flow dimension")

	// ErrInvalidModeCount is returned when K is outside [1, floor(T/2)].
	ErrInvalidModeCount = errors.New("invalid mode count")

	// ErrInvalidMaximizeMode is returned for a phase selector other than disp or velocity.
	ErrInvalidMaximizeMode = errors.New("invalid maximize mode")

	// ErrPixelOutOfBounds is returned when a pixel lies outside the field.
	ErrPixelOutOfBounds = errors.New("pixel out of bounds")

	// ErrDisplacementLength is returned when a displacement does not have one component per axis.
	ErrDisplacementLength = errors.New("displacement length does not match field dimension")

	// ErrInvalidSamplingPeriod is returned for a sampling period that is not positive and finite.
	ErrInvalidSamplingPeriod = errors.New("sampling period must be positive")

	// ErrNegativeGain is returned for an alpha below zero.
	ErrNegativeGain = errors.New("gain must be non-negative")

	// ErrEmptyField is returned when a field, recording, texture or mode shape set is nil.
	ErrEmptyField = errors.New("missing input: nil field, recording or mode shapes")
)
