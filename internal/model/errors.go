package model

import "errors"

var (
	// ErrInvalidConfig marks a programming or configuration mistake such as a
	// non-positive window. It aborts a ranking pass.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedBar marks structurally invalid bar data.
	ErrMalformedBar = errors.New("malformed bar")

	// ErrInsufficientHistory marks a series too short for the pipeline.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrMissingSeries marks an asset the provider has no data for.
	ErrMissingSeries = errors.New("missing series")
)
