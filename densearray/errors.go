package densearray

import "errors"

var (
	// ErrAllocationFailure is returned when a growth step cannot get its memory.
	// The array keeps its last consistent state.
	ErrAllocationFailure = errors.New("densearray: allocation failure")

	// ErrInvalidHandle is returned when a handle is not currently live.
	ErrInvalidHandle = errors.New("densearray: invalid handle")

	ErrInvalidElementSize = errors.New("densearray: element size must be positive")

	ErrDestroyed = errors.New("densearray: array destroyed")
)
