package dedup

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs
	// from the index dimension.
	ErrDimensionMismatch = errors.New("dedup: vector dimension mismatch")

	// ErrEmptyVector is returned when an empty vector is offered to the
	// index.
	ErrEmptyVector = errors.New("dedup: empty vector")

	// ErrInvalidDimension is returned when an index is created with a
	// non-positive dimension.
	ErrInvalidDimension = errors.New("dedup: dimension must be positive")
)
