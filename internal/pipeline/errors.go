package pipeline

import "errors"

var (
	// ErrMissingDependency is returned when the pipeline is built
	// without one of its required stages.
	ErrMissingDependency = errors.New("pipeline: missing required dependency")

	// ErrNotStarted is returned when documents are submitted before
	// Start.
	ErrNotStarted = errors.New("pipeline: not started")

	// ErrStopped is returned when documents are submitted after Stop.
	ErrStopped = errors.New("pipeline: stopped")
)
