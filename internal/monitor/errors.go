package monitor

import "errors"

var (
	// ErrRunActive is returned when a crawl run is requested while one
	// is already in progress.
	ErrRunActive = errors.New("monitor: a crawl run is already active")

	// ErrClosed is returned when operations are attempted after Close.
	ErrClosed = errors.New("monitor: closed")

	// ErrNoSeeds is returned when a run is requested without any
	// configured seed URLs.
	ErrNoSeeds = errors.New("monitor: no seed URLs configured")
)
