package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// File.Validate. Sentinels so callers can use errors.Is while still
// getting a human-readable message.
var (
	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidConcurrency is returned when the global fetch cap is not positive.
	ErrInvalidConcurrency = errors.New("invalid max concurrent fetches: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidEmbeddingDim is returned when the embedding dimension is not positive.
	ErrInvalidEmbeddingDim = errors.New("invalid embedding dimension: must be positive")

	// ErrInvalidThreshold is returned when the similarity threshold is outside (0, 1].
	ErrInvalidThreshold = errors.New("invalid similarity threshold: must be in (0, 1]")

	// ErrInvalidConfidenceFloor is returned when the confidence floor is outside [0, 1].
	ErrInvalidConfidenceFloor = errors.New("invalid confidence floor: must be in [0, 1]")

	// ErrInvalidWorkers is returned when the pipeline worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid pipeline workers: must be positive")

	// ErrNoLabels is returned when the monitor file defines an empty
	// threat or safe label set. Disambiguation needs both.
	ErrNoLabels = errors.New("monitor file must define at least one threat label and one safe label")

	// ErrLabelOverlap is returned when a label appears in both the
	// threat and safe sets. The sets must be disjoint.
	ErrLabelOverlap = errors.New("threat and safe label sets must be disjoint")

	// ErrSensitiveNotThreat is returned when a sensitive label is not a
	// member of the threat label set. Sensitive matching is exact.
	ErrSensitiveNotThreat = errors.New("sensitive labels must be members of the threat label set")

	// ErrMonitorFileNotFound is returned when an explicitly specified
	// monitor file does not exist.
	ErrMonitorFileNotFound = errors.New("monitor file not found")
)
