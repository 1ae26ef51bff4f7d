package ai

import "errors"

var (
	// ErrProviderUnavailable is returned when the inference provider
	// cannot be reached at its configured address.
	ErrProviderUnavailable = errors.New("ai: inference provider unavailable")

	// ErrProviderStatus is returned when the provider answers with a
	// non-2xx HTTP status.
	ErrProviderStatus = errors.New("ai: inference provider returned error status")

	// ErrEmptyEmbedding is returned when the provider answers an embed
	// request with a zero-length vector.
	ErrEmptyEmbedding = errors.New("ai: provider returned empty embedding")

	// ErrDimensionMismatch is returned when the provider returns a
	// vector whose length differs from the configured dimension.
	ErrDimensionMismatch = errors.New("ai: embedding dimension mismatch")

	// ErrNoLabels is returned when a classify request is attempted with
	// an empty label set.
	ErrNoLabels = errors.New("ai: no candidate labels")
)
