package ai

import "context"

// Embedder converts clean text into a fixed-dimension vector suitable
// for the semantic similarity index. Implementations must return the
// same vector for the same input.
type Embedder interface {
	// Embed returns the vector representation of text. The returned
	// slice length must equal the embedder's configured dimension.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Classifier scores text against a set of candidate labels. Scores are
// in [0, 1] and are independent per label, not a distribution.
type Classifier interface {
	// Classify returns a score per candidate label. Every requested
	// label must appear in the returned map.
	Classify(ctx context.Context, text string, labels []string) (map[string]float64, error)
}

// Provider bundles both model capabilities behind one value, matching
// how a single inference sidecar serves both endpoints.
type Provider interface {
	Embedder
	Classifier
}
