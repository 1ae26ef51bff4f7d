package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Local is a provider that runs without an inference sidecar. Embeddings
// are hashed bags of words and classification scores are keyword overlap
// between the label and the text. Quality is far below a real model, but
// the behavior is deterministic and self-contained, which is enough for
// offline runs and tests.
type Local struct {
	dimension int
}

// NewLocal creates an offline provider producing vectors of dim
// dimensions.
func NewLocal(dim int) *Local {
	if dim <= 0 {
		dim = 1
	}
	return &Local{dimension: dim}
}

// Embed implements Embedder. Equal texts map to equal vectors, and the
// returned vector is L2-normalized so near-identical token bags land
// close together in the index.
func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, l.dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%l.dimension]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Classify implements Classifier. A label's score is the fraction of its
// words that occur in the text.
func (l *Local) Classify(_ context.Context, text string, labels []string) (map[string]float64, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}

	tokens := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		tokens[strings.Trim(token, ".,;:!?\"'()")] = true
	}

	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		var words []string
		for _, w := range strings.Fields(strings.ToLower(label)) {
			if w != "&" {
				words = append(words, w)
			}
		}
		if len(words) == 0 {
			scores[label] = 0
			continue
		}
		hits := 0
		for _, w := range words {
			if tokens[w] {
				hits++
			}
		}
		scores[label] = float64(hits) / float64(len(words))
	}
	return scores, nil
}
