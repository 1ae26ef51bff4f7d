package model

// DedupVerdict is the semantic dedup engine's decision for one document.
//
// Invariant: when IsDuplicate is true, MatchedItemID is non-empty and
// Similarity lies in [threshold, 1.0]. When false, MatchedItemID is empty
// and Similarity is the nearest-neighbor similarity (0 for an empty index).
type DedupVerdict struct {
	// IsDuplicate is true when the nearest stored embedding is at or
	// above the similarity threshold.
	IsDuplicate bool

	// MatchedItemID identifies the stored item this document duplicates.
	MatchedItemID string

	// Similarity is 1/(1+distance) against the nearest neighbor. This is
	// a monotonic mapping of L2 distance onto (0, 1], not a true cosine
	// similarity.
	Similarity float64
}

// Sentinel labels emitted by the disambiguator instead of a configured
// threat or safe label.
const (
	// LabelUncertain marks a low-confidence threat signal treated as
	// non-actionable noise.
	LabelUncertain = "uncertain"

	// LabelUnknown marks a document with no classifiable content.
	LabelUnknown = "unknown"
)

// ClassificationVerdict is the disambiguated result of classifying one
// document's text against the configured threat and safe label sets.
type ClassificationVerdict struct {
	// Label is the winning label, or one of the sentinel labels.
	Label string

	// Score is the winning label's confidence in [0, 1].
	Score float64

	// IsThreat is true only when the winning label is a threat label
	// whose confidence cleared the configured floor.
	IsThreat bool

	// RawScores maps every configured label to its independent
	// confidence. Scores are scored per label and need not sum to 1.
	RawScores map[string]float64
}

// UnknownVerdict is the defined verdict for empty or unclassifiable input.
// The external classifier is not invoked for such documents.
func UnknownVerdict() ClassificationVerdict {
	return ClassificationVerdict{
		Label:     LabelUnknown,
		Score:     0.0,
		IsThreat:  false,
		RawScores: map[string]float64{},
	}
}
