package dedup

import (
	"fmt"
	"math"
	"sync"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
)

// DefaultThreshold is the similarity at or above which two vectors are
// considered duplicates.
const DefaultThreshold = 0.95

// entry pairs a stored vector with the item it belongs to.
type entry struct {
	ItemID string
	Vector []float32
}

// Index is a flat L2 vector index. Lookups scan every stored vector;
// with the corpus sizes a single monitor run produces this stays well
// below query latencies that matter.
//
// All methods are safe for concurrent use. CheckAndAdd performs its
// lookup and insert under one critical section, so two concurrent
// submissions of near-identical vectors cannot both be admitted as
// originals.
type Index struct {
	mu        sync.RWMutex
	dimension int
	threshold float64
	entries   []entry
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithThreshold overrides the duplicate similarity threshold. The
// comparison is inclusive: similarity exactly at the threshold counts
// as a duplicate.
func WithThreshold(threshold float64) IndexOption {
	return func(ix *Index) {
		ix.threshold = threshold
	}
}

// NewIndex creates an empty index for vectors of dim dimensions.
func NewIndex(dim int, opts ...IndexOption) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}

	ix := &Index{
		dimension: dim,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Dimension returns the vector dimension the index accepts.
func (ix *Index) Dimension() int {
	return ix.dimension
}

// Len returns the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Similarity converts an L2 distance into the similarity score used for
// duplicate decisions: 1/(1+distance). Distance 0 maps to 1, and the
// score decays toward 0 as vectors move apart.
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}

// Check reports whether vec is a duplicate of a stored vector without
// modifying the index. The verdict carries the nearest neighbor's item
// ID and similarity when one exists.
func (ix *Index) Check(vec []float32) (model.DedupVerdict, error) {
	if err := ix.validate(vec); err != nil {
		return model.DedupVerdict{}, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.nearest(vec), nil
}

// Add stores vec under itemID without a duplicate check.
func (ix *Index) Add(itemID string, vec []float32) error {
	if err := ix.validate(vec); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.insert(itemID, vec)
	return nil
}

// CheckAndAdd looks vec up and, when it is not a duplicate, stores it
// under itemID. Lookup and insert happen atomically with respect to
// other CheckAndAdd calls.
func (ix *Index) CheckAndAdd(itemID string, vec []float32) (model.DedupVerdict, error) {
	if err := ix.validate(vec); err != nil {
		return model.DedupVerdict{}, err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	verdict := ix.nearest(vec)
	if !verdict.IsDuplicate {
		ix.insert(itemID, vec)
	}
	return verdict, nil
}

func (ix *Index) validate(vec []float32) error {
	if len(vec) == 0 {
		return ErrEmptyVector
	}
	if len(vec) != ix.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.dimension)
	}
	return nil
}

// nearest scans all entries for the closest vector. Callers must hold
// at least a read lock.
func (ix *Index) nearest(vec []float32) model.DedupVerdict {
	var verdict model.DedupVerdict
	best := math.Inf(1)

	for i := range ix.entries {
		d := l2Distance(vec, ix.entries[i].Vector)
		if d < best {
			best = d
			verdict.MatchedItemID = ix.entries[i].ItemID
			verdict.Similarity = Similarity(d)
		}
	}

	if verdict.MatchedItemID != "" && verdict.Similarity >= ix.threshold {
		verdict.IsDuplicate = true
	} else {
		// Similarity still reports the nearest neighbor on a miss; the
		// matched ID is only meaningful on a hit.
		verdict.MatchedItemID = ""
	}
	return verdict
}

// insert appends without locking. Callers must hold the write lock.
func (ix *Index) insert(itemID string, vec []float32) {
	stored := make([]float32, len(vec))
	copy(stored, vec)
	ix.entries = append(ix.entries, entry{ItemID: itemID, Vector: stored})
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
