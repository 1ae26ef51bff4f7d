package triage

import (
	"context"
	"fmt"

	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/ai"
	"github.com/mohsinwazir/Dark-Web-Monitoring-tool/internal/model"
)

// DefaultConfidenceFloor is the minimum winning threat score required
// to assign a threat category. Below it the verdict degrades to
// model.LabelUncertain.
const DefaultConfidenceFloor = 0.6

// Disambiguator classifies text against two competing label families
// and decides which family won.
type Disambiguator struct {
	classifier      ai.Classifier
	threatLabels    []string
	safeLabels      []string
	sensitiveLabels map[string]bool
	confidenceFloor float64
}

// Option configures a Disambiguator.
type Option func(*Disambiguator)

// WithConfidenceFloor overrides the threat confidence floor. The
// comparison is strict: a winning threat score exactly at the floor is
// still uncertain.
func WithConfidenceFloor(floor float64) Option {
	return func(d *Disambiguator) {
		d.confidenceFloor = floor
	}
}

// WithSensitiveLabels marks the given threat labels as sensitive.
// Matching is exact string membership against the verdict label.
func WithSensitiveLabels(labels []string) Option {
	return func(d *Disambiguator) {
		d.sensitiveLabels = make(map[string]bool, len(labels))
		for _, label := range labels {
			d.sensitiveLabels[label] = true
		}
	}
}

// NewDisambiguator creates a triage stage over the given classifier and
// label families.
func NewDisambiguator(classifier ai.Classifier, threatLabels, safeLabels []string, opts ...Option) (*Disambiguator, error) {
	if classifier == nil {
		return nil, ErrNilClassifier
	}
	if len(threatLabels) == 0 || len(safeLabels) == 0 {
		return nil, ErrNoLabels
	}

	threat := make(map[string]bool, len(threatLabels))
	for _, label := range threatLabels {
		threat[label] = true
	}
	for _, label := range safeLabels {
		if threat[label] {
			return nil, fmt.Errorf("%w: %q", ErrLabelOverlap, label)
		}
	}

	d := &Disambiguator{
		classifier:      classifier,
		threatLabels:    threatLabels,
		safeLabels:      safeLabels,
		sensitiveLabels: map[string]bool{},
		confidenceFloor: DefaultConfidenceFloor,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Classify scores text against both label families and disambiguates.
// Empty or whitespace-free empty text short-circuits to the unknown
// verdict without touching the classifier.
func (d *Disambiguator) Classify(ctx context.Context, text string) (model.ClassificationVerdict, error) {
	if text == "" {
		return model.UnknownVerdict(), nil
	}

	labels := make([]string, 0, len(d.threatLabels)+len(d.safeLabels))
	labels = append(labels, d.threatLabels...)
	labels = append(labels, d.safeLabels...)

	scores, err := d.classifier.Classify(ctx, text, labels)
	if err != nil {
		return model.ClassificationVerdict{}, fmt.Errorf("triage: classify: %w", err)
	}
	return d.disambiguate(scores), nil
}

// disambiguate picks the verdict from a full score map:
//
//  1. find the best threat label and the best safe label;
//  2. when the safe side scores strictly higher, the content is benign
//     and the safe label wins; ties go to the threat side;
//  3. otherwise the threat label wins only with confidence strictly
//     above the floor;
//  4. a threat win below the floor is reported as uncertain.
func (d *Disambiguator) disambiguate(scores map[string]float64) model.ClassificationVerdict {
	bestThreat, threatScore := bestOf(scores, d.threatLabels)
	bestSafe, safeScore := bestOf(scores, d.safeLabels)

	verdict := model.ClassificationVerdict{RawScores: scores}
	switch {
	case safeScore > threatScore:
		verdict.Label = bestSafe
		verdict.Score = safeScore
	case threatScore > d.confidenceFloor:
		verdict.Label = bestThreat
		verdict.Score = threatScore
		verdict.IsThreat = true
	default:
		verdict.Label = model.LabelUncertain
		verdict.Score = threatScore
	}
	return verdict
}

// RiskScore maps a verdict to the stored risk score: the classifier
// confidence for threats, zero for everything else including uncertain.
func RiskScore(verdict model.ClassificationVerdict) float64 {
	if !verdict.IsThreat {
		return 0
	}
	return verdict.Score
}

// IsSensitive reports whether the verdict's category is in the
// configured sensitive set. Only exact label matches count.
func (d *Disambiguator) IsSensitive(verdict model.ClassificationVerdict) bool {
	return verdict.IsThreat && d.sensitiveLabels[verdict.Label]
}

func bestOf(scores map[string]float64, labels []string) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, label := range labels {
		if s := scores[label]; s > bestScore {
			best = label
			bestScore = s
		}
	}
	return best, bestScore
}
