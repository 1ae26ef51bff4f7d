package triage

import "errors"

var (
	// ErrNilClassifier is returned when a Disambiguator is created
	// without a classifier.
	ErrNilClassifier = errors.New("triage: classifier is nil")

	// ErrNoLabels is returned when either label family is empty.
	ErrNoLabels = errors.New("triage: both label families must be non-empty")

	// ErrLabelOverlap is returned when a label appears in both the
	// threat and safe families.
	ErrLabelOverlap = errors.New("triage: label present in both families")
)
