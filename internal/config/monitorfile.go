package config

// Default label sets for zero-shot classification. The threat and safe
// sets are disjoint; disambiguation compares the best label of each set.
// Labels are phrased as contexts rather than single words because the
// classifier scores hypothesis sentences, not keywords.
var (
	// DefaultThreatLabels are the security-relevant contexts.
	DefaultThreatLabels = []string{
		"illicit narcotics trading",
		"illegal weapons trafficking",
		"stolen credit card fraud",
		"cybercrime & hacking exploits",
		"human trafficking & exploitation",
		"counterfeit documents & id",
	}

	// DefaultSafeLabels are the benign contexts that disambiguate
	// threat-adjacent vocabulary (a security blog discusses exploits
	// without selling them).
	DefaultSafeLabels = []string{
		"legal pharmaceutical medicine",
		"medical research & journals",
		"news & journalism",
		"cybersecurity education & defense",
		"legal marketplace & e-commerce",
		"forum discussion & community",
	}

	// DefaultSensitiveLabels is the exploitation-related subset of the
	// threat labels. Items classified under these labels carry the
	// sensitive flag and are handled with the highest operational care.
	// Membership is exact; no partial or fuzzy matching.
	DefaultSensitiveLabels = []string{
		"human trafficking & exploitation",
	}
)

// File is the parsed monitor file (.darkmonitor). It carries the seed
// URLs and the label configuration for a monitoring deployment.
type File struct {
	// Seeds are the crawl starting points, one absolute URL per entry.
	Seeds []string `yaml:"seeds,omitempty"`

	// ThreatLabels overrides the default threat label set.
	ThreatLabels []string `yaml:"threatLabels,omitempty"`

	// SafeLabels overrides the default safe label set.
	SafeLabels []string `yaml:"safeLabels,omitempty"`

	// SensitiveLabels overrides the default exploitation-sensitive
	// subset. Every entry must be a member of ThreatLabels.
	SensitiveLabels []string `yaml:"sensitiveLabels,omitempty"`

	// SimilarityThreshold overrides the near-duplicate boundary when
	// non-zero.
	SimilarityThreshold float64 `yaml:"similarityThreshold,omitempty"`

	// ConfidenceFloor overrides the threat confidence floor when
	// non-zero.
	ConfidenceFloor float64 `yaml:"confidenceFloor,omitempty"`
}

// NewFile returns a monitor file populated with the default label sets
// and no seeds.
func NewFile() *File {
	return &File{
		ThreatLabels:    append([]string(nil), DefaultThreatLabels...),
		SafeLabels:      append([]string(nil), DefaultSafeLabels...),
		SensitiveLabels: append([]string(nil), DefaultSensitiveLabels...),
	}
}

// AllLabels returns the threat and safe labels as one slice, threat
// labels first. This is the label list sent to the classifier provider.
func (f *File) AllLabels() []string {
	all := make([]string, 0, len(f.ThreatLabels)+len(f.SafeLabels))
	all = append(all, f.ThreatLabels...)
	all = append(all, f.SafeLabels...)
	return all
}

// IsSensitive reports whether the label is an exact member of the
// sensitive subset.
func (f *File) IsSensitive(label string) bool {
	for _, s := range f.SensitiveLabels {
		if s == label {
			return true
		}
	}
	return false
}

// Validate checks label set consistency.
func (f *File) Validate() error {
	if len(f.ThreatLabels) == 0 || len(f.SafeLabels) == 0 {
		return ErrNoLabels
	}

	threat := make(map[string]bool, len(f.ThreatLabels))
	for _, l := range f.ThreatLabels {
		threat[l] = true
	}
	for _, l := range f.SafeLabels {
		if threat[l] {
			return ErrLabelOverlap
		}
	}
	for _, l := range f.SensitiveLabels {
		if !threat[l] {
			return ErrSensitiveNotThreat
		}
	}
	return nil
}
