package model

// Entity categories extracted from normalized text. The set is fixed;
// extraction never produces a category outside this list.
const (
	EntityPerson      = "PERSON"
	EntityOrg         = "ORG"
	EntityProduct     = "PRODUCT"
	EntityGPE         = "GPE"
	EntityLoc         = "LOC"
	EntityMoney       = "MONEY"
	EntityDomainTerms = "DOMAIN_TERMS"
)

// EntityCategories lists every valid entity category in a stable order.
var EntityCategories = []string{
	EntityPerson,
	EntityOrg,
	EntityProduct,
	EntityGPE,
	EntityLoc,
	EntityMoney,
	EntityDomainTerms,
}

// EntitySet maps an entity category to the unique surface strings found
// for it. Every category key is always present, possibly with an empty
// slice, so consumers never need nil checks per category.
type EntitySet map[string][]string

// NewEntitySet returns an EntitySet with every category initialized.
func NewEntitySet() EntitySet {
	es := make(EntitySet, len(EntityCategories))
	for _, c := range EntityCategories {
		es[c] = []string{}
	}
	return es
}

// NormalizedDocument is the cleaned form of a fetched page.
//
// Invariant: Embedding is non-empty if and only if CleanText is non-empty.
// An empty CleanText means the page had no extractable content and the
// embedding provider was never invoked.
type NormalizedDocument struct {
	// URL of the originating page.
	URL string

	// Title of the originating page.
	Title string

	// CleanText is the boilerplate-free text, bounded in length by the
	// normalizer.
	CleanText string

	// Entities holds the extracted entities per category.
	Entities EntitySet

	// Embedding is the fixed-dimension content vector from the embedding
	// provider. Empty when CleanText is empty.
	Embedding []float32

	// Route is the network path the original fetch used.
	Route Route

	// Depth is the crawl depth of the originating page.
	Depth int
}
