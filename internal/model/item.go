package model

import "time"

// IngestedItem is the unit of record produced by a successful commit.
// Items are immutable after creation and owned exclusively by the
// ingestion store; the pipeline never mutates a stored item.
type IngestedItem struct {
	// ID uniquely and stably identifies the item.
	ID string `json:"id"`

	// Seq is the commit sequence number, strictly increasing per item.
	// It is the cursor for live-feed delivery: wall-clock timestamps can
	// collide within one tick, sequence numbers cannot.
	Seq int64 `json:"-"`

	// URL of the originating page.
	URL string `json:"url"`

	// Title of the originating page.
	Title string `json:"title"`

	// Text is the normalized page text.
	Text string `json:"text,omitempty"`

	// RiskScore is the threat label's confidence when the item is a
	// threat, 0.0 otherwise.
	RiskScore float64 `json:"risk_score"`

	// Category is the winning classification label.
	Category string `json:"label"`

	// Entities holds the extracted entities per category.
	Entities EntitySet `json:"entities"`

	// SensitiveFlag is true when Category is an exact member of the
	// exploitation-sensitive label subset.
	SensitiveFlag bool `json:"sensitive_flag"`

	// Route is the network path the original fetch used.
	Route Route `json:"route"`

	// Depth is the crawl depth of the originating page.
	Depth int `json:"depth"`

	// Duplicate is true when the dedup engine matched the item's content
	// against an earlier item. Advisory; duplicates may still be stored.
	Duplicate bool `json:"duplicate,omitempty"`

	// DuplicateOf is the ID of the matched item when Duplicate is true.
	DuplicateOf string `json:"duplicate_of,omitempty"`

	// CreatedAt is assigned at store-commit time.
	CreatedAt time.Time `json:"timestamp"`
}
