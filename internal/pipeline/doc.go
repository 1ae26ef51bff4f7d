// Package pipeline runs the ingestion chain for fetched pages:
// normalize, extract entities, embed, deduplicate, classify, and commit
// to the store. A pool of workers consumes a bounded queue, so a slow
// inference provider applies backpressure to the crawl frontier instead
// of growing memory without bound.
//
// Commit order follows processing completion, not page discovery: two
// pages fetched back to back may commit in either order. Feed consumers
// see commit order.
package pipeline
