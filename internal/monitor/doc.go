// Package monitor wires the frontier, ingestion pipeline, store, and
// feed into one controller. It owns run lifecycle: at most one crawl
// run is active at a time, and shutdown snapshots the dedup index so
// duplicate detection survives restarts.
package monitor
