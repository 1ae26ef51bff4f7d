// Package metrics exposes Prometheus counters and gauges for the
// monitor: crawl progress, ingestion outcomes, and feed fanout.
package metrics
