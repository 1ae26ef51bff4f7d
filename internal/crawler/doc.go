// Package crawler implements the crawl frontier. The frontier expands a
// seed set breadth-first, routes each fetch over a direct or anonymized
// client depending on the target, filters targets against the run's
// scope, and hands successfully fetched pages to the ingestion pipeline
// in discovery order.
package crawler
