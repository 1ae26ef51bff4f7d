// Package model defines the data structures shared across the monitoring
// pipeline: crawl targets, fetched and normalized documents, dedup and
// classification verdicts, and the ingested items that downstream
// consumers read.
package model
