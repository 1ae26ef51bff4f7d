// Package main provides the entry point for the darkmonitor CLI.
//
// darkmonitor crawls clearnet and anonymized-network sites, normalizes
// the pages it finds, filters near-duplicates, classifies the remainder
// into threat and safe categories, and serves the triaged stream over a
// local HTTP API.
//
// Usage:
//
//	darkmonitor serve
//	darkmonitor crawl --scope anonymized
//
// See --help for all available options.
package main

// main is the entry point for darkmonitor.
func main() {
	Execute()
}
