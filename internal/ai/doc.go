// Package ai defines the capability interfaces for the external
// embedding and classification providers, plus an HTTP client speaking
// to a local inference sidecar. The pipeline's correctness never depends
// on a real model: any implementation of the interfaces will do, and
// tests use deterministic stubs.
package ai
