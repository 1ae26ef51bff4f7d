// Package normalize converts raw fetched markup into bounded clean text
// and extracts entities from it. Normalization is idempotent and never
// fails: empty or unparsable input yields empty output.
package normalize
