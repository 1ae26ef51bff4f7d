// Package dedup implements the semantic duplicate detector. Vectors live
// in a flat in-memory index searched by exhaustive L2 distance, with
// similarity defined as 1/(1+distance). The index can be snapshotted to
// disk and restored on startup so duplicate detection survives restarts.
package dedup
