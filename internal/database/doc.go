// Package database implements the append-only ingestion store on
// SQLite (via modernc.org/sqlite, CGO-free). Every committed item
// receives a strictly increasing sequence number assigned by the store
// itself; the sequence is the cursor the live feed advances on, so
// delivery order never depends on wall-clock timestamps.
package database
