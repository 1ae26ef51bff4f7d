package dedup

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible layout.
const snapshotVersion = 1

type snapshot struct {
	Version   int
	Dimension int
	Entries   []entry
}

// Save writes the index contents to path atomically. The snapshot is
// written to a temp file in the same directory and renamed into place,
// so a crash mid-write never leaves a truncated snapshot behind.
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	snap := snapshot{
		Version:   snapshotVersion,
		Dimension: ix.dimension,
		Entries:   make([]entry, len(ix.entries)),
	}
	copy(snap.Entries, ix.entries)
	ix.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("dedup: create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("dedup: create snapshot temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("dedup: encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dedup: close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("dedup: replace snapshot: %w", err)
	}
	return nil
}

// Load replaces the index contents with the snapshot at path. A missing
// or unreadable snapshot is not an error: the index starts empty and is
// rebuilt as items flow in.
func (ix *Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("dedup: open snapshot: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		// Corrupt snapshots are discarded and the index starts empty.
		ix.mu.Lock()
		ix.entries = nil
		ix.mu.Unlock()
		return nil
	}
	if snap.Version != snapshotVersion || snap.Dimension != ix.dimension {
		ix.mu.Lock()
		ix.entries = nil
		ix.mu.Unlock()
		return nil
	}

	ix.mu.Lock()
	ix.entries = snap.Entries
	ix.mu.Unlock()
	return nil
}
