package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/flux/pkg/object"
)

// Index is the staging area: a map from work-tree-relative slash path to the
// hash of the staged object. Mutators only touch memory; Flush persists a
// full snapshot.
type Index struct {
	entries map[string]object.Hash
	path    string
}

// IndexEntry is one staged path.
type IndexEntry struct {
	Path string
	Hash object.Hash
}

func indexPath(storeDir string) string {
	return filepath.Join(storeDir, "index")
}

// EmptyIndex creates an empty index and writes it to storeDir.
func EmptyIndex(storeDir string) (*Index, error) {
	idx := &Index{entries: make(map[string]object.Hash), path: indexPath(storeDir)}
	if err := idx.Flush(); err != nil {
		return nil, err
	}
	return idx, nil
}

// LoadIndex reads the index from storeDir. A missing file yields an empty
// index.
func LoadIndex(storeDir string) (*Index, error) {
	idx := &Index{entries: make(map[string]object.Hash), path: indexPath(storeDir)}
	data, err := os.ReadFile(idx.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return nil, fmt.Errorf("read index: unmarshal %s: %w", idx.path, err)
	}
	if idx.entries == nil {
		idx.entries = make(map[string]object.Hash)
	}
	return idx, nil
}

// Add stages hash under path, replacing any previous entry.
func (idx *Index) Add(path string, h object.Hash) {
	idx.entries[path] = h
}

// Remove unstages path. It reports whether an entry was present.
func (idx *Index) Remove(path string) bool {
	_, ok := idx.entries[path]
	delete(idx.entries, path)
	return ok
}

// Get returns the hash staged under path.
func (idx *Index) Get(path string) (object.Hash, bool) {
	h, ok := idx.entries[path]
	return h, ok
}

// Len returns the number of staged paths.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// IsEmpty reports whether nothing is staged.
func (idx *Index) IsEmpty() bool {
	return len(idx.entries) == 0
}

// Entries returns the staged paths sorted by path.
func (idx *Index) Entries() []IndexEntry {
	out := make([]IndexEntry, 0, len(idx.entries))
	for p, h := range idx.entries {
		out = append(out, IndexEntry{Path: p, Hash: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Flush overwrites the index file with the full current map.
func (idx *Index) Flush() error {
	data, err := json.MarshalIndent(idx.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("write index: marshal: %w", err)
	}
	if err := writeFileAtomic(idx.path, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Clear empties the index and flushes it.
func (idx *Index) Clear() error {
	idx.entries = make(map[string]object.Hash)
	return idx.Flush()
}
