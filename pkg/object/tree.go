package object

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReservedName is the repository metadata directory name. No tree entry may
// use it.
const ReservedName = ".flux"

// ValidEntryName reports whether name may appear as a single tree entry.
func ValidEntryName(name string) bool {
	switch name {
	case "", ".", "..", ReservedName:
		return false
	}
	return !strings.ContainsAny(name, "/\x00")
}

// sortKey is the canonical ordering key of a tree entry: directories compare
// as if their name carried a trailing slash.
func sortKey(e TreeEntry) string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

// SortEntries orders entries canonically in place.
func SortEntries(entries []TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return sortKey(entries[i]) < sortKey(entries[j])
	})
}

// BuildTreeContent serializes entries as a tree payload. Entries are sorted
// canonically first, so the result does not depend on the order they were
// collected in. Each entry is
//
//	<mode> <name>\0<20 raw hash bytes>
func BuildTreeContent(entries []TreeEntry) ([]byte, error) {
	sorted := make([]TreeEntry, len(entries))
	copy(sorted, entries)
	SortEntries(sorted)

	var buf bytes.Buffer
	for _, e := range sorted {
		if !ValidEntryName(e.Name) {
			return nil, fmt.Errorf("build tree: %w: invalid entry name %q", ErrMalformedTree, e.Name)
		}
		raw, err := e.Hash.Raw()
		if err != nil {
			return nil, fmt.Errorf("build tree: entry %q: %w", e.Name, err)
		}
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// HashTree wraps a tree payload with the tree envelope.
func HashTree(content []byte) (HashResult, error) {
	return Encode(TypeTree, content)
}

// WriteTree serializes entries and stores the resulting tree object.
func (s *Store) WriteTree(entries []TreeEntry) (Hash, error) {
	content, err := BuildTreeContent(entries)
	if err != nil {
		return "", err
	}
	return s.Put(TypeTree, content)
}

// DecodeTree parses a tree payload. It consumes mode, space, name, NUL and
// exactly 20 hash bytes per entry until the payload is exhausted.
func DecodeTree(content []byte) ([]TreeEntry, error) {
	var entries []TreeEntry
	pos := 0
	for pos < len(content) {
		sp := bytes.IndexByte(content[pos:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: missing space after mode at offset %d", ErrMalformedTree, pos)
		}
		mode := string(content[pos : pos+sp])
		pos += sp + 1

		nul := bytes.IndexByte(content[pos:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("%w: missing NUL after name at offset %d", ErrMalformedTree, pos)
		}
		name := string(content[pos : pos+nul])
		if !ValidEntryName(name) {
			return nil, fmt.Errorf("%w: invalid entry name %q", ErrMalformedTree, name)
		}
		pos += nul + 1

		if pos+HashSize > len(content) {
			return nil, fmt.Errorf("%w: truncated hash for %q", ErrMalformedTree, name)
		}
		h, err := HashFromRaw(content[pos : pos+HashSize])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
		}
		pos += HashSize

		entryType := TypeBlob
		if isDirMode(mode) {
			entryType = TypeTree
		}
		entries = append(entries, TreeEntry{Mode: mode, Type: entryType, Hash: h, Name: name})
	}
	return entries, nil
}

// ParseTree reads the tree object h and decodes its entries.
func ParseTree(s *Store, h Hash) ([]TreeEntry, error) {
	obj, err := s.ReadTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	entries, err := DecodeTree(obj.Content)
	if err != nil {
		return nil, fmt.Errorf("parse tree %s: %w", h, err)
	}
	return entries, nil
}

// LsTree renders the entries of tree h one per line as
// "<mode> <blob|tree> <hash> <name>".
func LsTree(s *Store, h Hash) (string, error) {
	entries, err := ParseTree(s, h)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s %s %s %s\n", e.Mode, e.Type, e.Hash, e.Name)
	}
	return b.String(), nil
}

// LsTreeNames renders only the entry names of tree h, one per line.
func LsTreeNames(s *Store, h Hash) (string, error) {
	entries, err := ParseTree(s, h)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Name)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ModeFromFileInfo returns the tree mode for a regular file: executable if
// any execute bit is set.
func ModeFromFileInfo(info fs.FileInfo) string {
	if info.Mode()&0o111 != 0 {
		return TreeModeExecutable
	}
	return TreeModeFile
}

// TreeBuilder materializes tree objects from a directory on disk.
type TreeBuilder struct {
	Store *Store

	// MetaDir is the base name of the repository metadata directory, which
	// is never descended into.
	MetaDir string

	// Skip, when set, reports whether an absolute path should be left out.
	Skip func(path string, isDir bool) bool

	// DryRun computes hashes without writing anything to the store.
	DryRun bool
}

// WriteTree recursively hashes the directory at path. Every blob and
// subtree is persisted before the tree that references it, and the tree
// itself is persisted before returning (unless DryRun).
func (b *TreeBuilder) WriteTree(path string) (HashResult, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return HashResult{}, fmt.Errorf("write tree: read dir %s: %w", path, err)
	}

	var entries []TreeEntry
	for _, de := range dirEntries {
		name := de.Name()
		if name == ReservedName || (b.MetaDir != "" && name == b.MetaDir) {
			continue
		}
		full := filepath.Join(path, name)

		info, err := os.Lstat(full)
		if err != nil {
			return HashResult{}, fmt.Errorf("write tree: stat %s: %w", full, err)
		}
		// Links to regular files are followed; linked directories are not.
		if info.Mode()&fs.ModeSymlink != 0 {
			target, err := os.Stat(full)
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
			info = target
		}
		if b.Skip != nil && b.Skip(full, info.IsDir()) {
			continue
		}

		switch {
		case info.Mode().IsRegular():
			res, err := b.WriteBlobFile(full)
			if err != nil {
				return HashResult{}, err
			}
			entries = append(entries, TreeEntry{
				Mode: ModeFromFileInfo(info),
				Type: TypeBlob,
				Hash: res.Hash,
				Name: name,
			})
		case info.IsDir():
			sub, err := b.WriteTree(full)
			if err != nil {
				return HashResult{}, err
			}
			entries = append(entries, TreeEntry{
				Mode: TreeModeDir,
				Type: TypeTree,
				Hash: sub.Hash,
				Name: name,
			})
		}
	}

	content, err := BuildTreeContent(entries)
	if err != nil {
		return HashResult{}, fmt.Errorf("write tree %s: %w", path, err)
	}
	res, err := HashTree(content)
	if err != nil {
		return HashResult{}, err
	}
	if err := b.persist(res); err != nil {
		return HashResult{}, fmt.Errorf("write tree %s: %w", path, err)
	}
	return res, nil
}

// WriteBlobFile hashes the file at path as a blob and persists it unless
// DryRun is set.
func (b *TreeBuilder) WriteBlobFile(path string) (HashResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return HashResult{}, fmt.Errorf("write blob: %w", err)
	}
	res, err := HashBlob(content)
	if err != nil {
		return HashResult{}, err
	}
	if err := b.persist(res); err != nil {
		return HashResult{}, fmt.Errorf("write blob %s: %w", path, err)
	}
	return res, nil
}

func (b *TreeBuilder) persist(res HashResult) error {
	if b.DryRun {
		return nil
	}
	return b.Store.StoreObject(res.Hash, res.Compressed)
}
