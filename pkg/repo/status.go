package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/flux/pkg/object"
)

// FileStatus represents the state of a file in one comparison.
type FileStatus int

const (
	StatusClean     FileStatus = iota // no difference
	StatusNew                         // staged, not in the branch tip
	StatusModified                    // staged, differs from the branch tip
	StatusDeleted                     // tracked but missing from the working tree
	StatusUntracked                   // on disk, neither staged nor committed
	StatusDirty                       // on disk, differs from what is staged or committed
)

func (s FileStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusNew:
		return "new"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusUntracked:
		return "untracked"
	case StatusDirty:
		return "dirty"
	}
	return fmt.Sprintf("FileStatus(%d)", int(s))
}

// StatusEntry records the status of a single path.
type StatusEntry struct {
	Path        string     // work-tree-relative slash path
	IndexStatus FileStatus // staged entry vs branch tip
	WorkStatus  FileStatus // working file vs staged entry, or vs branch tip when unstaged
}

// Status compares the working tree, the index and the tree of the current
// branch tip.
//
//  1. Flatten the tip tree into path → blob.
//  2. Classify each staged path against the tip (new or modified).
//  3. Walk the working tree (skipping .flux/ and ignored paths) and hash
//     each file against its staged blob, or its committed blob when
//     nothing is staged.
//  4. Report tracked paths missing from disk as deleted.
//
// Clean paths are left out. The result is sorted by path.
func (r *Repository) Status() ([]StatusEntry, error) {
	head, err := r.headSnapshot()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	result := make(map[string]*StatusEntry)
	entry := func(p string) *StatusEntry {
		if e, ok := result[p]; ok {
			return e
		}
		e := &StatusEntry{Path: p}
		result[p] = e
		return e
	}

	staged := make(map[string]object.Hash, r.Index.Len())
	for _, e := range r.Index.Entries() {
		staged[e.Path] = e.Hash
		committed, inHead := head[e.Path]
		switch {
		case !inHead:
			entry(e.Path).IndexStatus = StatusNew
		case committed.Hash != e.Hash:
			entry(e.Path).IndexStatus = StatusModified
		}
	}

	ic := NewIgnoreChecker(r.WorkTree)
	onDisk := make(map[string]bool)
	err = filepath.WalkDir(r.WorkTree, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := r.relPath(p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if ic.IsIgnored(rel, d.IsDir()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		onDisk[rel] = true

		want, tracked := staged[rel]
		if !tracked {
			var committed snapshotEntry
			committed, tracked = head[rel]
			want = committed.Hash
		}
		if !tracked {
			entry(rel).WorkStatus = StatusUntracked
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if object.HashObject(object.TypeBlob, content) != want {
			entry(rel).WorkStatus = StatusDirty
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("status: walk: %w", err)
	}

	for p := range staged {
		if !onDisk[p] {
			entry(p).WorkStatus = StatusDeleted
		}
	}
	for p := range head {
		if !onDisk[p] {
			entry(p).WorkStatus = StatusDeleted
		}
	}

	out := make([]StatusEntry, 0, len(result))
	for _, e := range result {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
