package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/flux/pkg/object"
)

type stagedObject struct {
	hash object.Hash
	typ  object.ObjectType
}

// TreeFromIndex writes the staged entries as a tree hierarchy and returns
// the root tree hash.
//
// Index paths are slash-separated (e.g. "pkg/util/util.go"); they are
// grouped by directory and subtrees are written bottom-up. A staged blob
// gets its mode from the executable bit of the work-tree file; a staged
// tree is recorded as a directory entry.
func (r *Repository) TreeFromIndex() (object.Hash, error) {
	staged := make(map[string]stagedObject, r.Index.Len())
	for _, e := range r.Index.Entries() {
		obj, err := r.Store.Read(e.Hash)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("tree from index: %q (%s): %w", e.Path, e.Hash, ErrMissingObject)
			}
			return "", fmt.Errorf("tree from index: %q: %w", e.Path, err)
		}
		switch obj.Type {
		case object.TypeBlob, object.TypeTree:
			staged[e.Path] = stagedObject{hash: e.Hash, typ: obj.Type}
		case object.TypeCommit:
			return "", fmt.Errorf("tree from index: %q: %w: commit staged", e.Path, object.ErrWrongObjectType)
		}
	}

	h, err := r.buildTreeDir(staged, "")
	if err != nil {
		return "", fmt.Errorf("tree from index: %w", err)
	}
	r.log.Debug("tree written from index", zap.String("tree", string(h)), zap.Int("entries", len(staged)))
	return h, nil
}

// buildTreeDir builds and stores the tree for the directory prefix.
func (r *Repository) buildTreeDir(staged map[string]stagedObject, prefix string) (object.Hash, error) {
	direct := make(map[string]stagedObject)
	subdirs := make(map[string]struct{})

	for p, obj := range staged {
		rel := p
		if prefix != "" {
			var ok bool
			if rel, ok = strings.CutPrefix(p, prefix+"/"); !ok {
				continue
			}
		}
		if slash := strings.IndexByte(rel, '/'); slash >= 0 {
			subdirs[rel[:slash]] = struct{}{}
		} else {
			direct[rel] = obj
		}
	}

	names := make([]string, 0, len(direct)+len(subdirs))
	for name := range direct {
		if _, clash := subdirs[name]; clash {
			return "", fmt.Errorf("%q is staged both as an object and as a directory", joinPath(prefix, name))
		}
		names = append(names, name)
	}
	for name := range subdirs {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]object.TreeEntry, 0, len(names))
	for _, name := range names {
		full := joinPath(prefix, name)
		if obj, ok := direct[name]; ok {
			mode := object.TreeModeDir
			if obj.typ == object.TypeBlob {
				mode = r.stagedFileMode(full)
			}
			entries = append(entries, object.TreeEntry{Mode: mode, Type: obj.typ, Hash: obj.hash, Name: name})
			continue
		}
		sub, err := r.buildTreeDir(staged, full)
		if err != nil {
			return "", err
		}
		entries = append(entries, object.TreeEntry{Mode: object.TreeModeDir, Type: object.TypeTree, Hash: sub, Name: name})
	}

	h, err := r.Store.WriteTree(entries)
	if err != nil {
		return "", fmt.Errorf("write tree (prefix=%q): %w", prefix, err)
	}
	return h, nil
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
