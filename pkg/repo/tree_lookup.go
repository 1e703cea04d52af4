package repo

import (
	"fmt"

	"github.com/odvcencio/flux/pkg/object"
)

type snapshotEntry struct {
	Hash object.Hash
	Mode string
}

// headSnapshot flattens the tree of the current branch tip into a map of
// slash-separated file paths. An unborn branch yields an empty map.
func (r *Repository) headSnapshot() (map[string]snapshotEntry, error) {
	out := make(map[string]snapshotEntry)
	tip, err := r.HeadCommit()
	if err != nil || tip == "" {
		return out, err
	}
	tree, err := r.commitTree(tip)
	if err != nil {
		return nil, err
	}
	if err := r.flattenTree(tree, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) flattenTree(h object.Hash, prefix string, out map[string]snapshotEntry) error {
	entries, err := object.ParseTree(r.Store, h)
	if err != nil {
		return fmt.Errorf("read tree %s: %w", h, err)
	}
	for _, e := range entries {
		p := joinPath(prefix, e.Name)
		if e.Type == object.TypeTree {
			if err := r.flattenTree(e.Hash, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = snapshotEntry{Hash: e.Hash, Mode: e.Mode}
	}
	return nil
}
