package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/odvcencio/flux/pkg/object"
)

// commitTree returns the tree a commit points at, requiring both objects to
// be of the right kind.
func (r *Repository) commitTree(commit object.Hash) (object.Hash, error) {
	obj, err := r.Store.Read(commit)
	if err != nil {
		return "", err
	}
	tree, ok, err := object.TreeHash(obj)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("commit %s: %w: no tree header", commit, object.ErrMalformedObject)
	}
	return tree, nil
}

// checkTree walks tree h and verifies every subtree parses and every blob it
// references is present and is a blob.
func (r *Repository) checkTree(h object.Hash) error {
	entries, err := object.ParseTree(r.Store, h)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Type {
		case object.TypeTree:
			if err := r.checkTree(e.Hash); err != nil {
				return err
			}
		case object.TypeBlob:
			if _, err := r.Store.ReadTyped(e.Hash, object.TypeBlob); err != nil {
				return fmt.Errorf("tree %s entry %q: %w", h, e.Name, err)
			}
		}
	}
	return nil
}

// clearWorkingTree deletes every entry of the work tree except the metadata
// directory.
func (r *Repository) clearWorkingTree() error {
	entries, err := os.ReadDir(r.WorkTree)
	if err != nil {
		return fmt.Errorf("clear working tree: %w", err)
	}
	for _, e := range entries {
		if e.Name() == MetaDirName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(r.WorkTree, e.Name())); err != nil {
			return fmt.Errorf("clear working tree: %w", err)
		}
	}
	r.log.Debug("working tree cleared", zap.Int("entries", len(entries)))
	return nil
}

// restoreTree writes tree h into dir, recreating subdirectories and file
// contents with the executable bit taken from each entry's mode.
func (r *Repository) restoreTree(h object.Hash, dir string) error {
	entries, err := object.ParseTree(r.Store, h)
	if err != nil {
		return fmt.Errorf("restore tree: %w", err)
	}
	for _, e := range entries {
		target := filepath.Join(dir, e.Name)
		switch e.Type {
		case object.TypeTree:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("restore tree: mkdir %s: %w", target, err)
			}
			if err := r.restoreTree(e.Hash, target); err != nil {
				return err
			}
		case object.TypeBlob:
			data, err := r.Store.ReadBlob(e.Hash)
			if err != nil {
				return fmt.Errorf("restore tree: %s: %w", target, err)
			}
			perm := filePermFromMode(e.Mode)
			if err := os.WriteFile(target, data, perm); err != nil {
				return fmt.Errorf("restore tree: write %s: %w", target, err)
			}
			if err := os.Chmod(target, perm); err != nil {
				return fmt.Errorf("restore tree: chmod %s: %w", target, err)
			}
		}
	}
	r.log.Debug("tree restored", zap.String("tree", string(h)), zap.String("dir", dir))
	return nil
}
