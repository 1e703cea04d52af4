package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/odvcencio/flux/pkg/object"
)

func (r *Repository) absPath(rel string) string {
	return filepath.Join(r.WorkTree, filepath.FromSlash(rel))
}

// treeBuilder returns a TreeBuilder that skips the metadata directory and
// anything matched by .fluxignore.
func (r *Repository) treeBuilder(dryRun bool) *object.TreeBuilder {
	ignore := NewIgnoreChecker(r.WorkTree)
	return &object.TreeBuilder{
		Store:   r.Store,
		MetaDir: MetaDirName,
		DryRun:  dryRun,
		Skip: func(path string, isDir bool) bool {
			rel, err := r.relPath(path)
			if err != nil {
				return true
			}
			return ignore.IsIgnored(rel, isDir)
		},
	}
}

// Add stages path, which may be a file or a directory (absolute or relative
// to the work tree). Directories are walked recursively and every regular
// file is stored as a blob and staged individually under its work-tree
// relative path. The metadata directory and ignored paths are skipped. The
// index is flushed before returning.
func (r *Repository) Add(path string) error {
	rel, err := r.relPath(path)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	root := r.absPath(rel)
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	builder := &object.TreeBuilder{Store: r.Store, MetaDir: MetaDirName}
	ignore := NewIgnoreChecker(r.WorkTree)
	staged := 0

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relP, err := r.relPath(p)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if d.Name() == MetaDirName || (relP != "." && ignore.IsIgnored(relP, true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if relP == "." || ignore.IsIgnored(relP, false) {
			return nil
		}

		// Follow symlinks to regular files; skip everything else.
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if !utf8.ValidString(relP) {
			return fmt.Errorf("%q: %w", relP, ErrNonUTF8Path)
		}

		res, err := builder.WriteBlobFile(p)
		if err != nil {
			return err
		}
		r.Index.Add(relP, res.Hash)
		staged++
		return nil
	})
	if err != nil {
		return fmt.Errorf("add %q: %w", path, err)
	}

	if err := r.Index.Flush(); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	r.log.Debug("staged", zap.String("path", rel), zap.Int("files", staged))
	return nil
}

// Delete unstages path. When path names a directory prefix, every entry
// beneath it is unstaged too. The index is flushed before returning.
func (r *Repository) Delete(path string) error {
	if !utf8.ValidString(path) {
		return fmt.Errorf("delete: %w", ErrNonUTF8Path)
	}
	rel, err := r.relPath(path)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	removed := 0
	if r.Index.Remove(rel) {
		removed++
	}
	prefix := rel + "/"
	if rel == "." {
		prefix = ""
	}
	for _, e := range r.Index.Entries() {
		if strings.HasPrefix(e.Path, prefix) {
			r.Index.Remove(e.Path)
			removed++
		}
	}

	if err := r.Index.Flush(); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	r.log.Debug("unstaged", zap.String("path", rel), zap.Int("entries", removed))
	return nil
}

// HashObject computes the object hash of a file (as a blob) or a directory
// (as a tree). Objects are written to the store only when write is set.
func (r *Repository) HashObject(path string, write bool) (object.Hash, error) {
	rel, err := r.relPath(path)
	if err != nil {
		return "", fmt.Errorf("hash object: %w", err)
	}
	full := r.absPath(rel)
	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("hash object: %w", err)
	}

	builder := r.treeBuilder(!write)
	var res object.HashResult
	switch {
	case info.Mode().IsRegular():
		res, err = builder.WriteBlobFile(full)
	case info.IsDir():
		res, err = builder.WriteTree(full)
	default:
		return "", fmt.Errorf("hash object %q: unsupported file type %s", path, info.Mode().Type())
	}
	if err != nil {
		return "", fmt.Errorf("hash object: %w", err)
	}
	return res.Hash, nil
}
