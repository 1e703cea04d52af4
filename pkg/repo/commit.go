package repo

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/odvcencio/flux/pkg/object"
)

// CommitTree creates a commit for an existing tree with an optional parent
// and returns its hash. Branch refs are not touched.
func (r *Repository) CommitTree(tree object.Hash, message string, parent object.Hash) (object.Hash, error) {
	name, email, err := r.Config.Identity()
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	if _, err := r.Store.ReadTyped(tree, object.TypeTree); err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	if parent != "" {
		if _, err := r.Store.ReadTyped(parent, object.TypeCommit); err != nil {
			return "", fmt.Errorf("commit tree: parent: %w", err)
		}
	}

	h, err := object.CommitTree(r.Store, object.CommitParams{
		UserName:  name,
		UserEmail: email,
		Tree:      tree,
		Parent:    parent,
		Message:   message,
		Signer:    r.Signer,
	})
	if err != nil {
		return "", err
	}
	r.log.Debug("commit object written", zap.String("commit", string(h)), zap.String("tree", string(tree)))
	return h, nil
}

// Commit records the staged entries as a new commit on the current branch.
//
//  1. Refuse an empty index (ErrNothingToCommit)
//  2. Require user_name and user_email
//  3. Check every staged object is in the store
//  4. Build the tree from the index
//  5. Write the commit with the current tip as parent
//  6. Point the branch at the new commit
//  7. Clear the index
func (r *Repository) Commit(message string) (object.Hash, error) {
	if r.Index.IsEmpty() {
		return "", fmt.Errorf("commit: %w", ErrNothingToCommit)
	}
	if _, _, err := r.Config.Identity(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	for _, e := range r.Index.Entries() {
		if !r.Store.Has(e.Hash) {
			return "", fmt.Errorf("commit: %q (%s): %w", e.Path, e.Hash, ErrMissingObject)
		}
	}

	tree, err := r.TreeFromIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	parent, err := r.HeadCommit()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	h, err := r.CommitTree(tree, message, parent)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	if err := r.updateRef(r.Head, h, commitReason(parent, message)); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if err := r.Index.Clear(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if err := r.LoadBranches(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.log.Debug("committed", zap.String("branch", r.BranchName()), zap.String("commit", string(h)))
	return h, nil
}

func commitReason(parent object.Hash, message string) string {
	summary, _, _ := strings.Cut(message, "\n")
	if parent == "" {
		return "commit (initial): " + summary
	}
	return "commit: " + summary
}

// LogEntry is one commit of a history walk.
type LogEntry struct {
	Hash   object.Hash
	Body   string
	Commit *object.Commit
}

// Log walks the current branch from its tip following parent links and
// returns the commits newest first. An unborn branch has an empty log.
func (r *Repository) Log() ([]LogEntry, error) {
	tip, err := r.HeadCommit()
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	return r.LogFrom(tip)
}

// LogFrom walks history starting at commit start.
func (r *Repository) LogFrom(start object.Hash) ([]LogEntry, error) {
	var entries []LogEntry
	for cur := start; cur != ""; {
		body, err := object.ShowCommit(r.Store, cur)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		c, err := object.ParseCommit([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("log: %s: %w", cur, err)
		}
		entries = append(entries, LogEntry{Hash: cur, Body: body, Commit: c})

		parent, ok, err := object.ParentHash(r.Store, cur)
		if err != nil {
			return nil, fmt.Errorf("log: %w", err)
		}
		if !ok {
			break
		}
		cur = parent
	}
	return entries, nil
}

// CatFile renders object h: a blob as its UTF-8 text, a tree as ls-tree
// lines, a commit as its body.
func (r *Repository) CatFile(h object.Hash) (string, error) {
	obj, err := r.Store.Read(h)
	if err != nil {
		return "", fmt.Errorf("cat-file: %w", err)
	}
	switch obj.Type {
	case object.TypeBlob:
		if !utf8.Valid(obj.Content) {
			return "", fmt.Errorf("cat-file %s: blob contains invalid UTF-8", h)
		}
		return string(obj.Content), nil
	case object.TypeTree:
		return r.LsTree(h)
	case object.TypeCommit:
		return object.ShowCommit(r.Store, h)
	default:
		return "", fmt.Errorf("cat-file %s: unsupported object type %q", h, obj.Type)
	}
}

// LsTree lists the entries of tree h.
func (r *Repository) LsTree(h object.Hash) (string, error) {
	out, err := object.LsTree(r.Store, h)
	if err != nil {
		return "", fmt.Errorf("ls-tree: %w", err)
	}
	return out, nil
}

// LsTreeNames lists only the entry names of tree h.
func (r *Repository) LsTreeNames(h object.Hash) (string, error) {
	out, err := object.LsTreeNames(r.Store, h)
	if err != nil {
		return "", fmt.Errorf("ls-tree: %w", err)
	}
	return out, nil
}
