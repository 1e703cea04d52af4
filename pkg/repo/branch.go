package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/flux/pkg/object"
)

// Branch describes one ref under refs/heads. It is derived from the ref
// files and HEAD on every load and never stored separately.
type Branch struct {
	Name       string
	IsCurrent  bool
	LastCommit object.Hash // "" for an unborn branch
	RefPath    string
}

// Unborn reports whether the branch has no commits yet.
func (b Branch) Unborn() bool {
	return b.LastCommit == ""
}

// LoadBranches rescans refs/heads and refreshes r.Branches. The current
// branch is the one HEAD names.
func (r *Repository) LoadBranches() error {
	headsDir := filepath.Join(r.StoreDir, "refs", "heads")
	entries, err := os.ReadDir(headsDir)
	if err != nil {
		return fmt.Errorf("load branches: %w", err)
	}

	current := r.BranchName()
	branches := make([]Branch, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		tip, err := r.readRef(headsPrefix + name)
		if err != nil {
			return fmt.Errorf("load branches: %w", err)
		}
		branches = append(branches, Branch{
			Name:       name,
			IsCurrent:  name == current,
			LastCommit: tip,
			RefPath:    filepath.Join(headsDir, name),
		})
	}
	r.Branches = branches
	return nil
}

// CurrentBranch returns the branch HEAD points at.
func (r *Repository) CurrentBranch() (Branch, bool) {
	for _, b := range r.Branches {
		if b.IsCurrent {
			return b, true
		}
	}
	return Branch{}, false
}

// ValidateBranchName rejects names that cannot be a single ref file.
func ValidateBranchName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case strings.ContainsAny(name, `/\`+"\x00 \t\n"):
	case strings.HasPrefix(name, "."), strings.HasSuffix(name, ".lock"):
	default:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidBranchName, name)
}

func (r *Repository) branchExists(name string) bool {
	info, err := os.Stat(r.refPath(headsPrefix + name))
	return err == nil && !info.IsDir()
}

// NewBranch creates branch name starting at the current tip (or unborn if
// the current branch has no commits) and switches HEAD to it. The working
// tree and index are left as they are, since both branches share history.
func (r *Repository) NewBranch(name string) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("new branch: %w", err)
	}
	if r.branchExists(name) {
		return fmt.Errorf("new branch %q: %w", name, ErrBranchExists)
	}

	tip, err := r.HeadCommit()
	if err != nil {
		return fmt.Errorf("new branch %q: %w", name, err)
	}
	ref := headsPrefix + name
	if err := r.updateRef(ref, tip, "branch: created from "+r.BranchName()); err != nil {
		return fmt.Errorf("new branch %q: %w", name, err)
	}
	if err := r.writeHead(ref); err != nil {
		return fmt.Errorf("new branch %q: %w", name, err)
	}

	r.log.Debug("branch created", zap.String("branch", name), zap.String("tip", string(tip)))
	return r.LoadBranches()
}

// SwitchBranch points HEAD at branch name and replaces the working tree
// with that branch's tip. It refuses while changes are staged unless force
// is set; a forced switch discards the staged entries.
//
// The target tree is checked for completeness before anything on disk is
// touched, so a missing object never leaves a half-cleared working tree.
func (r *Repository) SwitchBranch(name string, force bool) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("switch branch: %w", err)
	}
	if !r.branchExists(name) {
		return fmt.Errorf("switch branch %q: %w", name, ErrBranchNotFound)
	}
	if !r.Index.IsEmpty() && !force {
		return fmt.Errorf("switch branch %q: %w", name, ErrUncommittedChanges)
	}

	ref := headsPrefix + name
	tip, err := r.readRef(ref)
	if err != nil {
		return fmt.Errorf("switch branch %q: %w", name, err)
	}

	var tree object.Hash
	if tip != "" {
		if tree, err = r.commitTree(tip); err != nil {
			return fmt.Errorf("switch branch %q: %w", name, err)
		}
		if err := r.checkTree(tree); err != nil {
			return fmt.Errorf("switch branch %q: %w", name, err)
		}
	}

	if err := r.writeHead(ref); err != nil {
		return fmt.Errorf("switch branch %q: %w", name, err)
	}
	if err := r.clearWorkingTree(); err != nil {
		return fmt.Errorf("switch branch %q: %w", name, err)
	}
	if tree != "" {
		if err := r.restoreTree(tree, r.WorkTree); err != nil {
			return fmt.Errorf("switch branch %q: %w", name, err)
		}
	}
	if !r.Index.IsEmpty() {
		if err := r.Index.Clear(); err != nil {
			return fmt.Errorf("switch branch %q: %w", name, err)
		}
	}

	r.log.Debug("switched branch", zap.String("branch", name), zap.String("tip", string(tip)), zap.Bool("force", force))
	return r.LoadBranches()
}

// DeleteBranch removes the ref file of branch name. The current branch
// cannot be deleted.
func (r *Repository) DeleteBranch(name string) error {
	if err := ValidateBranchName(name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if name == r.BranchName() {
		return fmt.Errorf("delete branch %q: %w", name, ErrCurrentBranch)
	}
	if err := os.Remove(r.refPath(headsPrefix + name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete branch %q: %w", name, ErrBranchNotFound)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	if err := r.removeReflog(headsPrefix + name); err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	r.log.Debug("branch deleted", zap.String("branch", name))
	return r.LoadBranches()
}

// ShowBranches renders the branch list, marking the current one with (*).
func (r *Repository) ShowBranches() string {
	var b strings.Builder
	for _, br := range r.Branches {
		if br.IsCurrent {
			b.WriteString("(*) ")
		} else {
			b.WriteString("    ")
		}
		b.WriteString(br.Name)
		b.WriteByte('\n')
	}
	return b.String()
}
