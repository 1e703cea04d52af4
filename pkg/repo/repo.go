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

// MetaDirName is the repository metadata directory under the work tree.
const MetaDirName = object.ReservedName

const (
	headsPrefix   = "refs/heads/"
	defaultBranch = "main"
)

// Repository is an opened flux repository. It is the sole mutator of the
// index, refs and HEAD for its lifetime and is passed explicitly to every
// operation; Init and Open are the only constructors.
type Repository struct {
	WorkTree string        // working directory root
	StoreDir string        // .flux/ directory
	Store    *object.Store // content-addressed object store
	Config   *Config
	Index    *Index
	Head     string // symbolic ref, e.g. "refs/heads/main"
	Branches []Branch

	// Signer, when set, signs every commit created by Commit and CommitTree.
	Signer object.CommitSigner

	log       *zap.Logger
	storeOpts []object.StoreOption
}

// Option configures a Repository at construction.
type Option func(*Repository)

// WithLogger routes engine debug events to l.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSigner signs new commits with s.
func WithSigner(s object.CommitSigner) Option {
	return func(r *Repository) { r.Signer = s }
}

// WithStoreOptions passes options through to the object store.
func WithStoreOptions(opts ...object.StoreOption) Option {
	return func(r *Repository) { r.storeOpts = append(r.storeOpts, opts...) }
}

func newRepository(workTree string, opts []Option) (*Repository, error) {
	if workTree == "" {
		workTree = "."
	}
	abs, err := filepath.Abs(workTree)
	if err != nil {
		return nil, fmt.Errorf("resolve work tree: %w", err)
	}
	r := &Repository{
		WorkTree: abs,
		StoreDir: filepath.Join(abs, MetaDirName),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Store = object.NewStore(r.StoreDir, r.storeOpts...)
	r.log = r.log.With(zap.String("repo", abs))
	return r, nil
}

// Init creates a new repository in path: .flux/ with objects/, refs/heads/,
// an unborn main branch, a default config, HEAD and an empty index. It fails
// with ErrAlreadyInitialized when a repository exists, unless force is set.
// Forcing resets HEAD, config and index but keeps objects and existing refs.
func Init(path string, force bool, opts ...Option) (*Repository, error) {
	r, err := newRepository(path, opts)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	if _, err := os.Stat(filepath.Join(r.StoreDir, "config")); err == nil && !force {
		return nil, fmt.Errorf("init %s: %w", r.StoreDir, ErrAlreadyInitialized)
	}

	dirs := []string{
		filepath.Join(r.StoreDir, "objects"),
		filepath.Join(r.StoreDir, "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	mainRef := r.refPath(headsPrefix + defaultBranch)
	if _, err := os.Stat(mainRef); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(mainRef, nil, 0o644); err != nil {
			return nil, fmt.Errorf("init: create main ref: %w", err)
		}
	}

	if r.Config, err = DefaultConfig(filepath.Join(r.StoreDir, "config")); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := r.writeHead(headsPrefix + defaultBranch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if r.Index, err = EmptyIndex(r.StoreDir); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := r.LoadBranches(); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	r.log.Debug("initialized repository", zap.Bool("force", force))
	return r, nil
}

// Open opens the repository whose work tree is path. It fails with
// ErrNotARepository when .flux/ is absent and ErrDetachedHead when HEAD
// holds a raw hash instead of a symbolic ref.
func Open(path string, opts ...Option) (*Repository, error) {
	r, err := newRepository(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	info, err := os.Stat(r.StoreDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", r.WorkTree, ErrNotARepository)
	}

	if r.Config, err = LoadConfig(filepath.Join(r.StoreDir, "config")); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if r.Index, err = LoadIndex(r.StoreDir); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if r.Head, err = r.readHead(); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := r.LoadBranches(); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return r, nil
}

// Discover searches upward from path for a directory containing .flux/ and
// opens it.
func Discover(path string, opts ...Option) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		info, err := os.Stat(filepath.Join(cur, MetaDirName))
		if err == nil && info.IsDir() {
			return Open(cur, opts...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open %s (or any parent): %w", abs, ErrNotARepository)
		}
		cur = parent
	}
}

// Set updates a config value (user_name or user_email).
func (r *Repository) Set(key, value string) error {
	if err := r.Config.Set(key, value); err != nil {
		return err
	}
	r.log.Debug("config updated", zap.String("key", key))
	return nil
}

// BranchName returns the name of the branch HEAD points at.
func (r *Repository) BranchName() string {
	return strings.TrimPrefix(r.Head, headsPrefix)
}

func (r *Repository) headPath() string {
	return filepath.Join(r.StoreDir, "HEAD")
}

func (r *Repository) refPath(ref string) string {
	return filepath.Join(r.StoreDir, filepath.FromSlash(ref))
}

// readHead reads HEAD, which must be of the form "ref: refs/heads/<name>".
func (r *Repository) readHead() (string, error) {
	data, err := os.ReadFile(r.headPath())
	if err != nil {
		return "", fmt.Errorf("read HEAD: %w", err)
	}
	content := strings.TrimSpace(string(data))
	ref, ok := strings.CutPrefix(content, "ref: ")
	if !ok {
		return "", fmt.Errorf("read HEAD %q: %w", content, ErrDetachedHead)
	}
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, headsPrefix) || ref == headsPrefix {
		return "", fmt.Errorf("read HEAD: invalid ref %q", ref)
	}
	return ref, nil
}

func (r *Repository) writeHead(ref string) error {
	if err := writeFileAtomic(r.headPath(), []byte("ref: "+ref+"\n"), 0o644); err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	r.Head = ref
	r.log.Debug("HEAD updated", zap.String("ref", ref))
	return nil
}

// readRef returns the hash a ref file holds, or "" when the branch is
// unborn or the ref file is missing.
func (r *Repository) readRef(ref string) (object.Hash, error) {
	data, err := os.ReadFile(r.refPath(ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read ref %q: %w", ref, err)
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}

// updateRef atomically points ref at h and records the move in the ref's
// reflog with the given reason.
func (r *Repository) updateRef(ref string, h object.Hash, reason string) error {
	old, err := r.readRef(ref)
	if err != nil {
		return err
	}
	var data []byte
	if h != "" {
		data = []byte(string(h) + "\n")
	}
	if err := writeFileAtomic(r.refPath(ref), data, 0o644); err != nil {
		return fmt.Errorf("update ref %q: %w", ref, err)
	}
	if err := r.appendReflog(ref, old, h, reason); err != nil {
		return fmt.Errorf("update ref %q: %w", ref, err)
	}
	r.log.Debug("ref updated", zap.String("ref", ref), zap.String("hash", string(h)), zap.String("reason", reason))
	return nil
}

// HeadCommit returns the tip of the current branch, or "" if it is unborn.
func (r *Repository) HeadCommit() (object.Hash, error) {
	return r.readRef(r.Head)
}

// relPath converts p (absolute, or relative to the work tree) into a clean
// slash-separated path relative to the work tree.
func (r *Repository) relPath(p string) (string, error) {
	abs := p
	if !filepath.IsAbs(p) {
		abs = filepath.Join(r.WorkTree, p)
	}
	rel, err := filepath.Rel(r.WorkTree, filepath.Clean(abs))
	if err != nil {
		return "", fmt.Errorf("%q: %w", p, ErrOutsideWorkTree)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", p, ErrOutsideWorkTree)
	}
	return filepath.ToSlash(rel), nil
}
