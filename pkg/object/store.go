package object

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of decoded objects a Store keeps in memory.
const DefaultCacheSize = 256

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// Objects are immutable once written, so decoded reads are cached by hash.
type Store struct {
	root  string
	cache *lru.Cache[Hash, *GenericObject]
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	cacheSize int
}

// WithCacheSize sets the decoded-object cache capacity. Zero disables it.
func WithCacheSize(n int) StoreOption {
	return func(o *storeOptions) { o.cacheSize = n }
}

// NewStore creates a Store rooted at the given metadata directory. The
// objects/ subdirectory and its shards are created lazily on first write.
func NewStore(root string, opts ...StoreOption) *Store {
	o := storeOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{root: root}
	if o.cacheSize > 0 {
		// lru.New only fails on a non-positive size.
		s.cache, _ = lru.New[Hash, *GenericObject](o.cacheSize)
	}
	return s
}

// Root returns the metadata directory the store lives under.
func (s *Store) Root() string {
	return s.root
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if len(h) < 3 {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// StoreObject persists already-compressed object bytes under h. Writes are
// atomic: data goes to a temp file in the shard directory and is renamed
// into place, so a reader never observes a partial object. An existing
// object is left untouched since its bytes are identical by construction.
func (s *Store) StoreObject(h Hash, compressed []byte) error {
	if len(h) != 2*HashSize {
		return fmt.Errorf("object write: invalid hash %q", h)
	}
	if s.Has(h) {
		return nil
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("object write rename: %w", err)
	}
	return nil
}

// Put encodes payload as an object of the given type, stores it, and
// returns its hash.
func (s *Store) Put(objType ObjectType, payload []byte) (Hash, error) {
	res, err := Encode(objType, payload)
	if err != nil {
		return "", err
	}
	if err := s.StoreObject(res.Hash, res.Compressed); err != nil {
		return "", err
	}
	return res.Hash, nil
}

// Read retrieves and decodes an object by hash. A missing object yields an
// error wrapping fs.ErrNotExist; a corrupt envelope yields ErrMalformedObject.
func (s *Store) Read(h Hash) (*GenericObject, error) {
	if len(h) < 3 {
		return nil, fmt.Errorf("object read %q: hash too short", h)
	}
	if s.cache != nil {
		if obj, ok := s.cache.Get(h); ok {
			return obj, nil
		}
	}

	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	raw, err := Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	obj, err := DecodeEnvelope(raw)
	if err != nil {
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}

	if s.cache != nil {
		s.cache.Add(h, obj)
	}
	return obj, nil
}

// ReadTyped reads an object and fails with ErrWrongObjectType unless it is
// of the wanted type.
func (s *Store) ReadTyped(h Hash, want ObjectType) (*GenericObject, error) {
	obj, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if obj.Type != want {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrWrongObjectType, obj.Type, want)
	}
	return obj, nil
}

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	Objects int
	Blobs   int
	Trees   int
	Commits int
}

// Verify rehashes every loose object and fails on the first whose content
// does not match its file name.
func (s *Store) Verify() (*VerifySummary, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}

	report := &VerifySummary{}
	for _, h := range hashes {
		compressed, err := os.ReadFile(s.objectPath(h))
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		raw, err := Decompress(compressed)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		obj, err := DecodeEnvelope(raw)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", h, err)
		}
		if actual := HashBytes(raw); actual != h {
			return nil, fmt.Errorf("verify %s: hash mismatch (computed %s)", h, actual)
		}

		report.Objects++
		switch obj.Type {
		case TypeBlob:
			report.Blobs++
		case TypeTree:
			report.Trees++
		case TypeCommit:
			report.Commits++
		}
	}
	return report, nil
}

// List returns the hashes of every object in the store, sorted.
func (s *Store) List() ([]Hash, error) {
	objectsDir := filepath.Join(s.root, "objects")
	shards, err := os.ReadDir(objectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list objects: %w", err)
	}

	var out []Hash
	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		files, err := os.ReadDir(filepath.Join(objectsDir, shard.Name()))
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".tmp-") {
				continue
			}
			h := Hash(shard.Name() + f.Name())
			if _, err := ParseHash(string(h)); err != nil {
				continue
			}
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
