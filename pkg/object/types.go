package object

import "fmt"

// ObjectType identifies the kind of object stored. The set is closed:
// every switch over an ObjectType handles exactly these three values.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

const (
	// Tree mode constants, Git's canonical mode strings.
	TreeModeDir        = "040000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
)

// ParseObjectType maps an envelope type token to an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case TypeBlob, TypeTree, TypeCommit:
		return ObjectType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown object type %q", ErrMalformedObject, s)
	}
}

// GenericObject is a decoded envelope as read back from the store.
type GenericObject struct {
	Type    ObjectType
	Size    int
	Content []byte
}

// HashResult is the output of encoding an object prior to persisting it.
type HashResult struct {
	Hash       Hash
	Compressed []byte
}

// TreeEntry is one direct child of a tree object.
type TreeEntry struct {
	Mode string
	Type ObjectType // TypeBlob or TypeTree
	Hash Hash
	Name string
}

// IsDir reports whether the entry refers to a subtree.
func (e TreeEntry) IsDir() bool {
	return isDirMode(e.Mode)
}

func isDirMode(mode string) bool {
	return len(mode) >= 3 && mode[:3] == "040"
}
