package object

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// SignatureHeader is the commit header key carrying an SSH signature.
const SignatureHeader = "sshsig"

// CommitSigner signs canonical commit payload bytes and returns an encoded
// single-line signature to be stored under the sshsig header.
type CommitSigner func(payload []byte) (string, error)

// CommitParams describes a commit to be written by CommitTree.
type CommitParams struct {
	UserName  string
	UserEmail string
	Tree      Hash
	Parent    Hash // empty for a root commit
	Message   string
	When      time.Time // zero means now
	Signer    CommitSigner
}

// Commit is the structured form of a commit body.
type Commit struct {
	Tree      Hash
	Parent    Hash
	Author    string
	Committer string
	Signature string
	Message   string
}

// MarshalCommit renders the commit body:
//
//	tree H
//	parent H            (only when a parent is present)
//	author N <E> TS TZ
//	committer N <E> TS TZ
//	sshsig S            (only when signed)
//
//	message
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.Tree)
	if c.Parent != "" {
		fmt.Fprintf(&buf, "parent %s\n", c.Parent)
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)
	if c.Signature != "" {
		fmt.Fprintf(&buf, "%s %s\n", SignatureHeader, c.Signature)
	}
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

// SigningPayload returns the bytes a signature covers: the body without
// the signature header.
func SigningPayload(c *Commit) []byte {
	unsigned := *c
	unsigned.Signature = ""
	return MarshalCommit(&unsigned)
}

// ValidIdentityField reports whether v can be embedded in an author or
// committer line without changing how the header parses.
func ValidIdentityField(v string) bool {
	return !strings.ContainsAny(v, "\n\r<>\x00")
}

func identity(name, email string, when time.Time) string {
	return fmt.Sprintf("%s <%s> %d %s", name, email, when.Unix(), when.Format("-0700"))
}

// CommitTree builds a commit object from p, stores it and returns its hash.
// The caller is responsible for checking that p.Tree is a tree and p.Parent
// a commit.
func CommitTree(s *Store, p CommitParams) (Hash, error) {
	if !ValidIdentityField(p.UserName) || !ValidIdentityField(p.UserEmail) {
		return "", fmt.Errorf("commit tree: %w", ErrInvalidIdentity)
	}
	when := p.When
	if when.IsZero() {
		when = time.Now()
	}
	id := identity(p.UserName, p.UserEmail, when)
	c := &Commit{
		Tree:      p.Tree,
		Parent:    p.Parent,
		Author:    id,
		Committer: id,
		Message:   p.Message,
	}
	if p.Signer != nil {
		sig, err := p.Signer(SigningPayload(c))
		if err != nil {
			return "", fmt.Errorf("commit tree: sign: %w", err)
		}
		if strings.ContainsAny(sig, "\n\r") {
			return "", fmt.Errorf("commit tree: signature must be a single line")
		}
		c.Signature = sig
	}

	h, err := s.Put(TypeCommit, MarshalCommit(c))
	if err != nil {
		return "", fmt.Errorf("commit tree: %w", err)
	}
	return h, nil
}

// headerValue scans the header lines of a commit body for key and returns
// the trimmed value. Scanning stops at the first blank line, so message
// text is never inspected.
func headerValue(content []byte, key string) (string, bool) {
	prefix := key + " "
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			break
		}
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// TreeHash returns the tree pointer of a decoded commit object.
func TreeHash(obj *GenericObject) (Hash, bool, error) {
	if obj.Type != TypeCommit {
		return "", false, fmt.Errorf("tree hash: %w: got %q, want %q", ErrWrongObjectType, obj.Type, TypeCommit)
	}
	v, ok := headerValue(obj.Content, "tree")
	return Hash(v), ok, nil
}

// ParentHash returns the parent of commit h, or false for a root commit.
func ParentHash(s *Store, h Hash) (Hash, bool, error) {
	obj, err := s.Read(h)
	if err != nil {
		return "", false, err
	}
	if obj.Type != TypeCommit {
		return "", false, fmt.Errorf("parent hash %s: %w: got %q, want %q", h, ErrWrongObjectType, obj.Type, TypeCommit)
	}
	v, ok := headerValue(obj.Content, "parent")
	return Hash(v), ok, nil
}

// ShowCommit returns the decoded body of commit h verbatim.
func ShowCommit(s *Store, h Hash) (string, error) {
	obj, err := s.ReadTyped(h, TypeCommit)
	if err != nil {
		return "", err
	}
	return string(obj.Content), nil
}

// ParseCommit parses a commit body into its structured form.
func ParseCommit(content []byte) (*Commit, error) {
	idx := bytes.Index(content, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: commit missing header/message separator", ErrMalformedObject)
	}
	c := &Commit{Message: string(content[idx+2:])}
	for _, line := range strings.Split(string(content[:idx]), "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: malformed commit header line %q", ErrMalformedObject, line)
		}
		switch key {
		case "tree":
			c.Tree = Hash(val)
		case "parent":
			c.Parent = Hash(val)
		case "author":
			c.Author = val
		case "committer":
			c.Committer = val
		case SignatureHeader:
			c.Signature = val
		}
	}
	if c.Tree == "" {
		return nil, fmt.Errorf("%w: commit has no tree", ErrMalformedObject)
	}
	return c, nil
}

// ReadCommit reads and parses commit h.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	obj, err := s.ReadTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := ParseCommit(obj.Content)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}
	return c, nil
}

// Summary returns the first line of the commit message.
func (c *Commit) Summary() string {
	line, _, _ := strings.Cut(c.Message, "\n")
	return line
}
