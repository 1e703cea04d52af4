package repo

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/flux/pkg/object"
)

func testSigner(t *testing.T) object.CommitSigner {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("NewSignerFromKey: %v", err)
	}
	return func(payload []byte) (string, error) {
		sig, err := signer.Sign(rand.Reader, payload)
		if err != nil {
			return "", err
		}
		return EncodeSignature(signer.PublicKey(), sig), nil
	}
}

func TestVerify_SignedHistory(t *testing.T) {
	r := newTestRepo(t)
	r.Signer = testSigner(t)
	addAndCommit(t, r, "a.txt", "a\n", "signed one")
	r.Signer = nil
	addAndCommit(t, r, "a.txt", "b\n", "unsigned two")

	report, err := r.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Commits != 2 || report.Signed != 1 || report.Branches != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Objects.Commits != 2 || report.Objects.Blobs != 2 || report.Objects.Trees != 2 {
		t.Fatalf("object summary = %+v", report.Objects)
	}
}

func TestVerifyCommitSignature_Tampered(t *testing.T) {
	r := newTestRepo(t)
	r.Signer = testSigner(t)
	h := addAndCommit(t, r, "a.txt", "a\n", "original")

	c, err := r.Store.ReadCommit(object.Hash(h))
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if !strings.HasPrefix(c.Signature, SignaturePrefix+":ssh-ed25519:") {
		t.Fatalf("signature = %q", c.Signature)
	}
	if _, err := VerifyCommitSignature(c); err != nil {
		t.Fatalf("VerifyCommitSignature: %v", err)
	}

	c.Message = "forged"
	if _, err := VerifyCommitSignature(c); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("tampered error = %v, want ErrBadSignature", err)
	}

	c.Signature = "garbage"
	if _, err := VerifyCommitSignature(c); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("garbage error = %v, want ErrBadSignature", err)
	}
}

func TestVerify_ForgedCommitOnBranch(t *testing.T) {
	r := newTestRepo(t)
	r.Signer = testSigner(t)
	h := addAndCommit(t, r, "a.txt", "a\n", "original")

	c, err := r.Store.ReadCommit(object.Hash(h))
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	c.Message = "rewritten"
	forged, err := r.Store.Put(object.TypeCommit, object.MarshalCommit(c))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := r.updateRef(r.Head, forged, "test: forge"); err != nil {
		t.Fatalf("updateRef: %v", err)
	}
	if err := r.LoadBranches(); err != nil {
		t.Fatalf("LoadBranches: %v", err)
	}

	if _, err := r.Verify(); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("Verify error = %v, want ErrBadSignature", err)
	}
}

func TestVerify_CorruptObject(t *testing.T) {
	r := newTestRepo(t)
	addAndCommit(t, r, "a.txt", "a\n", "first")

	blob := object.HashObject(object.TypeBlob, []byte("a\n"))
	other, err := object.Compress(object.Envelope(object.TypeBlob, []byte("z\n")))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	path := filepath.Join(r.Store.Root(), "objects", string(blob[:2]), string(blob[2:]))
	if err := os.WriteFile(path, other, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := r.Verify(); err == nil {
		t.Fatal("Verify should detect an object whose content does not match its name")
	}
}
