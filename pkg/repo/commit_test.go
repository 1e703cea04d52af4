package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/flux/pkg/object"
)

func TestCommit_EmptyIndex(t *testing.T) {
	r := newTestRepo(t)
	if _, err := r.Commit("nothing"); !errors.Is(err, ErrNothingToCommit) {
		t.Fatalf("Commit error = %v, want ErrNothingToCommit", err)
	}
}

func TestCommit_RequiresIdentity(t *testing.T) {
	r, err := Init(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	writeTestFile(t, r, "a.txt", "a\n")
	if err := r.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Commit("no identity"); !errors.Is(err, ErrConfigIncomplete) {
		t.Fatalf("Commit error = %v, want ErrConfigIncomplete", err)
	}
	if r.Index.IsEmpty() {
		t.Fatal("failed commit must not clear the index")
	}
}

func TestCommit_ClearsIndexAndUpdatesRef(t *testing.T) {
	r := newTestRepo(t)
	h := addAndCommit(t, r, "a.txt", "a\n", "first")

	if !r.Index.IsEmpty() {
		t.Fatal("index not cleared after commit")
	}
	reloaded, err := LoadIndex(r.StoreDir)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if !reloaded.IsEmpty() {
		t.Fatal("flushed index not cleared after commit")
	}

	ref, err := os.ReadFile(filepath.Join(r.StoreDir, "refs", "heads", "main"))
	if err != nil {
		t.Fatalf("ReadFile ref: %v", err)
	}
	if strings.TrimSpace(string(ref)) != h {
		t.Fatalf("main ref = %q, want %q", ref, h)
	}
	b, ok := r.CurrentBranch()
	if !ok || string(b.LastCommit) != h {
		t.Fatalf("CurrentBranch = %+v", b)
	}
}

func TestCommit_SecondCommitHasParent(t *testing.T) {
	r := newTestRepo(t)
	first := addAndCommit(t, r, "a.txt", "a\n", "first")
	second := addAndCommit(t, r, "a.txt", "b\n", "second")

	body, err := r.CatFile(object.Hash(second))
	if err != nil {
		t.Fatalf("CatFile: %v", err)
	}
	if !strings.Contains(body, "\nparent "+first+"\n") {
		t.Fatalf("second commit body missing parent:\n%s", body)
	}
	tip, err := r.HeadCommit()
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if string(tip) != second {
		t.Fatalf("tip = %s, want %s", tip, second)
	}
}

func TestCommit_NestedFilesRestoreOnSwitch(t *testing.T) {
	r := newTestRepo(t)
	writeTestFile(t, r, "docs/guide/intro.md", "intro\n")
	writeTestFile(t, r, "main.go", "package main\n")
	if err := r.Add("."); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Commit("nested"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := r.NewBranch("other"); err != nil {
		t.Fatalf("NewBranch: %v", err)
	}
	if err := r.SwitchBranch("main", false); err != nil {
		t.Fatalf("SwitchBranch: %v", err)
	}
	if got := readTestFile(t, r, "docs/guide/intro.md"); got != "intro\n" {
		t.Fatalf("intro.md = %q", got)
	}
}

func TestLog_RoundTrip(t *testing.T) {
	r := newTestRepo(t)
	m1 := addAndCommit(t, r, "README.md", "A", "m1")
	m2 := addAndCommit(t, r, "README.md", "B", "m2")

	entries, err := r.Log()
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Log returned %d entries, want 2", len(entries))
	}
	if string(entries[0].Hash) != m2 || string(entries[1].Hash) != m1 {
		t.Fatalf("order = %s, %s; want %s, %s", entries[0].Hash, entries[1].Hash, m2, m1)
	}
	if !strings.HasSuffix(entries[0].Body, "\n\nm2") || !strings.Contains(entries[0].Body, "parent "+m1) {
		t.Fatalf("m2 body:\n%s", entries[0].Body)
	}
	if strings.Contains(entries[1].Body, "parent ") {
		t.Fatalf("root commit has a parent:\n%s", entries[1].Body)
	}
	if entries[1].Commit.Message != "m1" {
		t.Fatalf("m1 message = %q", entries[1].Commit.Message)
	}
}

func TestLog_UnbornBranch(t *testing.T) {
	r := newTestRepo(t)
	entries, err := r.Log()
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("unborn log = %+v", entries)
	}
}

func TestCommitTree_ValidatesObjectKinds(t *testing.T) {
	r := newTestRepo(t)
	blob, err := r.Store.WriteBlob([]byte("data"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := r.CommitTree(blob, "bad tree", ""); !errors.Is(err, object.ErrWrongObjectType) {
		t.Fatalf("CommitTree(blob) error = %v, want ErrWrongObjectType", err)
	}

	tree, err := r.Store.WriteTree([]object.TreeEntry{{Mode: object.TreeModeFile, Type: object.TypeBlob, Hash: blob, Name: "f"}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	if _, err := r.CommitTree(tree, "bad parent", tree); !errors.Is(err, object.ErrWrongObjectType) {
		t.Fatalf("CommitTree(parent=tree) error = %v, want ErrWrongObjectType", err)
	}

	root, err := r.CommitTree(tree, "root", "")
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	child, err := r.CommitTree(tree, "child", root)
	if err != nil {
		t.Fatalf("CommitTree(child): %v", err)
	}
	parent, ok, err := object.ParentHash(r.Store, child)
	if err != nil || !ok || parent != root {
		t.Fatalf("ParentHash = %s, %v, %v; want %s", parent, ok, err, root)
	}

	tip, err := r.HeadCommit()
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if tip != "" {
		t.Fatalf("CommitTree moved the branch to %s", tip)
	}
}

func TestCatFile_Dispatch(t *testing.T) {
	r := newTestRepo(t)
	commit := addAndCommit(t, r, "a.txt", "hello\n", "msg")

	c, err := r.Store.ReadCommit(object.Hash(commit))
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}

	tree, err := r.CatFile(c.Tree)
	if err != nil {
		t.Fatalf("CatFile(tree): %v", err)
	}
	blob := object.HashObject(object.TypeBlob, []byte("hello\n"))
	if tree != "100644 blob "+string(blob)+" a.txt\n" {
		t.Fatalf("CatFile(tree) = %q", tree)
	}

	text, err := r.CatFile(blob)
	if err != nil {
		t.Fatalf("CatFile(blob): %v", err)
	}
	if text != "hello\n" {
		t.Fatalf("CatFile(blob) = %q", text)
	}

	binary, err := r.Store.WriteBlob([]byte{0xff, 0xfe, 0x00})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := r.CatFile(binary); err == nil {
		t.Fatal("CatFile on non-UTF-8 blob should fail")
	}
}
