package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/odvcencio/flux/pkg/repo"
)

func runFlux(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"-C", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustRunFlux(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runFlux(t, dir, args...)
	if err != nil {
		t.Fatalf("flux %s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func writeCmdFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func initCmdRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustRunFlux(t, dir, "init")
	mustRunFlux(t, dir, "set", "user_name", "Test User")
	mustRunFlux(t, dir, "set", "user_email", "test@example.com")
	return dir
}

func TestVersionCmd(t *testing.T) {
	out := mustRunFlux(t, t.TempDir(), "version")
	if strings.TrimSpace(out) != version {
		t.Fatalf("version output = %q, want %q", out, version)
	}
}

func TestInitCmd_RefusesExistingWithoutForce(t *testing.T) {
	dir := t.TempDir()
	out := mustRunFlux(t, dir, "init")
	if !strings.Contains(out, "initialized empty flux repository") {
		t.Fatalf("init output = %q", out)
	}
	if _, err := runFlux(t, dir, "init"); !errors.Is(err, repo.ErrAlreadyInitialized) {
		t.Fatalf("second init error = %v, want ErrAlreadyInitialized", err)
	}
	mustRunFlux(t, dir, "init", "--force")
}

func TestInitCmd_PathArgument(t *testing.T) {
	dir := t.TempDir()
	mustRunFlux(t, dir, "init", "sub")
	if _, err := os.Stat(filepath.Join(dir, "sub", repo.MetaDirName, "HEAD")); err != nil {
		t.Fatalf("HEAD not created under sub: %v", err)
	}
}

func TestSetCmd_RejectsUnknownKey(t *testing.T) {
	dir := t.TempDir()
	mustRunFlux(t, dir, "init")
	if _, err := runFlux(t, dir, "set", "editor", "vi"); !errors.Is(err, repo.ErrUnknownConfigKey) {
		t.Fatalf("set error = %v, want ErrUnknownConfigKey", err)
	}
}

func TestCommitAndLogCmd(t *testing.T) {
	dir := initCmdRepo(t)
	writeCmdFile(t, filepath.Join(dir, "hello.txt"), "hello world\n")

	mustRunFlux(t, dir, "add", "hello.txt")
	out := mustRunFlux(t, dir, "commit", "-m", "first commit")
	if !strings.HasPrefix(out, "[main ") || !strings.Contains(out, "first commit") {
		t.Fatalf("commit output = %q", out)
	}

	writeCmdFile(t, filepath.Join(dir, "hello.txt"), "hello again\n")
	mustRunFlux(t, dir, "add", ".")
	mustRunFlux(t, dir, "commit", "-m", "second commit")

	log := mustRunFlux(t, dir, "log", "--oneline")
	lines := strings.Split(strings.TrimSpace(log), "\n")
	if len(lines) != 2 {
		t.Fatalf("log --oneline lines = %d, want 2:\n%s", len(lines), log)
	}
	if !strings.Contains(lines[0], "second commit") || !strings.Contains(lines[1], "first commit") {
		t.Fatalf("log order wrong:\n%s", log)
	}
	if !strings.Contains(lines[0], "HEAD -> main") {
		t.Fatalf("tip not decorated:\n%s", log)
	}

	full := mustRunFlux(t, dir, "log")
	if strings.Count(full, "author Test User <test@example.com>") != 2 {
		t.Fatalf("full log missing commit bodies:\n%s", full)
	}
}

func TestLogCmd_Unborn(t *testing.T) {
	dir := initCmdRepo(t)
	out := mustRunFlux(t, dir, "log")
	if !strings.Contains(out, "no commits yet") {
		t.Fatalf("log output = %q", out)
	}
}

func TestCommitCmd_NothingStaged(t *testing.T) {
	dir := initCmdRepo(t)
	if _, err := runFlux(t, dir, "commit", "-m", "empty"); !errors.Is(err, repo.ErrNothingToCommit) {
		t.Fatalf("commit error = %v, want ErrNothingToCommit", err)
	}
}

func TestCommitCmd_RequiresMessage(t *testing.T) {
	dir := initCmdRepo(t)
	if _, err := runFlux(t, dir, "commit"); err == nil {
		t.Fatal("expected error without -m")
	}
}

func TestPlumbingCmds(t *testing.T) {
	dir := initCmdRepo(t)
	writeCmdFile(t, filepath.Join(dir, "a.txt"), "hello world")
	writeCmdFile(t, filepath.Join(dir, "src", "b.txt"), "nested\n")

	blob := strings.TrimSpace(mustRunFlux(t, dir, "hash-object", "-w", "a.txt"))
	if blob != "95d09f2b10159347eece71399a7e2e907ea3df4f" {
		t.Fatalf("hash-object = %q", blob)
	}
	if got := mustRunFlux(t, dir, "cat-file", blob); got != "hello world" {
		t.Fatalf("cat-file blob = %q", got)
	}
	if _, err := runFlux(t, dir, "cat-file", "-p", blob); err == nil {
		t.Fatal("cat-file should not accept a -p flag")
	}

	mustRunFlux(t, dir, "add", "a.txt", "src")
	tree := strings.TrimSpace(mustRunFlux(t, dir, "write-index"))

	names := mustRunFlux(t, dir, "ls-tree", "--name-only", tree)
	if names != "a.txt\nsrc\n" {
		t.Fatalf("ls-tree --name-only = %q", names)
	}
	listing := mustRunFlux(t, dir, "cat-file", tree)
	if !strings.Contains(listing, "040000 tree") || !strings.Contains(listing, "100644 blob "+blob) {
		t.Fatalf("cat-file tree = %q", listing)
	}

	root := strings.TrimSpace(mustRunFlux(t, dir, "commit-tree", tree, "-m", "root"))
	child := strings.TrimSpace(mustRunFlux(t, dir, "commit-tree", tree, "-m", "child", "-p", root))
	body := mustRunFlux(t, dir, "cat-file", child)
	if !strings.HasPrefix(body, "tree "+tree+"\nparent "+root+"\n") {
		t.Fatalf("commit body = %q", body)
	}
	if _, err := runFlux(t, dir, "commit-tree", blob, "-m", "bad"); err == nil {
		t.Fatal("commit-tree on a blob should fail")
	}

	mustRunFlux(t, dir, "delete", "src")
	tree2 := strings.TrimSpace(mustRunFlux(t, dir, "write-index"))
	if names := mustRunFlux(t, dir, "ls-tree", "--name-only", tree2); names != "a.txt\n" {
		t.Fatalf("ls-tree after delete = %q", names)
	}
}

func TestBranchCmds(t *testing.T) {
	dir := initCmdRepo(t)
	writeCmdFile(t, filepath.Join(dir, "main.txt"), "on main\n")
	mustRunFlux(t, dir, "add", "main.txt")
	mustRunFlux(t, dir, "commit", "-m", "main work")

	mustRunFlux(t, dir, "branch", "new", "feature")
	writeCmdFile(t, filepath.Join(dir, "feature.txt"), "on feature\n")
	mustRunFlux(t, dir, "add", "feature.txt")
	mustRunFlux(t, dir, "commit", "-m", "feature work")

	show := mustRunFlux(t, dir, "branch", "show")
	if !strings.Contains(show, "(*) ") || !strings.Contains(show, "feature") || !strings.Contains(show, "    main") {
		t.Fatalf("branch show = %q", show)
	}

	mustRunFlux(t, dir, "branch", "switch", "main")
	if _, err := os.Stat(filepath.Join(dir, "feature.txt")); !os.IsNotExist(err) {
		t.Fatalf("feature.txt should be gone after switching to main, stat err = %v", err)
	}

	writeCmdFile(t, filepath.Join(dir, "wip.txt"), "wip\n")
	mustRunFlux(t, dir, "add", "wip.txt")
	if _, err := runFlux(t, dir, "branch", "switch", "feature"); !errors.Is(err, repo.ErrUncommittedChanges) {
		t.Fatalf("switch error = %v, want ErrUncommittedChanges", err)
	}
	mustRunFlux(t, dir, "branch", "switch", "-f", "feature")
	if _, err := os.Stat(filepath.Join(dir, "feature.txt")); err != nil {
		t.Fatalf("feature.txt missing after forced switch: %v", err)
	}

	if _, err := runFlux(t, dir, "branch", "delete", "feature"); !errors.Is(err, repo.ErrCurrentBranch) {
		t.Fatalf("delete current error = %v, want ErrCurrentBranch", err)
	}
	mustRunFlux(t, dir, "branch", "switch", "main")
	mustRunFlux(t, dir, "branch", "delete", "feature")
	if show := mustRunFlux(t, dir, "branch", "show"); strings.Contains(show, "feature") {
		t.Fatalf("feature still listed: %q", show)
	}
}

func writeTestSigningKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "flux-test")
	if err != nil {
		t.Fatalf("MarshalPrivateKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCommitCmd_SignedAndVerified(t *testing.T) {
	dir := initCmdRepo(t)
	key := writeTestSigningKey(t)

	writeCmdFile(t, filepath.Join(dir, "signed.txt"), "signed content\n")
	mustRunFlux(t, dir, "add", "signed.txt")
	mustRunFlux(t, dir, "commit", "-m", "signed", "-S", "--key", key)

	log := mustRunFlux(t, dir, "log")
	if !strings.Contains(log, "sshsig "+repo.SignaturePrefix+":") {
		t.Fatalf("log missing signature header:\n%s", log)
	}

	out := mustRunFlux(t, dir, "verify")
	if !strings.Contains(out, "ok: verified") || !strings.Contains(out, "1 signed") {
		t.Fatalf("verify output = %q", out)
	}
}

func TestVerifyCmd_DetectsCorruptObject(t *testing.T) {
	dir := initCmdRepo(t)
	writeCmdFile(t, filepath.Join(dir, "a.txt"), "content\n")
	mustRunFlux(t, dir, "add", "a.txt")
	mustRunFlux(t, dir, "commit", "-m", "one")

	blob := strings.TrimSpace(mustRunFlux(t, dir, "hash-object", "a.txt"))
	objPath := filepath.Join(dir, repo.MetaDirName, "objects", blob[:2], blob[2:])
	if err := os.Chmod(objPath, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(objPath, []byte("not zlib"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := runFlux(t, dir, "verify"); err == nil {
		t.Fatal("verify should fail on a corrupted object")
	}
}

func TestOpen_OutsideRepository(t *testing.T) {
	if _, err := runFlux(t, t.TempDir(), "log"); !errors.Is(err, repo.ErrNotARepository) {
		t.Fatalf("log error = %v, want ErrNotARepository", err)
	}
}

func TestStatusAndReflogCmds(t *testing.T) {
	dir := initCmdRepo(t)
	if out := mustRunFlux(t, dir, "status"); !strings.Contains(out, "on main (no commits yet)") {
		t.Fatalf("status on unborn = %q", out)
	}

	writeCmdFile(t, filepath.Join(dir, "a.txt"), "a\n")
	mustRunFlux(t, dir, "add", "a.txt")
	writeCmdFile(t, filepath.Join(dir, "b.txt"), "b\n")

	out := mustRunFlux(t, dir, "status")
	if !strings.Contains(out, "staged:") || !strings.Contains(out, "+ a.txt") {
		t.Fatalf("status missing staged file:\n%s", out)
	}
	if !strings.Contains(out, "untracked:") || !strings.Contains(out, "b.txt") {
		t.Fatalf("status missing untracked file:\n%s", out)
	}

	mustRunFlux(t, dir, "commit", "-m", "add a")
	mustRunFlux(t, dir, "delete", "b.txt")
	if err := os.Remove(filepath.Join(dir, "b.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if out := mustRunFlux(t, dir, "status"); !strings.Contains(out, "working tree clean") {
		t.Fatalf("status after commit = %q", out)
	}

	reflog := mustRunFlux(t, dir, "reflog")
	if !strings.Contains(reflog, "refs/heads/main commit (initial): add a") {
		t.Fatalf("reflog = %q", reflog)
	}
}
