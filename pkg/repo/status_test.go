package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func statusByPath(t *testing.T, r *Repository) map[string]StatusEntry {
	t.Helper()
	entries, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	out := make(map[string]StatusEntry, len(entries))
	for _, e := range entries {
		out[e.Path] = e
	}
	return out
}

func TestStatus_CleanAfterCommit(t *testing.T) {
	r := newTestRepo(t)
	addAndCommit(t, r, "a.txt", "a\n", "first")

	if st := statusByPath(t, r); len(st) != 0 {
		t.Fatalf("status after commit = %+v, want clean", st)
	}
}

func TestStatus_ClassifiesChanges(t *testing.T) {
	r := newTestRepo(t)
	writeTestFile(t, r, "keep.txt", "keep\n")
	writeTestFile(t, r, "edit.txt", "v1\n")
	writeTestFile(t, r, "remove.txt", "bye\n")
	if err := r.Add("."); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Commit("base"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	writeTestFile(t, r, "edit.txt", "v2\n")
	if err := r.Add("edit.txt"); err != nil {
		t.Fatalf("Add(edit): %v", err)
	}
	writeTestFile(t, r, "edit.txt", "v3\n")

	writeTestFile(t, r, "fresh.txt", "new\n")
	if err := r.Add("fresh.txt"); err != nil {
		t.Fatalf("Add(fresh): %v", err)
	}
	writeTestFile(t, r, "keep.txt", "changed on disk\n")
	writeTestFile(t, r, "stray.txt", "untracked\n")
	if err := os.Remove(filepath.Join(r.WorkTree, "remove.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	st := statusByPath(t, r)
	want := map[string]StatusEntry{
		"edit.txt":   {Path: "edit.txt", IndexStatus: StatusModified, WorkStatus: StatusDirty},
		"fresh.txt":  {Path: "fresh.txt", IndexStatus: StatusNew, WorkStatus: StatusClean},
		"keep.txt":   {Path: "keep.txt", IndexStatus: StatusClean, WorkStatus: StatusDirty},
		"remove.txt": {Path: "remove.txt", IndexStatus: StatusClean, WorkStatus: StatusDeleted},
		"stray.txt":  {Path: "stray.txt", IndexStatus: StatusClean, WorkStatus: StatusUntracked},
	}
	if len(st) != len(want) {
		t.Fatalf("status = %+v", st)
	}
	for p, w := range want {
		if st[p] != w {
			t.Errorf("%s: got %+v (%s/%s), want %+v", p, st[p], st[p].IndexStatus, st[p].WorkStatus, w)
		}
	}
}

func TestStatus_RespectsIgnore(t *testing.T) {
	r := newTestRepo(t)
	writeTestFile(t, r, IgnoreFile, "*.tmp\n")
	writeTestFile(t, r, "scratch.tmp", "x\n")

	st := statusByPath(t, r)
	if _, ok := st["scratch.tmp"]; ok {
		t.Fatal("ignored file reported")
	}
	if st[IgnoreFile].WorkStatus != StatusUntracked {
		t.Fatalf("%s status = %+v", IgnoreFile, st[IgnoreFile])
	}
}
