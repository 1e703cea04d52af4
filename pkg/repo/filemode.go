package repo

import (
	"os"

	"github.com/odvcencio/flux/pkg/object"
)

func normalizeFileMode(mode string) string {
	if mode == object.TreeModeExecutable {
		return object.TreeModeExecutable
	}
	return object.TreeModeFile
}

func filePermFromMode(mode string) os.FileMode {
	if normalizeFileMode(mode) == object.TreeModeExecutable {
		return 0o755
	}
	return 0o644
}

// stagedFileMode returns the tree mode for a staged work-tree file, falling
// back to a plain file when it is no longer on disk.
func (r *Repository) stagedFileMode(rel string) string {
	info, err := os.Stat(r.absPath(rel))
	if err != nil || !info.Mode().IsRegular() {
		return object.TreeModeFile
	}
	return object.ModeFromFileInfo(info)
}
